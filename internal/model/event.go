package model

import "time"

// Event 领域事件发件箱，和业务数据在同一事务内写入，由派发任务投递到 MQ
type Event struct {
	Base

	AggregateType string     `json:"aggregate_type" gorm:"type:varchar(32);not null"`
	AggregateID   string     `json:"aggregate_id" gorm:"type:varchar(36);not null;index"`
	EventType     string     `json:"event_type" gorm:"type:varchar(64);not null"`
	Data          string     `json:"data" gorm:"type:text"`
	Processed     bool       `json:"processed" gorm:"not null;default:false;index"`
	Attempts      int        `json:"attempts" gorm:"not null;default:0"`
	LastError     string     `json:"last_error" gorm:"type:text"`
	ProcessedAt   *time.Time `json:"processed_at"`
}
