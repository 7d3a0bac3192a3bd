package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chxdon9587/NextForD/internal/model"
	"gorm.io/gorm"
)

// 聚合类型
const (
	AggregateProject   = "project"
	AggregateMilestone = "milestone"
	AggregateBacking   = "backing"
)

// 事件类型，同时作为 MQ 的 routing key
const (
	ProjectCreated   = "project.created"
	ProjectSubmitted = "project.submitted"
	ProjectApproved  = "project.approved"
	ProjectRejected  = "project.rejected"
	ProjectLaunched  = "project.launched"
	ProjectCancelled = "project.cancelled"
	ProjectFinished  = "project.finished"

	MilestoneStarted               = "milestone.started"
	MilestoneCompleted             = "milestone.completed"
	MilestoneVerificationRequested = "milestone.verification_requested"

	EscrowReleased = "escrow.released"
	BackingCreated = "backing.created"
)

// Envelope 投递到 MQ 的消息体
type Envelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Data          json.RawMessage `json:"data"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Record 在当前事务内写入发件箱，事务回滚时事件一起丢弃
func Record(tx *gorm.DB, aggregateType, aggregateID, eventType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}
	evt := model.Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Data:          string(raw),
	}
	if err := tx.Create(&evt).Error; err != nil {
		return fmt.Errorf("record event %s: %w", eventType, err)
	}
	return nil
}

// NewEnvelope 由发件箱记录构造消息
func NewEnvelope(evt *model.Event) Envelope {
	data := json.RawMessage(evt.Data)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Envelope{
		ID:            evt.ID,
		Type:          evt.EventType,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		Data:          data,
		OccurredAt:    evt.CreatedAt,
	}
}
