package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Backing 支持者的一次认筹
type Backing struct {
	Base

	ProjectID       string          `json:"project_id" gorm:"type:varchar(36);not null;index"`
	BackerID        string          `json:"backer_id" gorm:"type:varchar(36);not null;index"`
	RewardID        *string         `json:"reward_id" gorm:"type:varchar(36)"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency        string          `json:"currency" gorm:"type:varchar(8);default:'USD'"`
	Status          BackingStatus   `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	PaymentIntentID *string         `json:"payment_intent_id"`
	BackedAt        time.Time       `json:"backed_at"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Backer  *User    `json:"backer,omitempty" gorm:"foreignKey:BackerID"`
	Reward  *Reward  `json:"reward,omitempty" gorm:"foreignKey:RewardID"`
}

// BackingStatus 认筹状态
type BackingStatus string

const (
	BackingStatusPending   BackingStatus = "pending"
	BackingStatusConfirmed BackingStatus = "confirmed"
	BackingStatusRefunded  BackingStatus = "refunded"
	BackingStatusCancelled BackingStatus = "cancelled"
)
