package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowTransaction 托管在某个里程碑下的资金
type EscrowTransaction struct {
	Base

	ProjectID   string          `json:"project_id" gorm:"type:varchar(36);not null;index"`
	MilestoneID string          `json:"milestone_id" gorm:"type:varchar(36);not null;index:idx_escrow_milestone_status"`
	BackingID   *string         `json:"backing_id" gorm:"type:varchar(36);index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency    string          `json:"currency" gorm:"type:varchar(8);default:'USD'"`
	Status      EscrowStatus    `json:"status" gorm:"type:varchar(16);not null;default:'held';index:idx_escrow_milestone_status"`
	HeldAt      time.Time       `json:"held_at"`
	ReleasedAt  *time.Time      `json:"released_at"`
}
