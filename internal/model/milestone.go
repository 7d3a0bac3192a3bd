package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Milestone 项目里程碑，按 OrderIndex 顺序解锁
type Milestone struct {
	Base

	ProjectID       string          `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Title           string          `json:"title" gorm:"not null"`
	Description     string          `json:"description" gorm:"type:text"`
	OrderIndex      int             `json:"order_index" gorm:"not null"`
	GoalAmount      decimal.Decimal `json:"goal_amount" gorm:"type:numeric(12,2);not null"`
	CurrentAmount   decimal.Decimal `json:"current_amount" gorm:"type:numeric(12,2);not null;default:0"`
	DeadlineDays    int             `json:"deadline_days" gorm:"not null"`
	Status          MilestoneStatus `json:"status" gorm:"type:varchar(32);not null;default:'pending'"`
	CompletionProof *string         `json:"completion_proof"`
	VerifiedAt      *time.Time      `json:"verified_at"`
	VerifiedBy      *string         `json:"verified_by" gorm:"type:varchar(36)"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// Remaining 距离里程碑目标还差的金额
func (m *Milestone) Remaining() decimal.Decimal {
	rest := m.GoalAmount.Sub(m.CurrentAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
