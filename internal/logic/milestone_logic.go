package logic

import (
	"context"
	"time"

	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/event"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/metrics"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MilestoneLogic 里程碑状态机和托管资金
type MilestoneLogic struct {
	db    *gorm.DB
	cache cache.ProjectCache
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB, c cache.ProjectCache) *MilestoneLogic {
	return &MilestoneLogic{db: db, cache: c}
}

// ReleaseResult 放款结果
type ReleaseResult struct {
	Amount           decimal.Decimal `json:"amount"`
	TransactionCount int             `json:"transactionCount"`
}

// EscrowSummary 项目托管资金汇总
type EscrowSummary struct {
	Held     decimal.Decimal `json:"held"`
	Released decimal.Decimal `json:"released"`
	Total    decimal.Decimal `json:"total"`
}

func (m *MilestoneLogic) loadMilestone(ctx context.Context, milestoneID string) (*model.Milestone, error) {
	var milestone model.Milestone
	err := m.db.WithContext(ctx).Preload("Project").First(&milestone, "id = ?", milestoneID).Error
	if err != nil {
		return nil, notFoundOr(err, ErrMilestoneNotFound, "Failed to load milestone")
	}
	if milestone.Project == nil {
		return nil, ErrMilestoneNotFound
	}
	return &milestone, nil
}

// transition 条件更新状态并写事件，并发下只有一个请求能成功
func (m *MilestoneLogic) transition(ctx context.Context, ms *model.Milestone, from, to model.MilestoneStatus,
	extra map[string]interface{}, eventType string, lost *Error) error {
	// from == to 只刷新字段并记事件
	if from != to && !from.CanTransitionTo(to) {
		return lost
	}
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Milestone{}).
			Where("id = ? AND status = ?", ms.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return lost
		}
		return event.Record(tx, event.AggregateMilestone, ms.ID, eventType, map[string]interface{}{
			"project_id":  ms.ProjectID,
			"order_index": ms.OrderIndex,
			"from":        from,
			"to":          to,
		})
	})
	if err != nil {
		return wrapStore("Failed to update milestone", err)
	}

	ms.Status = to
	if from != to {
		metrics.MilestoneTransitions.WithLabelValues(string(to)).Inc()
	}
	invalidatePage(ctx, m.cache, ms.Project.Slug)
	logger.Info("Milestone %s %s (%s -> %s)", ms.ID, eventType, from, to)
	return nil
}

// StartMilestone 开始里程碑，要求项目众筹中且前面的里程碑都已完成
func (m *MilestoneLogic) StartMilestone(ctx context.Context, actorID, milestoneID string) (*model.Milestone, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	ms, err := m.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if ms.Project.CreatorID != actorID {
		return nil, forbidden("You can only start your own milestones")
	}
	if ms.Status != model.MilestoneStatusPending {
		return nil, precondition("Milestone must be pending to be started")
	}
	if ms.Project.Status != model.ProjectStatusLive {
		return nil, precondition("Project must be live to start a milestone")
	}

	var unfinished int64
	err = m.db.WithContext(ctx).Model(&model.Milestone{}).
		Where("project_id = ? AND order_index < ? AND status NOT IN ?", ms.ProjectID, ms.OrderIndex,
			model.DoneMilestoneStatuses()).
		Count(&unfinished).Error
	if err != nil {
		return nil, storeError("Failed to load milestones", err)
	}
	if unfinished > 0 {
		return nil, precondition("Previous milestones must be completed first")
	}

	err = m.transition(ctx, ms, model.MilestoneStatusPending, model.MilestoneStatusInProgress, nil,
		event.MilestoneStarted, precondition("Milestone must be pending to be started"))
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// MarkMilestoneCompleted 创建者标记里程碑完成
func (m *MilestoneLogic) MarkMilestoneCompleted(ctx context.Context, actorID, milestoneID, proof string) (*model.Milestone, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	ms, err := m.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if ms.Project.CreatorID != actorID {
		return nil, forbidden("You can only mark your own milestones as completed")
	}

	notInProgress := precondition("Milestone must be in progress to be marked as completed")
	if ms.Status != model.MilestoneStatusInProgress {
		return nil, notInProgress
	}

	var proofValue *string
	if proof != "" {
		proofValue = &proof
	}
	err = m.transition(ctx, ms, model.MilestoneStatusInProgress, model.MilestoneStatusCompleted,
		map[string]interface{}{"completion_proof": proofValue}, event.MilestoneCompleted, notInProgress)
	if err != nil {
		return nil, err
	}
	ms.CompletionProof = proofValue
	return ms, nil
}

// RequestMilestoneVerification 提交完成证明等待审核，状态不变
func (m *MilestoneLogic) RequestMilestoneVerification(ctx context.Context, actorID, milestoneID, proof string) (*model.Milestone, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	ms, err := m.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if ms.Project.CreatorID != actorID {
		return nil, forbidden("You can only request verification for your own milestones")
	}

	notCompleted := precondition("Milestone must be completed to request verification")
	if ms.Status != model.MilestoneStatusCompleted {
		return nil, notCompleted
	}

	// 没有新证明时保留原来的
	extra := map[string]interface{}{}
	if proof != "" {
		extra["completion_proof"] = proof
	}
	err = m.transition(ctx, ms, model.MilestoneStatusCompleted, model.MilestoneStatusCompleted,
		extra, event.MilestoneVerificationRequested, notCompleted)
	if err != nil {
		return nil, err
	}
	if proof != "" {
		ms.CompletionProof = &proof
	}
	return ms, nil
}

// ReleaseEscrowFunds 已审核的里程碑放款，锁住托管记录后一次性改为 released
func (m *MilestoneLogic) ReleaseEscrowFunds(ctx context.Context, actorID, milestoneID string) (*ReleaseResult, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	ms, err := m.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	notVerified := precondition("Milestone must be verified to release funds")
	noFunds := precondition("No funds to release")
	if ms.Status != model.MilestoneStatusVerified {
		return nil, notVerified
	}

	result := &ReleaseResult{Amount: decimal.Zero}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 审核状态可能在读取之后被改掉
		var current model.Milestone
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").First(&current, "id = ?", ms.ID).Error; err != nil {
			return err
		}
		if current.Status != model.MilestoneStatusVerified {
			return notVerified
		}

		var held []model.EscrowTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("milestone_id = ? AND status = ?", ms.ID, model.EscrowStatusHeld).
			Find(&held).Error; err != nil {
			return err
		}
		if len(held) == 0 {
			return noFunds
		}

		ids := make([]string, 0, len(held))
		for _, row := range held {
			if !row.Status.CanTransitionTo(model.EscrowStatusReleased) {
				return noFunds
			}
			ids = append(ids, row.ID)
			result.Amount = result.Amount.Add(row.Amount)
		}

		now := time.Now()
		res := tx.Model(&model.EscrowTransaction{}).
			Where("id IN ? AND status = ?", ids, model.EscrowStatusHeld).
			Updates(map[string]interface{}{
				"status":      model.EscrowStatusReleased,
				"released_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		// 另一个请求抢先放了款
		if res.RowsAffected != int64(len(held)) {
			return noFunds
		}
		result.TransactionCount = len(held)

		return event.Record(tx, event.AggregateMilestone, ms.ID, event.EscrowReleased, map[string]interface{}{
			"project_id":        ms.ProjectID,
			"amount":            result.Amount,
			"transaction_count": result.TransactionCount,
		})
	})
	if err != nil {
		return nil, wrapStore("Failed to release funds", err)
	}

	metrics.EscrowReleasedAmount.Add(result.Amount.InexactFloat64())
	invalidatePage(ctx, m.cache, ms.Project.Slug)
	logger.Info("Released %s from %d escrow rows for milestone %s", result.Amount, result.TransactionCount, ms.ID)
	return result, nil
}

// GetProjectMilestones 按顺序返回项目的里程碑
func (m *MilestoneLogic) GetProjectMilestones(ctx context.Context, projectID string) ([]model.Milestone, error) {
	var milestones []model.Milestone
	if err := m.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("order_index ASC").Find(&milestones).Error; err != nil {
		return nil, storeError("Failed to load milestones", err)
	}
	return milestones, nil
}

// GetProjectEscrowFunds 项目仍在托管中的资金，最近的在前
func (m *MilestoneLogic) GetProjectEscrowFunds(ctx context.Context, projectID string) ([]model.EscrowTransaction, error) {
	var rows []model.EscrowTransaction
	if err := m.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, model.EscrowStatusHeld).
		Order("held_at DESC").Find(&rows).Error; err != nil {
		return nil, storeError("Failed to load escrow funds", err)
	}
	return rows, nil
}

// GetEscrowSummary 托管中和已放款的金额，两个汇总并发查询
func (m *MilestoneLogic) GetEscrowSummary(ctx context.Context, projectID string) (*EscrowSummary, error) {
	var held, released decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		held, err = sumEscrow(m.db.WithContext(gctx), projectID, model.EscrowStatusHeld)
		return err
	})
	g.Go(func() error {
		var err error
		released, err = sumEscrow(m.db.WithContext(gctx), projectID, model.EscrowStatusReleased)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError("Failed to load escrow summary", err)
	}

	return &EscrowSummary{
		Held:     held,
		Released: released,
		Total:    held.Add(released),
	}, nil
}

// sumEscrow 在 Go 里累加，避免各数据库 SUM(numeric) 返回类型不一致
func sumEscrow(db *gorm.DB, projectID string, status model.EscrowStatus) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := db.Model(&model.EscrowTransaction{}).
		Where("project_id = ? AND status = ?", projectID, status).
		Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}
