package logic

import (
	"context"
	"time"

	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/event"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/metrics"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/chxdon9587/NextForD/internal/payment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BackingLogic 认筹
type BackingLogic struct {
	db      *gorm.DB
	gateway payment.Gateway
	cache   cache.ProjectCache
}

// NewBackingLogic 创建认筹业务逻辑
func NewBackingLogic(db *gorm.DB, gateway payment.Gateway, c cache.ProjectCache) *BackingLogic {
	return &BackingLogic{db: db, gateway: gateway, cache: c}
}

// CreateBackingInput 认筹请求
type CreateBackingInput struct {
	ProjectID string          `json:"project_id" binding:"required"`
	RewardID  *string         `json:"reward_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// allocation 一笔认筹在某个里程碑下托管的金额
type allocation struct {
	MilestoneID string
	Amount      decimal.Decimal
}

// allocate 按 order_index 依次填满各里程碑的剩余目标，超出部分记在最后一个里程碑
func allocate(milestones []model.Milestone, amount decimal.Decimal) []allocation {
	if len(milestones) == 0 || !amount.IsPositive() {
		return nil
	}

	var out []allocation
	rest := amount
	for i := range milestones {
		if !rest.IsPositive() {
			break
		}
		share := decimal.Min(rest, milestones[i].Remaining())
		if i == len(milestones)-1 {
			share = rest
		}
		if !share.IsPositive() {
			continue
		}
		out = append(out, allocation{MilestoneID: milestones[i].ID, Amount: share})
		rest = rest.Sub(share)
	}
	return out
}

// CreateBacking 认筹，支付、扣减回报库存、累计金额、托管分配在同一个事务里完成
func (b *BackingLogic) CreateBacking(ctx context.Context, actorID string, in CreateBackingInput) (*model.Backing, error) {
	if actorID == "" {
		return nil, newError(KindUnauthenticated, "You must be logged in to back a project")
	}
	if err := checkMoney("Amount", in.Amount); err != nil {
		return nil, err
	}
	if in.RewardID != nil && *in.RewardID == "" {
		in.RewardID = nil
	}

	var (
		backing model.Backing
		slug    string
	)
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁串行化同一项目的认筹，托管分配读到的里程碑金额才是最新的
		project, err := loadProject(tx.Clauses(clause.Locking{Strength: "UPDATE"}), in.ProjectID)
		if err != nil {
			return err
		}
		if project.Status != model.ProjectStatusLive {
			return precondition("Project is not accepting backings")
		}
		slug = project.Slug

		if in.RewardID != nil {
			if err := claimReward(tx, project.ID, *in.RewardID, in.Amount); err != nil {
				return err
			}
		}

		intent, err := b.gateway.CreateIntent(ctx, in.Amount, "USD")
		if err != nil {
			return &Error{Kind: KindPrecondition, Msg: "Payment failed", Err: err}
		}

		var previous int64
		if err := tx.Model(&model.Backing{}).
			Where("project_id = ? AND backer_id = ? AND status = ?", project.ID, actorID, model.BackingStatusConfirmed).
			Count(&previous).Error; err != nil {
			return err
		}

		now := time.Now()
		backing = model.Backing{
			ProjectID:       project.ID,
			BackerID:        actorID,
			RewardID:        in.RewardID,
			Amount:          in.Amount,
			Currency:        "USD",
			Status:          model.BackingStatusConfirmed,
			PaymentIntentID: &intent.ID,
			BackedAt:        now,
		}
		if err := tx.Create(&backing).Error; err != nil {
			return err
		}

		counters := map[string]interface{}{
			"current_amount": gorm.Expr("current_amount + ?", in.Amount),
		}
		if previous == 0 {
			counters["backer_count"] = gorm.Expr("backer_count + 1")
		}
		if err := tx.Model(&model.Project{}).Where("id = ?", project.ID).Updates(counters).Error; err != nil {
			return err
		}

		if err := holdInEscrow(tx, &backing, now); err != nil {
			return err
		}

		return event.Record(tx, event.AggregateBacking, backing.ID, event.BackingCreated, map[string]interface{}{
			"project_id": project.ID,
			"backer_id":  actorID,
			"reward_id":  in.RewardID,
			"amount":     in.Amount,
		})
	})
	if err != nil {
		metrics.BackingsCreated.WithLabelValues("failed").Inc()
		return nil, wrapStore("Failed to create backing", err)
	}

	metrics.BackingsCreated.WithLabelValues(string(model.BackingStatusConfirmed)).Inc()
	invalidatePage(ctx, b.cache, slug)
	logger.Info("Backing %s of %s confirmed for project %s", backing.ID, backing.Amount, backing.ProjectID)
	return &backing, nil
}

// claimReward 条件更新领取数量，限量档位领完时失败
func claimReward(tx *gorm.DB, projectID, rewardID string, amount decimal.Decimal) error {
	var reward model.Reward
	if err := tx.First(&reward, "id = ? AND project_id = ?", rewardID, projectID).Error; err != nil {
		return notFoundOr(err, ErrRewardNotFound, "Failed to load reward")
	}
	if !reward.IsActive {
		return precondition("Reward is not available")
	}
	if amount.LessThan(reward.Amount) {
		return invalid("Amount must be at least the reward pledge amount")
	}

	res := tx.Model(&model.Reward{}).
		Where("id = ? AND (quantity_total IS NULL OR quantity_claimed < quantity_total)", reward.ID).
		Update("quantity_claimed", gorm.Expr("quantity_claimed + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return precondition("Reward is sold out")
	}
	return nil
}

// holdInEscrow 按里程碑分配认筹金额并写托管记录
func holdInEscrow(tx *gorm.DB, backing *model.Backing, now time.Time) error {
	var milestones []model.Milestone
	if err := tx.Where("project_id = ?", backing.ProjectID).Order("order_index ASC").Find(&milestones).Error; err != nil {
		return err
	}

	for _, a := range allocate(milestones, backing.Amount) {
		escrow := model.EscrowTransaction{
			ProjectID:   backing.ProjectID,
			MilestoneID: a.MilestoneID,
			BackingID:   &backing.ID,
			Amount:      a.Amount,
			Currency:    backing.Currency,
			Status:      model.EscrowStatusHeld,
			HeldAt:      now,
		}
		if err := tx.Create(&escrow).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Milestone{}).Where("id = ?", a.MilestoneID).
			Update("current_amount", gorm.Expr("current_amount + ?", a.Amount)).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetProjectBackers 项目的支持者列表，只有创建者可以查看
func (b *BackingLogic) GetProjectBackers(ctx context.Context, actorID, projectID string) ([]model.Backing, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	project, err := loadProject(b.db.WithContext(ctx), projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != actorID {
		return nil, forbidden("You can only view backers of your own projects")
	}

	var backings []model.Backing
	if err := b.db.WithContext(ctx).
		Preload("Backer").Preload("Reward").
		Where("project_id = ?", projectID).
		Order("backed_at DESC").
		Find(&backings).Error; err != nil {
		return nil, storeError("Failed to load backers", err)
	}
	return backings, nil
}

// GetUserBackings 用户的认筹记录
func (b *BackingLogic) GetUserBackings(ctx context.Context, userID string) ([]model.Backing, error) {
	var backings []model.Backing
	if err := b.db.WithContext(ctx).
		Preload("Project").Preload("Reward").
		Where("backer_id = ?", userID).
		Order("backed_at DESC").
		Find(&backings).Error; err != nil {
		return nil, storeError("Failed to load backings", err)
	}
	return backings, nil
}
