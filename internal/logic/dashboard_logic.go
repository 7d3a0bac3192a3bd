package logic

import (
	"context"
	"sort"
	"time"

	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	activityFetchLimit = 10
	activityMaxItems   = 20
)

// DashboardLogic 创建者和支持者面板
type DashboardLogic struct {
	db *gorm.DB
}

// NewDashboardLogic 创建面板业务逻辑
func NewDashboardLogic(db *gorm.DB) *DashboardLogic {
	return &DashboardLogic{db: db}
}

// CreatorStats 创建者统计
type CreatorStats struct {
	TotalProjects       int64           `json:"total_projects"`
	LiveProjects        int64           `json:"live_projects"`
	TotalFunding        decimal.Decimal `json:"total_funding"`
	TotalBackers        int64           `json:"total_backers"`
	CompletedMilestones int64           `json:"completed_milestones"`
	AverageFunding      decimal.Decimal `json:"average_funding"`
}

// CreatorAnalytics 创建者统计，互不依赖的查询并发执行
func (d *DashboardLogic) CreatorAnalytics(ctx context.Context, userID string) (*CreatorStats, error) {
	stats := &CreatorStats{TotalFunding: decimal.Zero, AverageFunding: decimal.Zero}
	funded := []model.ProjectStatus{model.ProjectStatusLive, model.ProjectStatusSuccessful}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.db.WithContext(gctx).Model(&model.Project{}).
			Where("creator_id = ?", userID).Count(&stats.TotalProjects).Error
	})
	g.Go(func() error {
		return d.db.WithContext(gctx).Model(&model.Project{}).
			Where("creator_id = ? AND status = ?", userID, model.ProjectStatusLive).Count(&stats.LiveProjects).Error
	})
	g.Go(func() error {
		var amounts []decimal.Decimal
		if err := d.db.WithContext(gctx).Model(&model.Project{}).
			Where("creator_id = ? AND status IN ?", userID, funded).
			Pluck("current_amount", &amounts).Error; err != nil {
			return err
		}
		total := decimal.Zero
		for _, a := range amounts {
			total = total.Add(a)
		}
		stats.TotalFunding = total
		return nil
	})
	g.Go(func() error {
		return d.db.WithContext(gctx).Model(&model.Backing{}).
			Where("project_id IN (?)", d.db.Model(&model.Project{}).Select("id").
				Where("creator_id = ? AND status IN ?", userID, funded)).
			Count(&stats.TotalBackers).Error
	})
	g.Go(func() error {
		return d.db.WithContext(gctx).Model(&model.Milestone{}).
			Where("status IN ?", model.DoneMilestoneStatuses()).
			Where("project_id IN (?)", d.db.Model(&model.Project{}).Select("id").Where("creator_id = ?", userID)).
			Count(&stats.CompletedMilestones).Error
	})
	if err := g.Wait(); err != nil {
		return nil, storeError("Failed to load creator analytics", err)
	}

	if stats.TotalProjects > 0 {
		stats.AverageFunding = stats.TotalFunding.Div(decimal.NewFromInt(stats.TotalProjects)).Round(2)
	}
	return stats, nil
}

// Activity 支持者动态
type Activity struct {
	Type        string          `json:"type"` // backing, comment
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	ProjectSlug string          `json:"project_slug"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount,omitempty"`
	Content     string          `json:"content,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// BackerActivity 最近的认筹和评论合并排序
func (d *DashboardLogic) BackerActivity(ctx context.Context, userID string) ([]Activity, error) {
	var (
		backings []model.Backing
		comments []model.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.db.WithContext(gctx).Preload("Project").
			Where("backer_id = ?", userID).
			Order("backed_at DESC").Limit(activityFetchLimit).
			Find(&backings).Error
	})
	g.Go(func() error {
		return d.db.WithContext(gctx).Preload("Project").
			Where("user_id = ?", userID).
			Order("created_at DESC").Limit(activityFetchLimit).
			Find(&comments).Error
	})
	if err := g.Wait(); err != nil {
		return nil, storeError("Failed to load activity", err)
	}

	activities := make([]Activity, 0, len(backings)+len(comments))
	for _, b := range backings {
		a := Activity{Type: "backing", ID: b.ID, ProjectID: b.ProjectID, Amount: b.Amount, OccurredAt: b.BackedAt}
		if b.Project != nil {
			a.ProjectSlug, a.Title = b.Project.Slug, b.Project.Title
		}
		activities = append(activities, a)
	}
	for _, c := range comments {
		a := Activity{Type: "comment", ID: c.ID, ProjectID: c.ProjectID, Content: c.Content, OccurredAt: c.CreatedAt}
		if c.Project != nil {
			a.ProjectSlug, a.Title = c.Project.Slug, c.Project.Title
		}
		activities = append(activities, a)
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].OccurredAt.After(activities[j].OccurredAt)
	})
	if len(activities) > activityMaxItems {
		activities = activities[:activityMaxItems]
	}
	return activities, nil
}
