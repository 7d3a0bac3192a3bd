package logic

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/event"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/metrics"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/chxdon9587/NextForD/internal/storage"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db         *gorm.DB
	cache      cache.ProjectCache
	store      storage.ObjectStore
	milestones *MilestoneLogic
	now        func() time.Time
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB, c cache.ProjectCache, store storage.ObjectStore) *ProjectLogic {
	return &ProjectLogic{
		db:         db,
		cache:      c,
		store:      store,
		milestones: NewMilestoneLogic(db, c),
		now:        time.Now,
	}
}

// MilestoneInput 创建项目时的里程碑
type MilestoneInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
}

// RewardInput 创建项目时的回报档位
type RewardInput struct {
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Amount            decimal.Decimal    `json:"amount"`
	BackerLimit       *int               `json:"backer_limit"`
	ShippingType      model.ShippingType `json:"shipping_type"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery"`
}

// CreateProjectInput 创建项目请求
type CreateProjectInput struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    model.ProjectCategory `json:"category"`
	GoalAmount  decimal.Decimal       `json:"goal_amount"`
	Deadline    time.Time             `json:"deadline"`
	CoverImage  string                `json:"cover_image"`
	Milestones  []MilestoneInput      `json:"milestones"`
	Rewards     []RewardInput         `json:"rewards"`
}

var (
	minGoal      = decimal.NewFromInt(100)
	maxGoal      = decimal.NewFromInt(1000000)
	minMilestone = decimal.NewFromInt(100)
	minPledge    = decimal.NewFromInt(1)
	hundredPct   = decimal.NewFromInt(100)
)

func checkLength(value string, min, max int, field string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		return invalid(fmt.Sprintf("%s must be at least %d characters", field, min))
	}
	if n > max {
		return invalid(fmt.Sprintf("%s must be less than %d characters", field, max))
	}
	return nil
}

// validateProjectInput 校验项目、里程碑和回报
func validateProjectInput(in *CreateProjectInput, now time.Time) error {
	if err := checkLength(in.Title, 5, 100, "Title"); err != nil {
		return err
	}
	if err := checkLength(in.Description, 50, 5000, "Description"); err != nil {
		return err
	}
	if !in.Category.Valid() {
		return invalid("Invalid category")
	}
	if in.GoalAmount.LessThan(minGoal) {
		return invalid("Funding goal must be at least $100")
	}
	if in.GoalAmount.GreaterThan(maxGoal) {
		return invalid("Funding goal must be less than $1,000,000")
	}
	if err := checkMoney("Funding goal", in.GoalAmount); err != nil {
		return err
	}
	if !in.Deadline.After(now) {
		return invalid("Deadline must be in the future")
	}

	if len(in.Milestones) < 1 {
		return invalid("At least one milestone is required")
	}
	if len(in.Milestones) > 10 {
		return invalid("Maximum 10 milestones allowed")
	}
	sum := decimal.Zero
	for i, m := range in.Milestones {
		if err := checkLength(m.Title, 3, 100, fmt.Sprintf("Milestone %d title", i+1)); err != nil {
			return err
		}
		if err := checkLength(m.Description, 10, 500, fmt.Sprintf("Milestone %d description", i+1)); err != nil {
			return err
		}
		if m.GoalAmount.LessThan(minMilestone) {
			return invalid(fmt.Sprintf("Milestone %d funding target must be at least $100", i+1))
		}
		if err := checkMoney(fmt.Sprintf("Milestone %d funding target", i+1), m.GoalAmount); err != nil {
			return err
		}
		sum = sum.Add(m.GoalAmount)
	}
	if !sum.Equal(in.GoalAmount) {
		return invalid("Milestone funding targets must add up to the funding goal")
	}

	if len(in.Rewards) < 1 {
		return invalid("At least one reward is required")
	}
	if len(in.Rewards) > 20 {
		return invalid("Maximum 20 rewards allowed")
	}
	for i, r := range in.Rewards {
		if err := checkLength(r.Title, 3, 100, fmt.Sprintf("Reward %d title", i+1)); err != nil {
			return err
		}
		if err := checkLength(r.Description, 10, 1000, fmt.Sprintf("Reward %d description", i+1)); err != nil {
			return err
		}
		if r.Amount.LessThan(minPledge) {
			return invalid(fmt.Sprintf("Reward %d pledge amount must be at least $1", i+1))
		}
		if err := checkMoney(fmt.Sprintf("Reward %d pledge amount", i+1), r.Amount); err != nil {
			return err
		}
		if r.BackerLimit != nil && *r.BackerLimit < 1 {
			return invalid(fmt.Sprintf("Reward %d backer limit must be at least 1", i+1))
		}
		if !r.ShippingType.Valid() {
			return invalid(fmt.Sprintf("Reward %d has an invalid shipping type", i+1))
		}
	}
	return nil
}

// CreateProject 创建项目，publish 为 true 时直接提交审核
func (p *ProjectLogic) CreateProject(ctx context.Context, actorID string, in CreateProjectInput, publish bool) (*model.Project, error) {
	if actorID == "" {
		return nil, newError(KindUnauthenticated, "You must be logged in to create a project")
	}
	if err := validateProjectInput(&in, p.now()); err != nil {
		return nil, err
	}

	status := model.ProjectStatusDraft
	if publish {
		status = model.ProjectStatusPendingReview
	}

	project := model.Project{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		CoverImage:  in.CoverImage,
		FundingType: "milestone",
		GoalAmount:  in.GoalAmount,
		Deadline:    in.Deadline,
		Status:      status,
		CreatorID:   actorID,
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, Slugify(project.Title))
		if err != nil {
			return err
		}
		project.Slug = slug

		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		milestones := make([]model.Milestone, 0, len(in.Milestones))
		for i, m := range in.Milestones {
			milestones = append(milestones, model.Milestone{
				ProjectID:    project.ID,
				Title:        strings.TrimSpace(m.Title),
				Description:  strings.TrimSpace(m.Description),
				OrderIndex:   i + 1,
				GoalAmount:   m.GoalAmount,
				DeadlineDays: 30 + i*15,
				Status:       model.MilestoneStatusPending,
			})
		}
		if err := tx.Create(&milestones).Error; err != nil {
			return err
		}

		rewards := make([]model.Reward, 0, len(in.Rewards))
		for i, r := range in.Rewards {
			rewards = append(rewards, model.Reward{
				ProjectID:         project.ID,
				Title:             strings.TrimSpace(r.Title),
				Description:       strings.TrimSpace(r.Description),
				Amount:            r.Amount,
				OrderIndex:        i + 1,
				QuantityTotal:     r.BackerLimit,
				ShippingType:      r.ShippingType,
				EstimatedDelivery: r.EstimatedDelivery,
				IsActive:          true,
			})
		}
		if err := tx.Create(&rewards).Error; err != nil {
			return err
		}

		if err := assignRole(tx, actorID, model.RoleCreator); err != nil {
			return err
		}

		project.Milestones = milestones
		project.Rewards = rewards
		return event.Record(tx, event.AggregateProject, project.ID, event.ProjectCreated, map[string]interface{}{
			"slug":   project.Slug,
			"status": project.Status,
		})
	})
	if err != nil {
		return nil, wrapStore("Failed to create project", err)
	}

	logger.Info("Project %s (%s) created by %s with status %s", project.ID, project.Slug, actorID, project.Status)
	return &project, nil
}

// changeStatus 按当前状态条件更新，并发修改时失败
func (p *ProjectLogic) changeStatus(ctx context.Context, project *model.Project, to model.ProjectStatus,
	extra map[string]interface{}, eventType string) error {
	from := project.Status
	if !from.CanTransitionTo(to) {
		return precondition(fmt.Sprintf("Project cannot move from %s to %s", from, to))
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Project{}).Where("id = ? AND status = ?", project.ID, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return precondition("Project status has changed, please reload")
		}
		return event.Record(tx, event.AggregateProject, project.ID, eventType, map[string]interface{}{
			"from": from,
			"to":   to,
		})
	})
	if err != nil {
		return wrapStore("Failed to update project", err)
	}

	project.Status = to
	metrics.ProjectTransitions.WithLabelValues(string(to)).Inc()
	invalidatePage(ctx, p.cache, project.Slug)
	logger.Info("Project %s moved %s -> %s", project.ID, from, to)
	return nil
}

func (p *ProjectLogic) loadOwned(ctx context.Context, actorID, projectID string) (*model.Project, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	project, err := loadProject(p.db.WithContext(ctx), projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != actorID {
		return nil, forbidden("You can only manage your own projects")
	}
	return project, nil
}

// SubmitProject 草稿提交审核
func (p *ProjectLogic) SubmitProject(ctx context.Context, actorID, projectID string) (*model.Project, error) {
	project, err := p.loadOwned(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusDraft {
		return nil, precondition("Only draft projects can be submitted for review")
	}
	if err := p.changeStatus(ctx, project, model.ProjectStatusPendingReview, nil, event.ProjectSubmitted); err != nil {
		return nil, err
	}
	return project, nil
}

// ReviewProject 管理员审核，通过进入 approved，驳回回到草稿
func (p *ProjectLogic) ReviewProject(ctx context.Context, actorID, projectID string, approve bool) (*model.Project, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	admin, err := hasRole(p.db.WithContext(ctx), actorID, model.RoleAdmin)
	if err != nil {
		return nil, storeError("Failed to load roles", err)
	}
	if !admin {
		return nil, forbidden("Only admins can review projects")
	}

	project, err := loadProject(p.db.WithContext(ctx), projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusPendingReview {
		return nil, precondition("Project is not pending review")
	}

	to, eventType := model.ProjectStatusApproved, event.ProjectApproved
	if !approve {
		to, eventType = model.ProjectStatusDraft, event.ProjectRejected
	}
	if err := p.changeStatus(ctx, project, to, nil, eventType); err != nil {
		return nil, err
	}
	return project, nil
}

// LaunchProject 审核通过的项目开始众筹
func (p *ProjectLogic) LaunchProject(ctx context.Context, actorID, projectID string) (*model.Project, error) {
	project, err := p.loadOwned(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusApproved {
		return nil, precondition("Only approved projects can be launched")
	}
	now := p.now()
	if !project.Deadline.After(now) {
		return nil, precondition("Deadline must be in the future")
	}
	if err := p.changeStatus(ctx, project, model.ProjectStatusLive,
		map[string]interface{}{"launch_date": now}, event.ProjectLaunched); err != nil {
		return nil, err
	}
	project.LaunchDate = &now
	return project, nil
}

// CancelProject 创建者取消未结束的项目
func (p *ProjectLogic) CancelProject(ctx context.Context, actorID, projectID string) (*model.Project, error) {
	project, err := p.loadOwned(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status.IsTerminal() {
		return nil, precondition("Project has already ended")
	}
	if err := p.changeStatus(ctx, project, model.ProjectStatusCancelled, nil, event.ProjectCancelled); err != nil {
		return nil, err
	}
	return project, nil
}

// ProjectDetail 项目详情页数据
type ProjectDetail struct {
	Project *model.Project `json:"project"`
	Escrow  *EscrowSummary `json:"escrow"`
}

// GetProjectDetail 按 slug 获取项目详情，优先读缓存
func (p *ProjectLogic) GetProjectDetail(ctx context.Context, slug string) (*ProjectDetail, error) {
	var detail ProjectDetail
	if p.cache != nil {
		hit, err := p.cache.Get(ctx, slug, &detail)
		if err != nil {
			logger.Warn("Failed to read project page cache %s: %v", slug, err)
		}
		if hit {
			return &detail, nil
		}
	}

	var project model.Project
	err := p.db.WithContext(ctx).
		Preload("Creator").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Preload("Rewards", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		First(&project, "slug = ?", slug).Error
	if err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound, "Failed to load project")
	}

	escrow, err := p.milestones.GetEscrowSummary(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	detail = ProjectDetail{Project: &project, Escrow: escrow}
	if p.cache != nil {
		if err := p.cache.Set(ctx, slug, &detail); err != nil {
			logger.Warn("Failed to write project page cache %s: %v", slug, err)
		}
	}
	return &detail, nil
}

// ListProjectsQuery 项目列表筛选，Status 为空时只列出众筹中的项目
type ListProjectsQuery struct {
	Status    model.ProjectStatus
	Category  model.ProjectCategory
	CreatorID string
	Page      int
	PageSize  int
}

// ListProjects 获取项目列表
func (p *ProjectLogic) ListProjects(ctx context.Context, q ListProjectsQuery) ([]model.Project, int64, error) {
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)

	query := p.db.WithContext(ctx).Model(&model.Project{})
	switch {
	case q.Status != "":
		query = query.Where("status = ?", q.Status)
	case q.CreatorID == "":
		query = query.Where("status = ?", model.ProjectStatusLive)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.CreatorID != "" {
		query = query.Where("creator_id = ?", q.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("Failed to load projects", err)
	}

	var projects []model.Project
	if err := query.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&projects).Error; err != nil {
		return nil, 0, storeError("Failed to load projects", err)
	}
	return projects, total, nil
}

// ProjectStats 项目统计
type ProjectStats struct {
	ProjectID           string              `json:"project_id"`
	Status              model.ProjectStatus `json:"status"`
	GoalAmount          decimal.Decimal     `json:"goal_amount"`
	CurrentAmount       decimal.Decimal     `json:"current_amount"`
	Percentage          float64             `json:"percentage"`
	BackerCount         int64               `json:"backer_count"`
	LikeCount           int64               `json:"like_count"`
	MilestonesTotal     int64               `json:"milestones_total"`
	MilestonesCompleted int64               `json:"milestones_completed"`
	DaysLeft            int                 `json:"days_left"`
}

// GetProjectStats 获取项目统计信息
func (p *ProjectLogic) GetProjectStats(ctx context.Context, projectID string) (*ProjectStats, error) {
	db := p.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}

	stats := &ProjectStats{
		ProjectID:     project.ID,
		Status:        project.Status,
		GoalAmount:    project.GoalAmount,
		CurrentAmount: project.CurrentAmount,
		BackerCount:   project.BackerCount,
		LikeCount:     project.LikeCount,
	}
	if project.GoalAmount.IsPositive() {
		stats.Percentage = project.CurrentAmount.Div(project.GoalAmount).Mul(hundredPct).Round(2).InexactFloat64()
	}
	if left := project.Deadline.Sub(p.now()); left > 0 {
		stats.DaysLeft = int((left + 24*time.Hour - 1) / (24 * time.Hour))
	}

	if err := db.Model(&model.Milestone{}).Where("project_id = ?", projectID).
		Count(&stats.MilestonesTotal).Error; err != nil {
		return nil, storeError("Failed to load project stats", err)
	}
	if err := db.Model(&model.Milestone{}).
		Where("project_id = ? AND status IN ?", projectID,
			model.DoneMilestoneStatuses()).
		Count(&stats.MilestonesCompleted).Error; err != nil {
		return nil, storeError("Failed to load project stats", err)
	}
	return stats, nil
}

// FinishExpiredProjects 结算已到截止时间的众筹，达标为 successful 否则 failed
func (p *ProjectLogic) FinishExpiredProjects(ctx context.Context, now time.Time) (int, error) {
	var projects []model.Project
	if err := p.db.WithContext(ctx).
		Where("status = ? AND deadline <= ?", model.ProjectStatusLive, now).
		Find(&projects).Error; err != nil {
		return 0, storeError("Failed to load expired projects", err)
	}

	finished := 0
	for i := range projects {
		if err := ctx.Err(); err != nil {
			return finished, err
		}
		project := &projects[i]
		to := model.ProjectStatusFailed
		if project.CurrentAmount.GreaterThanOrEqual(project.GoalAmount) {
			to = model.ProjectStatusSuccessful
		}
		if err := p.changeStatus(ctx, project, to, nil, event.ProjectFinished); err != nil {
			logger.Error("Failed to finish project %s: %v", project.ID, err)
			continue
		}
		logger.Info("Project %s finished as %s: %s/%s", project.ID, to, project.CurrentAmount, project.GoalAmount)
		finished++
	}
	return finished, nil
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// UploadProjectImage 上传项目图片，返回公开地址
func (p *ProjectLogic) UploadProjectImage(ctx context.Context, actorID, filename string, r io.Reader) (string, error) {
	if actorID == "" {
		return "", newError(KindUnauthenticated, "You must be logged in to upload images")
	}
	if r == nil || filename == "" {
		return "", invalid("No file provided")
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !imageExtensions[ext] {
		return "", invalid("Unsupported image type")
	}

	objectPath := fmt.Sprintf("project-images/%s-%d.%s", actorID, p.now().UnixMilli(), ext)
	url, err := p.store.Put(ctx, objectPath, r)
	if err != nil {
		return "", storeError("Failed to upload image", err)
	}
	return url, nil
}
