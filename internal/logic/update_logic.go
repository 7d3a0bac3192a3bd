package logic

import (
	"context"
	"strings"

	"github.com/chxdon9587/NextForD/internal/model"
	"gorm.io/gorm"
)

// UpdateLogic 项目动态
type UpdateLogic struct {
	db *gorm.DB
}

// NewUpdateLogic 创建项目动态业务逻辑
func NewUpdateLogic(db *gorm.DB) *UpdateLogic {
	return &UpdateLogic{db: db}
}

// CreateUpdateInput 发布动态请求
type CreateUpdateInput struct {
	ProjectID  string                 `json:"project_id"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Visibility model.UpdateVisibility `json:"visibility"`
	Images     []string               `json:"images"`
}

// CreatePostUpdate 创建者发布项目动态
func (u *UpdateLogic) CreatePostUpdate(ctx context.Context, actorID string, in CreateUpdateInput) (*model.ProjectUpdate, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	project, err := loadProject(u.db.WithContext(ctx), in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != actorID {
		return nil, forbidden("You can only post updates to your own projects")
	}

	if in.Visibility == "" {
		in.Visibility = model.VisibilityPublic
	}
	if !in.Visibility.Valid() {
		return nil, invalid("Invalid visibility")
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, invalid("Title and content are required")
	}

	update := model.ProjectUpdate{
		ProjectID:  project.ID,
		Title:      title,
		Content:    content,
		Visibility: in.Visibility,
		Images:     model.StringList(in.Images),
	}
	if err := u.db.WithContext(ctx).Create(&update).Error; err != nil {
		return nil, storeError("Failed to create update", err)
	}
	return &update, nil
}

// GetProjectUpdates 项目动态，仅创建者和已确认的支持者能看到 backers_only
func (u *UpdateLogic) GetProjectUpdates(ctx context.Context, actorID, projectID string) ([]model.ProjectUpdate, error) {
	db := u.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}

	insider := false
	if actorID != "" {
		if project.CreatorID == actorID {
			insider = true
		} else {
			var count int64
			if err := db.Model(&model.Backing{}).
				Where("project_id = ? AND backer_id = ? AND status = ?", projectID, actorID, model.BackingStatusConfirmed).
				Count(&count).Error; err != nil {
				return nil, storeError("Failed to load updates", err)
			}
			insider = count > 0
		}
	}

	query := db.Where("project_id = ?", projectID)
	if !insider {
		query = query.Where("visibility = ?", model.VisibilityPublic)
	}
	var updates []model.ProjectUpdate
	if err := query.Order("created_at DESC").Find(&updates).Error; err != nil {
		return nil, storeError("Failed to load updates", err)
	}
	return updates, nil
}
