package logic

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/chxdon9587/NextForD/internal/model"
	"gorm.io/gorm"
)

const maxCommentLength = 2000

// CommentLogic 项目评论
type CommentLogic struct {
	db *gorm.DB
}

// NewCommentLogic 创建评论业务逻辑
func NewCommentLogic(db *gorm.DB) *CommentLogic {
	return &CommentLogic{db: db}
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", invalid("Comment is too long (max 2000 characters)")
	}
	return content, nil
}

// CreateComment 发表评论或回复
func (c *CommentLogic) CreateComment(ctx context.Context, actorID, projectID, content string, parentID *string) (*model.Comment, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}

	db := c.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		var parent model.Comment
		if err := db.Select("id", "project_id").First(&parent, "id = ?", *parentID).Error; err != nil {
			return nil, notFoundOr(err, ErrCommentNotFound, "Failed to load comment")
		}
		if parent.ProjectID != projectID {
			return nil, invalid("Reply must belong to the same project")
		}
	}

	comment := model.Comment{
		ProjectID:      projectID,
		UserID:         actorID,
		ParentID:       parentID,
		Content:        content,
		IsCreatorReply: project.CreatorID == actorID,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, storeError("Failed to create comment", err)
	}
	if err := db.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, storeError("Failed to create comment", err)
	}
	return &comment, nil
}

// loadOwned 读取评论并校验作者
func (c *CommentLogic) loadOwned(ctx context.Context, actorID, commentID, denied string) (*model.Comment, error) {
	var comment model.Comment
	if err := c.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		return nil, notFoundOr(err, ErrCommentNotFound, "Failed to load comment")
	}
	if comment.UserID != actorID {
		return nil, forbidden(denied)
	}
	return &comment, nil
}

// UpdateComment 修改自己的评论
func (c *CommentLogic) UpdateComment(ctx context.Context, actorID, commentID, content string) (*model.Comment, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}
	comment, err := c.loadOwned(ctx, actorID, commentID, "You can only edit your own comments")
	if err != nil {
		return nil, err
	}

	res := c.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND user_id = ?", comment.ID, actorID).
		Updates(map[string]interface{}{"content": content, "is_edited": true})
	if res.Error != nil {
		return nil, storeError("Failed to update comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrCommentNotFound
	}
	comment.Content = content
	comment.IsEdited = true
	return comment, nil
}

// DeleteComment 删除自己的评论（软删除）
func (c *CommentLogic) DeleteComment(ctx context.Context, actorID, commentID string) error {
	if actorID == "" {
		return ErrNotAuthenticated
	}
	comment, err := c.loadOwned(ctx, actorID, commentID, "You can only delete your own comments")
	if err != nil {
		return err
	}
	// 回复随父评论一起删除，计数里不会留下看不到的回复
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []string{comment.ID}
		for level := ids; len(level) > 0; {
			var children []string
			if err := tx.Model(&model.Comment{}).Where("parent_id IN ?", level).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			level = children
		}
		return tx.Where("id IN ?", ids).Delete(&model.Comment{}).Error
	})
	if err != nil {
		return storeError("Failed to delete comment", err)
	}
	return nil
}

// GetComments 顶层评论，传 parentID 时返回该评论的回复，最新的在前
func (c *CommentLogic) GetComments(ctx context.Context, projectID string, parentID *string) ([]model.Comment, error) {
	query := c.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Replies.User").
		Where("project_id = ?", projectID)
	if parentID != nil && *parentID != "" {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var comments []model.Comment
	if err := query.Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, storeError("Failed to load comments", err)
	}
	return comments, nil
}

// GetCommentCount 项目评论数，不含已删除
func (c *CommentLogic) GetCommentCount(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&model.Comment{}).
		Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return 0, storeError("Failed to load comment count", err)
	}
	return count, nil
}
