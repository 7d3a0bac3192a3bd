package logic

import (
	"context"
	"errors"

	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/model"
	"gorm.io/gorm"
)

// SocialLogic 点赞和关注
type SocialLogic struct {
	db    *gorm.DB
	cache cache.ProjectCache
}

// NewSocialLogic 创建点赞关注业务逻辑
func NewSocialLogic(db *gorm.DB, c cache.ProjectCache) *SocialLogic {
	return &SocialLogic{db: db, cache: c}
}

// ToggleLike 点赞或取消点赞，计数和关联行在同一个事务里更新
func (s *SocialLogic) ToggleLike(ctx context.Context, actorID, projectID string) (bool, error) {
	if actorID == "" {
		return false, ErrNotAuthenticated
	}

	var (
		liked bool
		slug  string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}
		slug = project.Slug

		res := tx.Where("user_id = ? AND project_id = ?", actorID, projectID).Delete(&model.Like{})
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&model.Like{UserID: actorID, ProjectID: projectID}).Error; err != nil {
				return err
			}
			delta = 1
			liked = true
		}

		return tx.Model(&model.Project{}).Where("id = ?", projectID).
			Update("like_count", gorm.Expr("CASE WHEN like_count + ? < 0 THEN 0 ELSE like_count + ? END", delta, delta)).Error
	})
	if err != nil {
		return false, wrapStore("Failed to toggle like", err)
	}

	invalidatePage(ctx, s.cache, slug)
	return liked, nil
}

// IsLiked 当前用户是否点赞了项目
func (s *SocialLogic) IsLiked(ctx context.Context, actorID, projectID string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND project_id = ?", actorID, projectID).Count(&count).Error; err != nil {
		return false, storeError("Failed to load like", err)
	}
	return count > 0, nil
}

// GetProjectLikes 项目点赞数
func (s *SocialLogic) GetProjectLikes(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Like{}).
		Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return 0, storeError("Failed to load likes", err)
	}
	return count, nil
}

// ToggleFollow 关注或取消关注用户
func (s *SocialLogic) ToggleFollow(ctx context.Context, actorID, userID string) (bool, error) {
	if actorID == "" {
		return false, ErrNotAuthenticated
	}
	if actorID == userID {
		return false, invalid("Cannot follow yourself")
	}

	var following bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.User
		if err := tx.Select("id").First(&target, "id = ?", userID).Error; err != nil {
			return notFoundOr(err, ErrUserNotFound, "Failed to load user")
		}

		res := tx.Where("follower_id = ? AND following_id = ?", actorID, userID).Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		following = true
		return tx.Create(&model.Follow{FollowerID: actorID, FollowingID: userID}).Error
	})
	if err != nil {
		return false, wrapStore("Failed to toggle follow", err)
	}
	return following, nil
}

// IsFollowing 当前用户是否关注了对方
func (s *SocialLogic) IsFollowing(ctx context.Context, actorID, userID string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	var follow model.Follow
	err := s.db.WithContext(ctx).Where("follower_id = ? AND following_id = ?", actorID, userID).First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeError("Failed to load follow", err)
	}
	return true, nil
}

// GetFollowerCount 粉丝数
func (s *SocialLogic) GetFollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Follow{}).Where("following_id = ?", userID).Count(&count).Error; err != nil {
		return 0, storeError("Failed to load followers", err)
	}
	return count, nil
}

// GetFollowingCount 关注数
func (s *SocialLogic) GetFollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
		return 0, storeError("Failed to load following", err)
	}
	return count, nil
}
