package logic

import (
	"context"
	"strings"

	"github.com/chxdon9587/NextForD/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserLogic 用户
type UserLogic struct {
	db *gorm.DB
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB) *UserLogic {
	return &UserLogic{db: db}
}

// EnsureUser 按邮箱取用户，不存在时注册并赋予 backer 角色
func (u *UserLogic) EnsureUser(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("Email is required")
	}

	var user model.User
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := model.User{Email: email, Username: strings.SplitN(email, "@", 2)[0]}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&candidate).Error; err != nil {
			return err
		}
		if err := tx.First(&user, "email = ?", email).Error; err != nil {
			return err
		}
		return assignRole(tx, user.ID, model.RoleBacker)
	})
	if err != nil {
		return nil, wrapStore("Failed to sign in", err)
	}
	return &user, nil
}

// GetUser 按 ID 获取用户
func (u *UserLogic) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "Failed to load user")
	}
	return &user, nil
}

// UpdateProfileInput 可修改的资料字段
type UpdateProfileInput struct {
	Username  *string `json:"username"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}

// UpdateProfile 修改自己的资料
func (u *UserLogic) UpdateProfile(ctx context.Context, actorID string, in UpdateProfileInput) (*model.User, error) {
	if actorID == "" {
		return nil, ErrNotAuthenticated
	}
	updates := make(map[string]interface{})
	if in.Username != nil {
		updates["username"] = strings.TrimSpace(*in.Username)
	}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if len(updates) > 0 {
		res := u.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", actorID).Updates(updates)
		if res.Error != nil {
			return nil, storeError("Failed to update profile", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return u.GetUser(ctx, actorID)
}
