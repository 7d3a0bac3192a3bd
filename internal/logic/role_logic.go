package logic

import (
	"context"

	"github.com/chxdon9587/NextForD/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleLogic 用户角色
type RoleLogic struct {
	db *gorm.DB
}

// NewRoleLogic 创建角色业务逻辑
func NewRoleLogic(db *gorm.DB) *RoleLogic {
	return &RoleLogic{db: db}
}

func hasRole(db *gorm.DB, userID string, role model.Role) (bool, error) {
	var count int64
	err := db.Model(&model.UserRole{}).Where("user_id = ? AND role = ?", userID, role).Count(&count).Error
	return count > 0, err
}

// assignRole 已有该角色时什么都不做
func assignRole(db *gorm.DB, userID string, role model.Role) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
		DoNothing: true,
	}).Create(&model.UserRole{UserID: userID, Role: role}).Error
}

// GetUserRoles 用户的全部角色
func (r *RoleLogic) GetUserRoles(ctx context.Context, userID string) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ?", userID).Order("role ASC").
		Pluck("role", &roles).Error; err != nil {
		return nil, storeError("Failed to load roles", err)
	}
	return roles, nil
}

// HasRole 用户是否有某个角色
func (r *RoleLogic) HasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	ok, err := hasRole(r.db.WithContext(ctx), userID, role)
	if err != nil {
		return false, storeError("Failed to load roles", err)
	}
	return ok, nil
}

// requireAdmin 只有管理员可以修改角色
func (r *RoleLogic) requireAdmin(ctx context.Context, actorID string) error {
	if actorID == "" {
		return ErrNotAuthenticated
	}
	ok, err := r.HasRole(ctx, actorID, model.RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("Only admins can manage roles")
	}
	return nil
}

// AssignRole 给用户分配角色，重复分配不报错
func (r *RoleLogic) AssignRole(ctx context.Context, actorID, userID string, role model.Role) error {
	if err := r.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if !role.Valid() {
		return invalid("Invalid role")
	}
	if err := assignRole(r.db.WithContext(ctx), userID, role); err != nil {
		return storeError("Failed to assign role", err)
	}
	return nil
}

// RemoveRole 移除用户角色
func (r *RoleLogic) RemoveRole(ctx context.Context, actorID, userID string, role model.Role) error {
	if err := r.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&model.UserRole{}).Error; err != nil {
		return storeError("Failed to remove role", err)
	}
	return nil
}
