package model

// User 平台用户
type User struct {
	Base

	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio" gorm:"type:text"`
}

// Role 用户角色
type Role string

const (
	RoleBacker  Role = "backer"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// Valid 检查角色是否合法
func (r Role) Valid() bool {
	switch r {
	case RoleBacker, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

// UserRole 用户与角色的关联
type UserRole struct {
	Base

	UserID string `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_user_role"`
	Role   Role   `json:"role" gorm:"type:varchar(16);not null;uniqueIndex:idx_user_role"`
}
