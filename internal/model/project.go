package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project 众筹项目
type Project struct {
	Base

	// 基本信息
	Slug        string          `json:"slug" gorm:"uniqueIndex;not null"`
	Title       string          `json:"title" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    ProjectCategory `json:"category" gorm:"type:varchar(32);not null"`
	CoverImage  string          `json:"cover_image"`
	FundingType string          `json:"funding_type" gorm:"type:varchar(32);default:'milestone'"`

	// 众筹信息
	GoalAmount    decimal.Decimal `json:"goal_amount" gorm:"type:numeric(12,2);not null"`
	CurrentAmount decimal.Decimal `json:"current_amount" gorm:"type:numeric(12,2);not null;default:0"`
	BackerCount   int64           `json:"backer_count" gorm:"not null;default:0"`
	LikeCount     int64           `json:"like_count" gorm:"not null;default:0"`

	// 时间信息
	Deadline   time.Time  `json:"deadline" gorm:"not null"`
	LaunchDate *time.Time `json:"launch_date"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"type:varchar(32);not null;index;default:'draft'"`

	// 创建者信息
	CreatorID string `json:"creator_id" gorm:"type:varchar(36);not null;index"`

	// 关联
	Creator    *User       `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Milestones []Milestone `json:"milestones,omitempty" gorm:"foreignKey:ProjectID"`
	Rewards    []Reward    `json:"rewards,omitempty" gorm:"foreignKey:ProjectID"`
}

// ProjectCategory 项目分类
type ProjectCategory string

const (
	CategoryMiniatures   ProjectCategory = "miniatures"
	CategoryAccessories  ProjectCategory = "accessories"
	CategoryOrganization ProjectCategory = "organization"
	CategoryTools        ProjectCategory = "tools"
	CategoryArt          ProjectCategory = "art"
	CategoryFunctional   ProjectCategory = "functional"
	CategoryOther        ProjectCategory = "other"
)

// Valid 检查分类是否合法
func (c ProjectCategory) Valid() bool {
	switch c {
	case CategoryMiniatures, CategoryAccessories, CategoryOrganization, CategoryTools,
		CategoryArt, CategoryFunctional, CategoryOther:
		return true
	}
	return false
}
