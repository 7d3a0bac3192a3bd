package model

import "gorm.io/gorm"

// Comment 项目评论，ParentID 指向被回复的评论
type Comment struct {
	Base
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	ProjectID      string  `json:"project_id" gorm:"type:varchar(36);not null;index"`
	UserID         string  `json:"user_id" gorm:"type:varchar(36);not null;index"`
	ParentID       *string `json:"parent_id" gorm:"type:varchar(36);index"`
	Content        string  `json:"content" gorm:"type:text;not null"`
	IsEdited       bool    `json:"is_edited" gorm:"not null;default:false"`
	IsCreatorReply bool    `json:"is_creator_reply" gorm:"not null;default:false"`

	User    *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Project *Project  `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Replies []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}
