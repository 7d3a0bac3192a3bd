package model

// Like 用户点赞项目
type Like struct {
	Base

	UserID    string `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_like_user_project"`
	ProjectID string `json:"project_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_like_user_project;index"`
}

// Follow 用户关注用户
type Follow struct {
	Base

	FollowerID  string `json:"follower_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair"`
	FollowingID string `json:"following_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index"`
}
