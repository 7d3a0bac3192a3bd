package handler

import (
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/shopspring/decimal"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// NewPagination 计算总页数
func NewPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 请求模型

type RequestCodeRequest struct {
	Email string `json:"email" binding:"required"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type ReviewProjectRequest struct {
	Approve bool `json:"approve"`
}

type MilestoneProofRequest struct {
	Proof string `json:"proof"`
}

type CreateBackingRequest struct {
	RewardID *string         `json:"reward_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type CommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

type RoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// 响应模型

// ProjectListResponse 项目列表
type ProjectListResponse struct {
	Projects   []model.Project `json:"projects"`
	Pagination Pagination      `json:"pagination"`
}

// LoginResponse 登录成功返回令牌和用户
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// LikeResponse 点赞状态
type LikeResponse struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// FollowResponse 关注状态
type FollowResponse struct {
	Following bool  `json:"following"`
	Followers int64 `json:"followers"`
	Followees int64 `json:"followees"`
}

// UploadResponse 上传结果
type UploadResponse struct {
	URL string `json:"url"`
}
