package handler

import (
	"net/http"
	"strconv"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectLogic   *logic.ProjectLogic
	maxUploadBytes int64
}

func NewProjectHandler(projects *logic.ProjectLogic, maxUploadMB int64) *ProjectHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	return &ProjectHandler{
		projectLogic:   projects,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// CreateProject 创建项目，publish=true 时直接提交审核
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var in logic.CreateProjectInput
	if !bindJSON(c, &in) {
		return
	}
	publish, _ := strconv.ParseBool(c.DefaultQuery("publish", "false"))

	project, err := h.projectLogic.CreateProject(c.Request.Context(), auth.UserID(c), in, publish)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Project created", project)
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	q := logic.ListProjectsQuery{
		Status:    model.ProjectStatus(c.Query("status")),
		Category:  model.ProjectCategory(c.Query("category")),
		CreatorID: c.Query("creator"),
		Page:      page,
		PageSize:  pageSize,
	}
	projects, total, err := h.projectLogic.ListProjects(c.Request.Context(), q)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", ProjectListResponse{
		Projects:   projects,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetProject 按 slug 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	detail, err := h.projectLogic.GetProjectDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", detail)
}

// GetProjectStats 获取项目统计信息
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	stats, err := h.projectLogic.GetProjectStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", stats)
}

func (h *ProjectHandler) SubmitProject(c *gin.Context) {
	project, err := h.projectLogic.SubmitProject(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Project submitted for review", project)
}

// ReviewProject 管理员审核
func (h *ProjectHandler) ReviewProject(c *gin.Context) {
	var req ReviewProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.projectLogic.ReviewProject(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Approve)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Project reviewed", project)
}

func (h *ProjectHandler) LaunchProject(c *gin.Context) {
	project, err := h.projectLogic.LaunchProject(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Project launched", project)
}

// CancelProject 取消项目
func (h *ProjectHandler) CancelProject(c *gin.Context) {
	project, err := h.projectLogic.CancelProject(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Project cancelled", project)
}

// UploadImage 上传项目图片，表单字段 file
func (h *ProjectHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "No file provided")
		return
	}
	if fh.Size > h.maxUploadBytes {
		ErrorResponse(c, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	url, err := h.projectLogic.UploadProjectImage(c.Request.Context(), auth.UserID(c), fh.Filename, f)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Image uploaded", UploadResponse{URL: url})
}
