package logic

import (
	"context"

	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxMoney 金额列是 numeric(12,2)
var maxMoney = decimal.RequireFromString("9999999999.99")

// checkMoney 金额必须为正，最多两位小数，且不超过列宽
func checkMoney(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return invalid(field + " must be greater than 0")
	}
	if !d.Round(2).Equal(d) {
		return invalid(field + " must have at most 2 decimal places")
	}
	if d.GreaterThan(maxMoney) {
		return invalid(field + " is too large")
	}
	return nil
}

// invalidatePage 删除项目详情页缓存，失败只记日志
func invalidatePage(ctx context.Context, c cache.ProjectCache, slug string) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, slug); err != nil {
		logger.Warn("Failed to invalidate project page %s: %v", slug, err)
	}
}

func loadProject(db *gorm.DB, projectID string) (*model.Project, error) {
	var project model.Project
	if err := db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound, "Failed to load project")
	}
	return &project, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
