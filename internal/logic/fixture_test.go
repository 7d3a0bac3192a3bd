package logic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chxdon9587/NextForD/internal/database"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory("logic_" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	u := model.User{Email: email, Username: email}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func makeAdmin(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserRole{UserID: userID, Role: model.RoleAdmin}).Error)
}

// seedProject 直接写库构造项目，goals 为各里程碑目标
func seedProject(t *testing.T, db *gorm.DB, creatorID string, status model.ProjectStatus, goals ...int64) (model.Project, []model.Milestone) {
	t.Helper()
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(decimal.NewFromInt(g))
	}
	project := model.Project{
		Slug:        "project-" + uuid.NewString()[:8],
		Title:       "Modular Desk Organizer",
		Description: "A printable modular desk organizer system with snap-fit drawers.",
		Category:    model.CategoryOrganization,
		FundingType: "milestone",
		GoalAmount:  total,
		Deadline:    time.Now().Add(30 * 24 * time.Hour),
		Status:      status,
		CreatorID:   creatorID,
	}
	require.NoError(t, db.Create(&project).Error)

	milestones := make([]model.Milestone, 0, len(goals))
	for i, g := range goals {
		m := model.Milestone{
			ProjectID:    project.ID,
			Title:        "Milestone",
			Description:  "Deliver the next batch of prototypes.",
			OrderIndex:   i + 1,
			GoalAmount:   decimal.NewFromInt(g),
			DeadlineDays: 30 + i*15,
			Status:       model.MilestoneStatusPending,
		}
		require.NoError(t, db.Create(&m).Error)
		milestones = append(milestones, m)
	}
	return project, milestones
}

func seedReward(t *testing.T, db *gorm.DB, projectID string, amount int64, limit *int) model.Reward {
	t.Helper()
	r := model.Reward{
		ProjectID:     projectID,
		Title:         "Early bird",
		Description:   "One printed organizer set.",
		Amount:        decimal.NewFromInt(amount),
		QuantityTotal: limit,
		ShippingType:  model.ShippingDomestic,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func setMilestoneStatus(t *testing.T, db *gorm.DB, id string, status model.MilestoneStatus) {
	t.Helper()
	require.NoError(t, db.Model(&model.Milestone{}).Where("id = ?", id).Update("status", status).Error)
}

func seedEscrow(t *testing.T, db *gorm.DB, projectID, milestoneID string, amount int64, status model.EscrowStatus) {
	t.Helper()
	e := model.EscrowTransaction{
		ProjectID:   projectID,
		MilestoneID: milestoneID,
		Amount:      decimal.NewFromInt(amount),
		Currency:    "USD",
		Status:      status,
		HeldAt:      time.Now(),
	}
	require.NoError(t, db.Create(&e).Error)
}

func reloadMilestone(t *testing.T, db *gorm.DB, id string) model.Milestone {
	t.Helper()
	var m model.Milestone
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	return m
}

func reloadProject(t *testing.T, db *gorm.DB, id string) model.Project {
	t.Helper()
	var p model.Project
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}

// memCache 记录失效调用的内存缓存
type memCache struct {
	mu          sync.Mutex
	pages       map[string]interface{}
	invalidated []string
	gets        int
}

func newMemCache() *memCache {
	return &memCache{pages: map[string]interface{}{}}
}

func (c *memCache) Get(_ context.Context, slug string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.pages[slug]
	if !ok {
		return false, nil
	}
	*(dst.(*ProjectDetail)) = *(v.(*ProjectDetail))
	return true, nil
}

func (c *memCache) Set(_ context.Context, slug string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[slug] = value
	return nil
}

func (c *memCache) Invalidate(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, slug)
	c.invalidated = append(c.invalidated, slug)
	return nil
}

func (c *memCache) invalidatedSlugs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}
