package task

import (
	"context"
	"time"

	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// ProjectFinisher 到期项目结算
type ProjectFinisher interface {
	FinishExpiredProjects(ctx context.Context, now time.Time) (int, error)
}

// ProjectFinishJob 项目完成任务
type ProjectFinishJob struct {
	projects ProjectFinisher
	interval time.Duration
	now      func() time.Time
}

// NewProjectFinishJob 创建项目完成任务，interval 单位为秒
func NewProjectFinishJob(projects ProjectFinisher, interval int) *ProjectFinishJob {
	if interval <= 0 {
		interval = 60
	}
	return &ProjectFinishJob{
		projects: projects,
		interval: time.Duration(interval) * time.Second,
		now:      time.Now,
	}
}

// GetName 获取任务名称
func (j *ProjectFinishJob) GetName() string {
	return "project_finish_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 截止时间已到的众筹按是否达标结算
func (j *ProjectFinishJob) Execute(ctx context.Context) {
	logger.Info("Starting project finish task")

	finished, err := j.projects.FinishExpiredProjects(ctx, j.now())
	if err != nil {
		logger.Error("Project finish task stopped after %d projects: %v", finished, err)
		return
	}

	logger.Info("Project finish task completed. Finished %d projects", finished)
}
