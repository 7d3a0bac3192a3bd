package task

import (
	"context"
	"time"

	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// EventDispatcher 投递待发送的事件
type EventDispatcher interface {
	DispatchPending(ctx context.Context) (int, int, error)
}

// EventDispatchJob 事件投递任务
type EventDispatchJob struct {
	dispatcher EventDispatcher
	interval   time.Duration
}

func NewEventDispatchJob(dispatcher EventDispatcher, interval time.Duration) *EventDispatchJob {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &EventDispatchJob{dispatcher: dispatcher, interval: interval}
}

func (j *EventDispatchJob) GetName() string {
	return "event_dispatcher"
}

func (j *EventDispatchJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 失败的事件留到下一轮重试
func (j *EventDispatchJob) Execute(ctx context.Context) {
	sent, failed, err := j.dispatcher.DispatchPending(ctx)
	if err != nil {
		logger.Error("Failed to dispatch events: %v", err)
		return
	}
	if sent+failed > 0 {
		logger.Info("Dispatched %d events, %d failed", sent, failed)
	}
}
