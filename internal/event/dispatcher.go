package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/metrics"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Dispatcher 把发件箱里未处理的事件投递到 MQ
type Dispatcher struct {
	db          *gorm.DB
	publisher   Publisher
	pool        *ants.Pool
	batchSize   int
	maxAttempts int
}

// NewDispatcher 创建派发器，workers 为协程池大小
func NewDispatcher(db *gorm.DB, publisher Publisher, workers, batchSize, maxAttempts int) (*Dispatcher, error) {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch pool: %w", err)
	}
	return &Dispatcher{
		db:          db,
		publisher:   publisher,
		pool:        pool,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}, nil
}

// DispatchPending 投递一批事件，返回成功和失败的数量
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, int, error) {
	var events []model.Event
	err := d.db.WithContext(ctx).
		Where("processed = ? AND attempts < ?", false, d.maxAttempts).
		Order("created_at ASC").
		Limit(d.batchSize).
		Find(&events).Error
	if err != nil {
		return 0, 0, fmt.Errorf("load pending events: %w", err)
	}
	if len(events) == 0 {
		return 0, 0, nil
	}

	var (
		wg     sync.WaitGroup
		sent   atomic.Int64
		failed atomic.Int64
	)
	for i := range events {
		evt := &events[i]
		wg.Add(1)
		submitErr := d.pool.Submit(func() {
			defer wg.Done()
			if d.dispatchOne(ctx, evt) {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			logger.Error("Failed to submit event %s to pool: %v", evt.ID, submitErr)
		}
	}
	wg.Wait()

	return int(sent.Load()), int(failed.Load()), nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, evt *model.Event) bool {
	if err := d.publisher.Publish(ctx, evt.EventType, NewEnvelope(evt)); err != nil {
		metrics.EventsDispatched.WithLabelValues("failed").Inc()
		logger.Warn("Failed to publish event %s (%s): %v", evt.ID, evt.EventType, err)
		updateErr := d.db.Model(&model.Event{}).
			Where("id = ?", evt.ID).
			Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": err.Error(),
			}).Error
		if updateErr != nil {
			logger.Error("Failed to record attempt for event %s: %v", evt.ID, updateErr)
		}
		return false
	}

	metrics.EventsDispatched.WithLabelValues("sent").Inc()
	now := time.Now()
	err := d.db.Model(&model.Event{}).
		Where("id = ? AND processed = ?", evt.ID, false).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": now,
			"attempts":     gorm.Expr("attempts + 1"),
			"last_error":   "",
		}).Error
	if err != nil {
		logger.Error("Failed to mark event %s processed: %v", evt.ID, err)
	}
	return true
}

// Close 等待在途任务结束并释放协程池
func (d *Dispatcher) Close() error {
	return d.pool.ReleaseTimeout(5 * time.Second)
}
