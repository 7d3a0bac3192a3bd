package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chxdon9587/NextForD/internal/database"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu       sync.Mutex
	failKeys map[string]bool
	got      []Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, msg Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failKeys[routingKey] {
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func openTestDB(t *testing.T) *gorm.DB {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	return db
}

func closeDB(t *testing.T, db *gorm.DB) {
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestRecord_WritesOutboxRow(t *testing.T) {
	db := openTestDB(t)
	defer closeDB(t, db)

	require.NoError(t, Record(db, AggregateMilestone, "m1", MilestoneCompleted, map[string]string{"proof": "photo"}))

	var evt model.Event
	require.NoError(t, db.First(&evt).Error)
	assert.Equal(t, MilestoneCompleted, evt.EventType)
	assert.Equal(t, "m1", evt.AggregateID)
	assert.JSONEq(t, `{"proof":"photo"}`, evt.Data)
	assert.False(t, evt.Processed)
}

func TestRecord_RolledBackWithTransaction(t *testing.T) {
	db := openTestDB(t)
	defer closeDB(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Record(tx, AggregateBacking, "b1", BackingCreated, nil); err != nil {
			return err
		}
		return errors.New("payment declined")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDispatcher_DispatchPending(t *testing.T) {
	// ants 包加载时自带的默认协程池不属于 Dispatcher
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreTopFunction("github.com/panjf2000/ants/v2.(*Pool).purgeStaleWorkers"),
		goleak.IgnoreTopFunction("github.com/panjf2000/ants/v2.(*Pool).ticktock"),
	)

	db := openTestDB(t)
	defer closeDB(t, db)

	require.NoError(t, Record(db, AggregateMilestone, "m1", MilestoneCompleted, map[string]int{"n": 1}))
	require.NoError(t, Record(db, AggregateMilestone, "m1", EscrowReleased, map[string]int{"n": 2}))
	require.NoError(t, Record(db, AggregateBacking, "b1", BackingCreated, map[string]int{"n": 3}))

	pub := &recordingPublisher{failKeys: map[string]bool{EscrowReleased: true}}
	d, err := NewDispatcher(db, pub, 2, 10, 2)
	require.NoError(t, err)
	defer d.Close()

	sent, failed, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
	assert.Len(t, pub.got, 2)

	var pending model.Event
	require.NoError(t, db.Where("event_type = ?", EscrowReleased).First(&pending).Error)
	assert.False(t, pending.Processed)
	assert.Equal(t, 1, pending.Attempts)
	assert.Equal(t, "broker unavailable", pending.LastError)

	// 第二轮只重试失败的那条，达到上限后不再投递
	sent, failed, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, failed)

	sent, failed, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, failed)

	var processed int64
	require.NoError(t, db.Model(&model.Event{}).Where("processed = ?", true).Count(&processed).Error)
	assert.Equal(t, int64(2), processed)
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(&model.Event{Base: model.Base{ID: "e1"}, EventType: ProjectLaunched, AggregateType: AggregateProject, AggregateID: "p1"})
	assert.Equal(t, "e1", env.ID)
	assert.Equal(t, "null", string(env.Data))
}
