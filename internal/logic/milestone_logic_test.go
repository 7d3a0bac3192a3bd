package logic

import (
	"context"
	"sync"
	"testing"

	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkMilestoneCompleted_PendingSecondMilestoneFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	_, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000, 2000)

	logic := NewMilestoneLogic(db, newMemCache())
	_, err := logic.MarkMilestoneCompleted(ctx, creator.ID, milestones[1].ID, "")
	require.Error(t, err)
	assert.Equal(t, "Milestone must be in progress to be marked as completed", Message(err))
	assert.Equal(t, KindPrecondition, KindOf(err))
	assert.Equal(t, model.MilestoneStatusPending, reloadMilestone(t, db, milestones[1].ID).Status)
}

func TestMarkMilestoneCompleted_Guards(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	other := createUser(t, db, "other@example.com")
	project, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000)
	setMilestoneStatus(t, db, milestones[0].ID, model.MilestoneStatusInProgress)

	c := newMemCache()
	logic := NewMilestoneLogic(db, c)

	_, err := logic.MarkMilestoneCompleted(ctx, "", milestones[0].ID, "")
	assert.Equal(t, ErrNotAuthenticated, err)

	_, err = logic.MarkMilestoneCompleted(ctx, creator.ID, "missing", "")
	assert.Equal(t, "Milestone not found", Message(err))

	_, err = logic.MarkMilestoneCompleted(ctx, other.ID, milestones[0].ID, "")
	assert.Equal(t, "You can only mark your own milestones as completed", Message(err))
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, model.MilestoneStatusInProgress, reloadMilestone(t, db, milestones[0].ID).Status)

	ms, err := logic.MarkMilestoneCompleted(ctx, creator.ID, milestones[0].ID, "https://img.test/proof.jpg")
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, ms.Status)

	stored := reloadMilestone(t, db, milestones[0].ID)
	assert.Equal(t, model.MilestoneStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletionProof)
	assert.Equal(t, "https://img.test/proof.jpg", *stored.CompletionProof)
	assert.Contains(t, c.invalidatedSlugs(), project.Slug)

	// 已完成后再次标记失败
	_, err = logic.MarkMilestoneCompleted(ctx, creator.ID, milestones[0].ID, "")
	assert.Equal(t, "Milestone must be in progress to be marked as completed", Message(err))

	var events int64
	require.NoError(t, db.Model(&model.Event{}).Where("event_type = ?", "milestone.completed").Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestStartMilestone_Order(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	_, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000, 2000)
	logic := NewMilestoneLogic(db, nil)

	_, err := logic.StartMilestone(ctx, creator.ID, milestones[1].ID)
	assert.Equal(t, "Previous milestones must be completed first", Message(err))

	ms, err := logic.StartMilestone(ctx, creator.ID, milestones[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusInProgress, ms.Status)

	_, err = logic.StartMilestone(ctx, creator.ID, milestones[0].ID)
	assert.Equal(t, "Milestone must be pending to be started", Message(err))

	_, err = logic.MarkMilestoneCompleted(ctx, creator.ID, milestones[0].ID, "")
	require.NoError(t, err)
	_, err = logic.StartMilestone(ctx, creator.ID, milestones[1].ID)
	require.NoError(t, err)
}

func TestStartMilestone_AfterVerifiedAndFailed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	_, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000, 1000, 1000)
	logic := NewMilestoneLogic(db, nil)

	setMilestoneStatus(t, db, milestones[0].ID, model.MilestoneStatusVerified)
	setMilestoneStatus(t, db, milestones[1].ID, model.MilestoneStatusFailed)

	// 审核未通过的里程碑挡住后续
	_, err := logic.StartMilestone(ctx, creator.ID, milestones[2].ID)
	assert.Equal(t, "Previous milestones must be completed first", Message(err))

	setMilestoneStatus(t, db, milestones[1].ID, model.MilestoneStatusVerified)
	ms, err := logic.StartMilestone(ctx, creator.ID, milestones[2].ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusInProgress, ms.Status)
}

func TestTransition_RejectsSkippedStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	_, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000)
	logic := NewMilestoneLogic(db, nil)

	ms, err := logic.loadMilestone(ctx, milestones[0].ID)
	require.NoError(t, err)

	lost := precondition("Milestone cannot move to completed")
	err = logic.transition(ctx, ms, model.MilestoneStatusPending, model.MilestoneStatusCompleted, nil, "milestone.completed", lost)
	assert.Equal(t, lost, err)
	assert.Equal(t, model.MilestoneStatusPending, ms.Status)
	assert.Equal(t, model.MilestoneStatusPending, reloadMilestone(t, db, milestones[0].ID).Status)

	var events int64
	require.NoError(t, db.Model(&model.Event{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestStartMilestone_ProjectMustBeLive(t *testing.T) {
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	_, milestones := seedProject(t, db, creator.ID, model.ProjectStatusApproved, 1000)

	_, err := NewMilestoneLogic(db, nil).StartMilestone(context.Background(), creator.ID, milestones[0].ID)
	assert.Equal(t, "Project must be live to start a milestone", Message(err))
}

func TestRequestMilestoneVerification(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	other := createUser(t, db, "other@example.com")
	_, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000)
	logic := NewMilestoneLogic(db, nil)

	_, err := logic.RequestMilestoneVerification(ctx, creator.ID, milestones[0].ID, "proof")
	assert.Equal(t, "Milestone must be completed to request verification", Message(err))

	setMilestoneStatus(t, db, milestones[0].ID, model.MilestoneStatusCompleted)

	_, err = logic.RequestMilestoneVerification(ctx, other.ID, milestones[0].ID, "proof")
	assert.Equal(t, "You can only request verification for your own milestones", Message(err))

	_, err = logic.RequestMilestoneVerification(ctx, creator.ID, milestones[0].ID, "video link")
	require.NoError(t, err)

	stored := reloadMilestone(t, db, milestones[0].ID)
	assert.Equal(t, model.MilestoneStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletionProof)
	assert.Equal(t, "video link", *stored.CompletionProof)
}

func TestReleaseEscrowFunds(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	project, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000, 2000)
	logic := NewMilestoneLogic(db, nil)
	m := milestones[0]

	_, err := logic.ReleaseEscrowFunds(ctx, "", m.ID)
	assert.Equal(t, ErrNotAuthenticated, err)

	seedEscrow(t, db, project.ID, m.ID, 300, model.EscrowStatusHeld)
	seedEscrow(t, db, project.ID, m.ID, 200, model.EscrowStatusHeld)
	seedEscrow(t, db, project.ID, m.ID, 50, model.EscrowStatusReleased)
	seedEscrow(t, db, project.ID, milestones[1].ID, 700, model.EscrowStatusHeld)

	_, err = logic.ReleaseEscrowFunds(ctx, creator.ID, m.ID)
	assert.Equal(t, "Milestone must be verified to release funds", Message(err))

	setMilestoneStatus(t, db, m.ID, model.MilestoneStatusVerified)

	res, err := logic.ReleaseEscrowFunds(ctx, creator.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(res.Amount), res.Amount.String())
	assert.Equal(t, 2, res.TransactionCount)

	var held int64
	require.NoError(t, db.Model(&model.EscrowTransaction{}).
		Where("milestone_id = ? AND status = ?", m.ID, model.EscrowStatusHeld).Count(&held).Error)
	assert.Zero(t, held)

	var released []model.EscrowTransaction
	require.NoError(t, db.Where("milestone_id = ? AND status = ?", m.ID, model.EscrowStatusReleased).Find(&released).Error)
	require.Len(t, released, 3)

	// 其它里程碑的托管不受影响
	var other model.EscrowTransaction
	require.NoError(t, db.First(&other, "milestone_id = ?", milestones[1].ID).Error)
	assert.Equal(t, model.EscrowStatusHeld, other.Status)

	_, err = logic.ReleaseEscrowFunds(ctx, creator.ID, m.ID)
	assert.Equal(t, "No funds to release", Message(err))
}

func TestReleaseEscrowFunds_ConcurrentOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	project, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000)
	m := milestones[0]
	setMilestoneStatus(t, db, m.ID, model.MilestoneStatusVerified)
	for i := 0; i < 5; i++ {
		seedEscrow(t, db, project.ID, m.ID, 100, model.EscrowStatusHeld)
	}
	logic := NewMilestoneLogic(db, nil)

	const callers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		total   = decimal.Zero
		noFunds int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := logic.ReleaseEscrowFunds(ctx, creator.ID, m.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if Message(err) == "No funds to release" {
					noFunds++
				}
				return
			}
			wins++
			total = total.Add(res.Amount)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, noFunds)
	assert.True(t, decimal.NewFromInt(500).Equal(total))
}

func TestEscrowQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	creator := createUser(t, db, "maker@example.com")
	project, milestones := seedProject(t, db, creator.ID, model.ProjectStatusLive, 2000, 1000)
	seedEscrow(t, db, project.ID, milestones[0].ID, 400, model.EscrowStatusHeld)
	seedEscrow(t, db, project.ID, milestones[0].ID, 250, model.EscrowStatusReleased)
	seedEscrow(t, db, project.ID, milestones[1].ID, 100, model.EscrowStatusHeld)
	logic := NewMilestoneLogic(db, nil)

	list, err := logic.GetProjectMilestones(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].OrderIndex)
	assert.Equal(t, 2, list[1].OrderIndex)

	held, err := logic.GetProjectEscrowFunds(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, milestones[1].ID, held[0].MilestoneID)

	summary, err := logic.GetEscrowSummary(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(summary.Held))
	assert.True(t, decimal.NewFromInt(250).Equal(summary.Released))
	assert.True(t, decimal.NewFromInt(750).Equal(summary.Total))
}
