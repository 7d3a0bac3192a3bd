package logic

import (
	"context"
	"testing"
	"time"

	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectUpdates_Visibility(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logic := NewUpdateLogic(db)
	creator := createUser(t, db, "maker@example.com")
	backer := createUser(t, db, "backer@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	project, _ := seedProject(t, db, creator.ID, model.ProjectStatusLive, 1000)

	_, err := logic.CreatePostUpdate(ctx, stranger.ID, CreateUpdateInput{ProjectID: project.ID, Title: "Hi", Content: "x"})
	assert.Equal(t, "You can only post updates to your own projects", Message(err))

	_, err = logic.CreatePostUpdate(ctx, creator.ID, CreateUpdateInput{ProjectID: project.ID, Title: "Hi", Content: "x", Visibility: "secret"})
	assert.Equal(t, "Invalid visibility", Message(err))

	public, err := logic.CreatePostUpdate(ctx, creator.ID, CreateUpdateInput{
		ProjectID: project.ID, Title: "Prototype done", Content: "First drawers printed.",
		Images: []string{"http://cdn.test/a.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.VisibilityPublic, public.Visibility)

	_, err = logic.CreatePostUpdate(ctx, creator.ID, CreateUpdateInput{
		ProjectID: project.ID, Title: "Backer survey", Content: "Pick your colors.",
		Visibility: model.VisibilityBackersOnly,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.Backing{
		ProjectID: project.ID, BackerID: backer.ID, Amount: decimal.NewFromInt(25),
		Status: model.BackingStatusConfirmed, BackedAt: time.Now(),
	}).Error)

	cases := map[string]int{"": 1, stranger.ID: 1, backer.ID: 2, creator.ID: 2}
	for actor, want := range cases {
		updates, err := logic.GetProjectUpdates(ctx, actor, project.ID)
		require.NoError(t, err)
		assert.Len(t, updates, want, actor)
	}

	updates, err := logic.GetProjectUpdates(ctx, "", project.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"http://cdn.test/a.png"}, updates[0].Images)
}
