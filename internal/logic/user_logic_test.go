package logic

import (
	"context"
	"testing"

	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserLogic(db)
	roles := NewRoleLogic(db)

	_, err := users.EnsureUser(ctx, "  ")
	assert.Equal(t, KindInvalid, KindOf(err))

	first, err := users.EnsureUser(ctx, " Maker@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "maker@example.com", first.Email)
	assert.Equal(t, "maker", first.Username)

	again, err := users.EnsureUser(ctx, "maker@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	got, err := roles.GetUserRoles(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RoleBacker}, got)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserLogic(db)
	u := createUser(t, db, "maker@example.com")

	_, err := users.UpdateProfile(ctx, "", UpdateProfileInput{})
	assert.Equal(t, ErrNotAuthenticated, err)

	name, bio := "  Ada Maker ", "I print things."
	updated, err := users.UpdateProfile(ctx, u.ID, UpdateProfileInput{FullName: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Ada Maker", updated.FullName)
	assert.Equal(t, "I print things.", updated.Bio)
	assert.Equal(t, u.Username, updated.Username)

	_, err = users.UpdateProfile(ctx, "ghost", UpdateProfileInput{Bio: &bio})
	assert.Equal(t, ErrUserNotFound, err)
	_, err = users.GetUser(ctx, "ghost")
	assert.Equal(t, ErrUserNotFound, err)
}

func TestRoleManagement(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	roles := NewRoleLogic(db)
	admin := createUser(t, db, "admin@example.com")
	makeAdmin(t, db, admin.ID)
	user := createUser(t, db, "user@example.com")

	err := roles.AssignRole(ctx, user.ID, user.ID, model.RoleAdmin)
	assert.Equal(t, "Only admins can manage roles", Message(err))

	err = roles.AssignRole(ctx, admin.ID, user.ID, "overlord")
	assert.Equal(t, "Invalid role", Message(err))

	require.NoError(t, roles.AssignRole(ctx, admin.ID, user.ID, model.RoleCreator))
	require.NoError(t, roles.AssignRole(ctx, admin.ID, user.ID, model.RoleCreator))

	ok, err := roles.HasRole(ctx, user.ID, model.RoleCreator)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := roles.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, roles.RemoveRole(ctx, admin.ID, user.ID, model.RoleCreator))
	ok, err = roles.HasRole(ctx, user.ID, model.RoleCreator)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, ErrNotAuthenticated, roles.RemoveRole(ctx, "", user.ID, model.RoleCreator))
}
