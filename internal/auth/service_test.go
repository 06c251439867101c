package auth_test

import (
	"context"
	"testing"

	"noteworks/internal/apperr"
	"noteworks/internal/auth"
	"noteworks/internal/model"
	"noteworks/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesPersonalWorkspace(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := &auth.Service{DB: db}
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	assert.NotEqual(t, "correct horse battery", u.PasswordHash)

	var ws model.Workspace
	require.NoError(t, db.Where("owner_user_id = ?", u.ID).First(&ws).Error)
	assert.Equal(t, "alice's personal space", ws.Name)
	assert.Equal(t, model.WorkspacePersonal, ws.Type)

	var m model.WorkspaceMember
	require.NoError(t, db.Where("workspace_id = ? AND user_id = ?", ws.ID, u.ID).First(&m).Error)
	assert.Equal(t, model.RoleOwner, m.Role)
}

func TestRegisterUsernameTaken(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := &auth.Service{DB: db}
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password-one")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "password-two")
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))

	// nothing partial left behind
	var users int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
	var workspaces int64
	require.NoError(t, db.Model(&model.Workspace{}).Count(&workspaces).Error)
	assert.EqualValues(t, 1, workspaces)
}

func TestLogin(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := &auth.Service{DB: db}
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-enough")
	require.NoError(t, err)
	assert.True(t, auth.ComparePassword(hash, "s3cret-enough"))
	assert.False(t, auth.ComparePassword(hash, "s3cret-enouGh"))
}
