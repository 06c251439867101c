// Package testutil opens throwaway sqlite databases for service tests.
package testutil

import (
	"testing"
	"time"

	"noteworks/internal/jobs"
	"noteworks/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// in-memory sqlite is per-connection
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&model.User{},
		&model.Workspace{},
		&model.WorkspaceMember{},
		&model.WorkspaceInvitation{},
		&model.Note{},
		&model.Category{},
		&model.Tag{},
		&model.NoteTag{},
		&jobs.Job{},
	))
	return gdb
}

func NewUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := model.User{Username: username, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// NewWorkspace creates a workspace together with its Owner membership, the
// same shape the workspace service produces.
func NewWorkspace(t *testing.T, db *gorm.DB, ownerID uint64, name string) *model.Workspace {
	t.Helper()
	now := time.Now().UTC()
	ws := model.Workspace{Name: name, Type: model.WorkspaceTeam, OwnerUserID: ownerID, CreatedAt: now}
	require.NoError(t, db.Create(&ws).Error)
	require.NoError(t, db.Create(&model.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      ownerID,
		Role:        model.RoleOwner,
		JoinedAt:    now,
	}).Error)
	return &ws
}

func NewMember(t *testing.T, db *gorm.DB, workspaceID, userID uint64, canEdit, canShare bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        model.RoleMember,
		CanEdit:     canEdit,
		CanShare:    canShare,
		JoinedAt:    time.Now().UTC(),
	}).Error)
}

func NewNote(t *testing.T, db *gorm.DB, workspaceID uint64, title string) *model.Note {
	t.Helper()
	now := time.Now().UTC()
	n := model.Note{
		WorkspaceID: workspaceID,
		Title:       title,
		Type:        model.NoteMarkdown,
		Content:     model.DefaultContent(model.NoteMarkdown),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&n).Error)
	return &n
}
