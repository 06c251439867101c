package db

import (
	"fmt"

	"noteworks/internal/jobs"
	"noteworks/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Workspace{},
		&model.WorkspaceMember{},
		&model.WorkspaceInvitation{},
		&model.Note{},
		&model.Category{},
		&model.Tag{},
		&model.NoteTag{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Per-user name uniqueness for categories and tags
	if err := gdb.Exec(`create unique index if not exists uq_categories_user_name on categories(user_id, name);`).Error; err != nil {
		return err
	}
	if err := gdb.Exec(`create unique index if not exists uq_tags_user_name on tags(user_id, name);`).Error; err != nil {
		return err
	}

	// At most one Pending invitation per (workspace, invitee). Closes the
	// concurrent-send race the service-level pre-check cannot.
	if err := gdb.Exec(`
create unique index if not exists uq_invitations_pending
on workspace_invitations(workspace_id, invitee_user_id)
where status = 'Pending';
`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_notes_workspace_active on notes(workspace_id, is_deleted);`,
		`create index if not exists idx_notes_updated on notes(updated_at desc);`,
		`create index if not exists idx_invitations_invitee on workspace_invitations(invitee_user_id, created_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
		`create index if not exists idx_jobs_note on jobs(type, status, note_id);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
