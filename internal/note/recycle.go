package note

import (
	"context"
	"time"

	"noteworks/internal/model"
	"noteworks/internal/workspace"

	"gorm.io/gorm"
)

// Recycle-bin operations. Batches are best-effort: ids the caller has no
// rights over, or whose state does not admit the transition, are skipped, and
// only the count of notes actually transitioned comes back.

type DeletedView struct {
	ID          uint64     `json:"id"`
	WorkspaceID uint64     `json:"workspace_id"`
	Title       string     `json:"title"`
	DeletedTime *time.Time `json:"deleted_time"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListDeleted shows the recycle bin: soft-deleted notes in workspaces the
// caller owns. The bin is owner-scoped, unlike active listings.
func (s *Service) ListDeleted(ctx context.Context, userID uint64) ([]DeletedView, error) {
	var out []DeletedView
	err := s.DB.WithContext(ctx).Raw(`
select n.id, n.workspace_id, n.title, n.deleted_time, n.updated_at
from notes n
join workspaces w on w.id = n.workspace_id
where n.is_deleted = ? and w.owner_user_id = ?
order by coalesce(n.deleted_time, n.updated_at) desc
`, true, userID).Scan(&out).Error
	if out == nil {
		out = []DeletedView{}
	}
	return out, err
}

// SoftDelete moves notes to the recycle bin. Requires edit rights per note;
// already-deleted notes are skipped, not an error.
func (s *Service) SoftDelete(ctx context.Context, noteIDs []uint64, userID uint64) (int, error) {
	ids := dedupe(noteIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	db := s.DB.WithContext(ctx)

	var notes []model.Note
	if err := db.Where("id IN ?", ids).Find(&notes).Error; err != nil {
		return 0, err
	}

	editable := map[uint64]bool{} // workspace id -> edit right
	var eligible []uint64
	for _, n := range notes {
		if n.IsDeleted {
			continue
		}
		ok, known := editable[n.WorkspaceID]
		if !known {
			var err error
			ok, err = workspace.HasEditRight(db, n.WorkspaceID, userID)
			if err != nil {
				return 0, err
			}
			editable[n.WorkspaceID] = ok
		}
		if ok {
			eligible = append(eligible, n.ID)
		}
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Note{}).
			Where("id IN ? AND is_deleted = ?", eligible, false).
			Updates(map[string]any{"is_deleted": true, "deleted_time": now, "updated_at": now}).Error; err != nil {
			return err
		}
		return s.Sched.SchedulePurge(tx, userID, eligible, now)
	})
	if err != nil {
		return 0, err
	}
	return len(eligible), nil
}

// Restore brings notes back from the bin. Owner-only, matching the bin's
// scope; restoring an active note is a no-op.
func (s *Service) Restore(ctx context.Context, noteIDs []uint64, userID uint64) (int, error) {
	ids := dedupe(noteIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	db := s.DB.WithContext(ctx)

	eligible, err := s.ownedDeleted(db, ids, userID)
	if err != nil {
		return 0, err
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Note{}).
			Where("id IN ? AND is_deleted = ?", eligible, true).
			Updates(map[string]any{"is_deleted": false, "deleted_time": nil, "updated_at": time.Now().UTC()}).Error; err != nil {
			return err
		}
		return s.Sched.CancelPurge(tx, eligible)
	})
	if err != nil {
		return 0, err
	}
	return len(eligible), nil
}

// Purge removes notes from the bin for good: the row and its tag associations
// are gone, and no listing will ever show them again.
func (s *Service) Purge(ctx context.Context, noteIDs []uint64, userID uint64) (int, error) {
	ids := dedupe(noteIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	db := s.DB.WithContext(ctx)

	eligible, err := s.ownedDeleted(db, ids, userID)
	if err != nil {
		return 0, err
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id IN ?", eligible).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", eligible).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		return s.Sched.CancelPurge(tx, eligible)
	})
	if err != nil {
		return 0, err
	}
	return len(eligible), nil
}

// ownedDeleted narrows ids to soft-deleted notes in workspaces the user owns.
func (s *Service) ownedDeleted(db *gorm.DB, ids []uint64, userID uint64) ([]uint64, error) {
	var eligible []uint64
	err := db.Raw(`
select n.id
from notes n
join workspaces w on w.id = n.workspace_id
where n.id IN ? and n.is_deleted = ? and w.owner_user_id = ?
`, ids, true, userID).Scan(&eligible).Error
	return eligible, err
}
