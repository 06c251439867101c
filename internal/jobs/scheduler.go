package jobs

import (
	"time"

	"gorm.io/gorm"
)

// Scheduler enqueues and cancels purge jobs inside the caller's transaction,
// so a rolled-back soft-delete never leaves a stray job behind.
type Scheduler struct {
	Retention time.Duration
}

func NewScheduler(retentionDays int) *Scheduler {
	return &Scheduler{Retention: time.Duration(retentionDays) * 24 * time.Hour}
}

// SchedulePurge enqueues one NOTE_PURGE job per note, due after the retention
// window. No-op when retention is disabled.
func (s *Scheduler) SchedulePurge(tx *gorm.DB, userID uint64, noteIDs []uint64, deletedAt time.Time) error {
	if s.Retention <= 0 || len(noteIDs) == 0 {
		return nil
	}
	rows := make([]Job, 0, len(noteIDs))
	for _, id := range noteIDs {
		rows = append(rows, Job{
			UserID: userID,
			Type:   TypeNotePurge,
			NoteID: id,
			RunAt:  deletedAt.Add(s.Retention),
			Status: "PENDING",
		})
	}
	return tx.Create(&rows).Error
}

// CancelPurge drops pending purge jobs for notes leaving the recycle bin.
func (s *Scheduler) CancelPurge(tx *gorm.DB, noteIDs []uint64) error {
	if len(noteIDs) == 0 {
		return nil
	}
	return tx.Where("type = ? AND status = 'PENDING' AND note_id IN ?", TypeNotePurge, noteIDs).
		Delete(&Job{}).Error
}
