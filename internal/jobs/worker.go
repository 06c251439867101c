package jobs

import (
	"context"
	"errors"
	"math"
	"time"

	"noteworks/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Worker drains due purge jobs: a note still in the recycle bin when its
// retention elapses is removed for good, tag associations included.
type Worker struct {
	ID   string
	Repo *Repo
	DB   *gorm.DB
	Log  zerolog.Logger
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				w.Log.Error().Err(err).Msg("worker claim failed")
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case TypeNotePurge:
		w.handlePurge(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handlePurge(job *Job) {
	var note model.Note
	err := w.DB.Where("id = ?", job.NoteID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// already purged by hand
		_ = w.Repo.MarkDone(job.ID)
		return
	}
	if err != nil {
		w.retry(job, "db read error")
		return
	}

	if !note.IsDeleted {
		// restored since the job was scheduled
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	err = w.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", note.ID).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND is_deleted = ?", note.ID, true).Delete(&model.Note{}).Error
	})
	if err != nil {
		w.retry(job, "purge failed")
		return
	}

	w.Log.Info().Uint64("note_id", note.ID).Uint64("workspace_id", note.WorkspaceID).Msg("purged expired note")
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
