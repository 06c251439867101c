package taxonomy

import (
	"context"
	"errors"
	"strings"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/model"
	"noteworks/internal/workspace"

	"gorm.io/gorm"
)

type TagView struct {
	ID    uint64  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

func (s *Service) ListTags(ctx context.Context, userID uint64) ([]TagView, error) {
	var out []TagView
	err := s.DB.WithContext(ctx).Model(&model.Tag{}).
		Where("user_id = ?", userID).
		Order("name asc").
		Select("id, name, color").
		Scan(&out).Error
	if out == nil {
		out = []TagView{}
	}
	return out, err
}

func (s *Service) CreateTag(ctx context.Context, userID uint64, name string, color *string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.Validation("tag name is required")
	}

	db := s.DB.WithContext(ctx)

	if err := s.checkTagName(db, userID, name, 0); err != nil {
		return 0, err
	}

	tag := model.Tag{UserID: userID, Name: name, Color: color, CreatedAt: time.Now().UTC()}
	if err := db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperr.BusinessRule("a tag with this name already exists")
		}
		return 0, err
	}
	return tag.ID, nil
}

func (s *Service) UpdateTag(ctx context.Context, userID, tagID uint64, name string, color *string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("tag name is required")
	}

	db := s.DB.WithContext(ctx)

	var tag model.Tag
	if err := db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("tag not found")
		}
		return err
	}

	if err := s.checkTagName(db, userID, name, tagID); err != nil {
		return err
	}

	return db.Model(&model.Tag{}).Where("id = ?", tagID).
		Updates(map[string]any{"name": name, "color": color}).Error
}

// DeleteTag removes the tag and all of its note associations.
func (s *Service) DeleteTag(ctx context.Context, userID, tagID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("tag not found")
			}
			return err
		}

		if err := tx.Where("tag_id = ?", tagID).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Tag{}, tagID).Error
	})
}

// NoteTags lists a note's tags; any member of the note's workspace may look.
func (s *Service) NoteTags(ctx context.Context, userID, noteID uint64) ([]TagView, error) {
	db := s.DB.WithContext(ctx)

	n, err := s.loadNote(db, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.requireView(db, n.WorkspaceID, userID); err != nil {
		return nil, err
	}

	var out []TagView
	err = db.Raw(`
select t.id, t.name, t.color
from note_tags nt
join tags t on t.id = nt.tag_id
where nt.note_id = ?
order by t.name asc
`, noteID).Scan(&out).Error
	if out == nil {
		out = []TagView{}
	}
	return out, err
}

// SetNoteTags replaces the note's entire tag set. Ids pointing at tags the
// caller does not own are silently dropped, and the replacement is atomic.
func (s *Service) SetNoteTags(ctx context.Context, userID, noteID uint64, tagIDs []uint64) error {
	db := s.DB.WithContext(ctx)

	n, err := s.loadNote(db, noteID)
	if err != nil {
		return err
	}

	canEdit, err := workspace.HasEditRight(db, n.WorkspaceID, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return apperr.PermissionDenied("no permission to change this note's tags")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var owned []uint64
		if len(tagIDs) > 0 {
			if err := tx.Model(&model.Tag{}).
				Where("user_id = ? AND id IN ?", userID, tagIDs).
				Pluck("id", &owned).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("note_id = ?", noteID).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}

		seen := make(map[uint64]struct{}, len(owned))
		for _, tagID := range owned {
			if _, ok := seen[tagID]; ok {
				continue
			}
			seen[tagID] = struct{}{}
			if err := tx.Create(&model.NoteTag{NoteID: noteID, TagID: tagID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) loadNote(db *gorm.DB, noteID uint64) (*model.Note, error) {
	var n model.Note
	if err := db.Where("id = ?", noteID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("note not found")
		}
		return nil, err
	}
	return &n, nil
}

func (s *Service) requireView(db *gorm.DB, workspaceID, userID uint64) error {
	member, err := workspace.IsMember(db, workspaceID, userID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	owner, err := workspace.IsOwner(db, workspaceID, userID)
	if err != nil {
		return err
	}
	if !owner {
		return apperr.PermissionDenied("no access to this note")
	}
	return nil
}

func (s *Service) checkTagName(db *gorm.DB, userID uint64, name string, excludeID uint64) error {
	var n int64
	q := db.Model(&model.Tag{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.BusinessRule("a tag with this name already exists")
	}
	return nil
}
