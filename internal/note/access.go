package note

import (
	"errors"

	"noteworks/internal/apperr"
	"noteworks/internal/model"

	"gorm.io/gorm"
)

// AccessibleWorkspaceIDs is the single authorization gate for note reads:
// every workspace the user owns or belongs to.
func AccessibleWorkspaceIDs(db *gorm.DB, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := db.Raw(`
select id from workspaces where owner_user_id = ?
union
select workspace_id from workspace_members where user_id = ?
`, userID, userID).Scan(&ids).Error
	return ids, err
}

func loadNote(db *gorm.DB, noteID uint64) (*model.Note, error) {
	var n model.Note
	if err := db.Where("id = ?", noteID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("note not found")
		}
		return nil, err
	}
	return &n, nil
}
