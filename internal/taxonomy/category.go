// Package taxonomy owns the per-user categories and tags and their bindings
// to notes. Names are unique per user, case-sensitive as stored.
package taxonomy

import (
	"context"
	"errors"
	"strings"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/model"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type CategoryView struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	SortOrder int     `json:"sort_order"`
}

func (s *Service) ListCategories(ctx context.Context, userID uint64) ([]CategoryView, error) {
	var out []CategoryView
	err := s.DB.WithContext(ctx).Model(&model.Category{}).
		Where("user_id = ?", userID).
		Order("sort_order asc, id asc").
		Select("id, name, color, sort_order").
		Scan(&out).Error
	if out == nil {
		out = []CategoryView{}
	}
	return out, err
}

// CreateCategory assigns the next sort order after the user's current maximum.
func (s *Service) CreateCategory(ctx context.Context, userID uint64, name string, color *string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.Validation("category name is required")
	}

	db := s.DB.WithContext(ctx)

	if err := s.checkCategoryName(db, userID, name, 0); err != nil {
		return 0, err
	}

	var maxOrder int
	if err := db.Model(&model.Category{}).
		Where("user_id = ?", userID).
		Select("coalesce(max(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}

	cat := model.Category{
		UserID:    userID,
		Name:      name,
		Color:     color,
		SortOrder: maxOrder + 1,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperr.BusinessRule("a category with this name already exists")
		}
		return 0, err
	}
	return cat.ID, nil
}

func (s *Service) UpdateCategory(ctx context.Context, userID, categoryID uint64, name string, color *string, sortOrder int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("category name is required")
	}

	db := s.DB.WithContext(ctx)

	var cat model.Category
	if err := db.Where("id = ? AND user_id = ?", categoryID, userID).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category not found")
		}
		return err
	}

	if err := s.checkCategoryName(db, userID, name, categoryID); err != nil {
		return err
	}

	return db.Model(&model.Category{}).Where("id = ?", categoryID).
		Updates(map[string]any{"name": name, "color": color, "sort_order": sortOrder}).Error
}

// DeleteCategory detaches the category from every note referencing it before
// removing the row. Notes themselves are never touched.
func (s *Service) DeleteCategory(ctx context.Context, userID, categoryID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat model.Category
		if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&cat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return err
		}

		if err := tx.Model(&model.Note{}).
			Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Category{}, categoryID).Error
	})
}

func (s *Service) checkCategoryName(db *gorm.DB, userID uint64, name string, excludeID uint64) error {
	var n int64
	q := db.Model(&model.Category{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.BusinessRule("a category with this name already exists")
	}
	return nil
}
