package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/model"

	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	DB *gorm.DB
}

// Register creates the user together with their personal workspace and its
// Owner membership. All three rows commit or none do.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	var taken int64
	if err := s.DB.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, apperr.BusinessRule("username already taken")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := model.User{Username: username, PasswordHash: hash, CreatedAt: now}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.BusinessRule("username already taken")
			}
			return err
		}

		ws := model.Workspace{
			Name:        fmt.Sprintf("%s's personal space", u.Username),
			Type:        model.WorkspacePersonal,
			OwnerUserID: u.ID,
			CreatedAt:   now,
		}
		if err := tx.Create(&ws).Error; err != nil {
			return err
		}

		return tx.Create(&model.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      u.ID,
			Role:        model.RoleOwner,
			JoinedAt:    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	var u model.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !ComparePassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
