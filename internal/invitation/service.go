// Package invitation implements the pending → accepted/rejected/revoked
// workflow that feeds the membership registry. Terminal transitions are
// guarded updates on the Pending status, so concurrent deciders race cleanly:
// exactly one wins, the rest see InvalidState.
package invitation

import (
	"context"
	"errors"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/model"
	"noteworks/internal/workspace"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type SendInput struct {
	InviteeUsername string
	CanEdit         bool
	CanShare        bool
	Message         string
}

func (s *Service) Send(ctx context.Context, workspaceID, inviterID uint64, in SendInput) (uint64, error) {
	db := s.DB.WithContext(ctx)

	var ws model.Workspace
	if err := db.Where("id = ?", workspaceID).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("workspace not found")
		}
		return 0, err
	}

	canShare, err := workspace.HasShareRight(db, workspaceID, inviterID)
	if err != nil {
		return 0, err
	}
	if !canShare {
		return 0, apperr.PermissionDenied("no permission to invite members to this workspace")
	}

	var invitee model.User
	if err := db.Where("username = ?", in.InviteeUsername).First(&invitee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("invited user not found")
		}
		return 0, err
	}
	if invitee.ID == inviterID {
		return 0, apperr.BusinessRule("cannot invite yourself")
	}

	already, err := workspace.IsMember(db, workspaceID, invitee.ID)
	if err != nil {
		return 0, err
	}
	if already {
		return 0, apperr.BusinessRule("user is already a member of this workspace")
	}

	var memberCount int64
	if err := db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).Count(&memberCount).Error; err != nil {
		return 0, err
	}
	if memberCount >= workspace.MaxMembers {
		return 0, apperr.BusinessRule("workspace member limit reached (max %d)", workspace.MaxMembers)
	}

	var pending int64
	if err := db.Model(&model.WorkspaceInvitation{}).
		Where("workspace_id = ? AND invitee_user_id = ? AND status = ?",
			workspaceID, invitee.ID, model.InvitationPending).
		Count(&pending).Error; err != nil {
		return 0, err
	}
	if pending > 0 {
		return 0, apperr.BusinessRule("user already has a pending invitation for this workspace")
	}

	inv := model.WorkspaceInvitation{
		WorkspaceID:   workspaceID,
		InviterUserID: inviterID,
		InviteeUserID: invitee.ID,
		CanEdit:       in.CanEdit,
		CanShare:      in.CanShare,
		Message:       in.Message,
		Status:        model.InvitationPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.Create(&inv).Error; err != nil {
		// the partial unique index catches the concurrent-send race
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperr.BusinessRule("user already has a pending invitation for this workspace")
		}
		return 0, err
	}
	return inv.ID, nil
}

// Accept transitions the invitation and grants membership with the invited
// flags. If a membership row appeared meanwhile, its flags are overwritten
// with the invitation's instead.
func (s *Service) Accept(ctx context.Context, invitationID, callerID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.load(tx, invitationID)
		if err != nil {
			return err
		}
		if inv.InviteeUserID != callerID {
			return apperr.PermissionDenied("not the invitee of this invitation")
		}

		if err := s.settle(tx, invitationID, model.InvitationAccepted); err != nil {
			return err
		}

		existing, err := workspace.IsMember(tx, inv.WorkspaceID, callerID)
		if err != nil {
			return err
		}
		if existing {
			return tx.Model(&model.WorkspaceMember{}).
				Where("workspace_id = ? AND user_id = ?", inv.WorkspaceID, callerID).
				Updates(map[string]any{"can_edit": inv.CanEdit, "can_share": inv.CanShare}).Error
		}
		return workspace.AddMember(tx, inv.WorkspaceID, callerID, model.RoleMember, inv.CanEdit, inv.CanShare)
	})
}

func (s *Service) Reject(ctx context.Context, invitationID, callerID uint64) error {
	db := s.DB.WithContext(ctx)

	inv, err := s.load(db, invitationID)
	if err != nil {
		return err
	}
	if inv.InviteeUserID != callerID {
		return apperr.PermissionDenied("not the invitee of this invitation")
	}
	return s.settle(db, invitationID, model.InvitationRejected)
}

// Revoke is available to the inviter or the workspace owner while Pending.
func (s *Service) Revoke(ctx context.Context, invitationID, callerID uint64) error {
	db := s.DB.WithContext(ctx)

	inv, err := s.load(db, invitationID)
	if err != nil {
		return err
	}

	if inv.InviterUserID != callerID {
		owner, err := workspace.IsOwner(db, inv.WorkspaceID, callerID)
		if err != nil {
			return err
		}
		if !owner {
			return apperr.PermissionDenied("no permission to revoke this invitation")
		}
	}
	return s.settle(db, invitationID, model.InvitationRevoked)
}

// settle is the compare-and-swap out of Pending: whoever loses the race gets
// zero rows affected and an InvalidState.
func (s *Service) settle(db *gorm.DB, invitationID uint64, to model.InvitationStatus) error {
	now := time.Now().UTC()
	res := db.Model(&model.WorkspaceInvitation{}).
		Where("id = ? AND status = ?", invitationID, model.InvitationPending).
		Updates(map[string]any{"status": to, "responded_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("invitation is no longer pending")
	}
	return nil
}

func (s *Service) load(db *gorm.DB, invitationID uint64) (*model.WorkspaceInvitation, error) {
	var inv model.WorkspaceInvitation
	if err := db.Where("id = ?", invitationID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invitation not found")
		}
		return nil, err
	}
	return &inv, nil
}

type View struct {
	ID              uint64                 `json:"id"`
	WorkspaceID     uint64                 `json:"workspace_id"`
	WorkspaceName   string                 `json:"workspace_name"`
	InviterUserID   uint64                 `json:"inviter_user_id"`
	InviterUsername string                 `json:"inviter_username"`
	CanEdit         bool                   `json:"can_edit"`
	CanShare        bool                   `json:"can_share"`
	Message         string                 `json:"message"`
	Status          model.InvitationStatus `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	RespondedAt     *time.Time             `json:"responded_at"`
}

// ListForUser returns every invitation addressed to the user, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]View, error) {
	var out []View
	err := s.DB.WithContext(ctx).Raw(`
select i.id, i.workspace_id, w.name as workspace_name,
       i.inviter_user_id, u.username as inviter_username,
       i.can_edit, i.can_share, i.message, i.status, i.created_at, i.responded_at
from workspace_invitations i
join workspaces w on w.id = i.workspace_id
join users u on u.id = i.inviter_user_id
where i.invitee_user_id = ?
order by i.created_at desc
`, userID).Scan(&out).Error
	if out == nil {
		out = []View{}
	}
	return out, err
}
