package workspace

import (
	"context"
	"errors"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/model"

	"gorm.io/gorm"
)

// MaxMembers caps a workspace at 6 members, owner included.
const MaxMembers = 6

// Predicate helpers are package-level so other services can run them inside
// their own transactions.

func IsMember(db *gorm.DB, workspaceID, userID uint64) (bool, error) {
	var n int64
	err := db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&n).Error
	return n > 0, err
}

func IsOwner(db *gorm.DB, workspaceID, userID uint64) (bool, error) {
	var n int64
	err := db.Model(&model.Workspace{}).
		Where("id = ? AND owner_user_id = ?", workspaceID, userID).
		Count(&n).Error
	return n > 0, err
}

// HasEditRight is true for the owner, or a member whose can_edit flag is set.
func HasEditRight(db *gorm.DB, workspaceID, userID uint64) (bool, error) {
	owner, err := IsOwner(db, workspaceID, userID)
	if err != nil || owner {
		return owner, err
	}
	var n int64
	err = db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ? AND can_edit = ?", workspaceID, userID, true).
		Count(&n).Error
	return n > 0, err
}

// HasShareRight is true for the owner, an Admin member, or a member whose
// can_share flag is set.
func HasShareRight(db *gorm.DB, workspaceID, userID uint64) (bool, error) {
	owner, err := IsOwner(db, workspaceID, userID)
	if err != nil || owner {
		return owner, err
	}
	var n int64
	err = db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ? AND (can_share = ? OR role = ?)",
			workspaceID, userID, true, model.RoleAdmin).
		Count(&n).Error
	return n > 0, err
}

// AddMember inserts a membership row, enforcing the member cap. Runs against
// whatever db handle the caller passes, typically a transaction.
func AddMember(db *gorm.DB, workspaceID, userID uint64, role model.Role, canEdit, canShare bool) error {
	var count int64
	if err := db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error; err != nil {
		return err
	}
	if count >= MaxMembers {
		return apperr.BusinessRule("workspace member limit reached (max %d)", MaxMembers)
	}
	return db.Create(&model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CanEdit:     canEdit,
		CanShare:    canShare,
		JoinedAt:    time.Now().UTC(),
	}).Error
}

type MemberView struct {
	UserID   uint64     `json:"user_id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	CanEdit  bool       `json:"can_edit"`
	CanShare bool       `json:"can_share"`
	JoinedAt time.Time  `json:"joined_at"`
}

// ListMembers returns the workspace roster ordered by join time. The caller
// must belong to the workspace.
func (s *Service) ListMembers(ctx context.Context, workspaceID, callerID uint64) ([]MemberView, error) {
	db := s.DB.WithContext(ctx)

	if err := s.mustExist(db, workspaceID); err != nil {
		return nil, err
	}
	member, err := IsMember(db, workspaceID, callerID)
	if err != nil {
		return nil, err
	}
	if !member {
		owner, err := IsOwner(db, workspaceID, callerID)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, apperr.PermissionDenied("not a member of this workspace")
		}
	}

	var out []MemberView
	err = db.Raw(`
select m.user_id, u.username, m.role, m.can_edit, m.can_share, m.joined_at
from workspace_members m
join users u on u.id = m.user_id
where m.workspace_id = ?
order by m.joined_at asc
`, workspaceID).Scan(&out).Error
	return out, err
}

// RemoveMember is owner-only; the owner's own row is untouchable.
func (s *Service) RemoveMember(ctx context.Context, workspaceID, callerID, targetUserID uint64) error {
	db := s.DB.WithContext(ctx)

	ws, err := s.load(db, workspaceID)
	if err != nil {
		return err
	}
	if ws.OwnerUserID != callerID {
		return apperr.PermissionDenied("only the workspace owner may remove members")
	}
	if targetUserID == ws.OwnerUserID {
		return apperr.BusinessRule("the workspace owner cannot be removed")
	}

	res := db.Where("workspace_id = ? AND user_id = ?", workspaceID, targetUserID).
		Delete(&model.WorkspaceMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("member not found in workspace")
	}
	return nil
}

// UpdatePermissions is owner-only and never applies to the owner's own row.
func (s *Service) UpdatePermissions(ctx context.Context, workspaceID, callerID, targetUserID uint64, canEdit, canShare bool) error {
	db := s.DB.WithContext(ctx)

	ws, err := s.load(db, workspaceID)
	if err != nil {
		return err
	}
	if ws.OwnerUserID != callerID {
		return apperr.PermissionDenied("only the workspace owner may change permissions")
	}
	if targetUserID == ws.OwnerUserID {
		return apperr.BusinessRule("the owner's permissions cannot be changed")
	}

	res := db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, targetUserID).
		Updates(map[string]any{"can_edit": canEdit, "can_share": canShare})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("member not found in workspace")
	}
	return nil
}

// Leave removes the caller's own membership. The owner cannot leave; ownership
// transfer is unsupported, so the way out is deleting the workspace.
func (s *Service) Leave(ctx context.Context, workspaceID, callerID uint64) error {
	db := s.DB.WithContext(ctx)

	ws, err := s.load(db, workspaceID)
	if err != nil {
		return err
	}
	if ws.OwnerUserID == callerID {
		return apperr.BusinessRule("the owner cannot leave; transfer or delete the workspace instead")
	}

	res := db.Where("workspace_id = ? AND user_id = ?", workspaceID, callerID).
		Delete(&model.WorkspaceMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.PermissionDenied("not a member of this workspace")
	}
	return nil
}

func (s *Service) load(db *gorm.DB, workspaceID uint64) (*model.Workspace, error) {
	var ws model.Workspace
	if err := db.Where("id = ?", workspaceID).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("workspace not found")
		}
		return nil, err
	}
	return &ws, nil
}

func (s *Service) mustExist(db *gorm.DB, workspaceID uint64) error {
	_, err := s.load(db, workspaceID)
	return err
}
