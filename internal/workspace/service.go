package workspace

import (
	"context"
	"strings"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/jobs"
	"noteworks/internal/model"

	"gorm.io/gorm"
)

type Service struct {
	DB    *gorm.DB
	Sched *jobs.Scheduler
}

type View struct {
	ID          uint64              `json:"id"`
	Name        string              `json:"name"`
	Type        model.WorkspaceType `json:"type"`
	OwnerUserID uint64              `json:"owner_user_id"`
	CreatedAt   time.Time           `json:"created_at"`
	MemberCount int64               `json:"member_count"`
	NoteCount   int64               `json:"note_count"`
}

// Create inserts the workspace and its Owner membership in one transaction.
func (s *Service) Create(ctx context.Context, ownerID uint64, name string, typ model.WorkspaceType) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("workspace name is required")
	}
	if typ != model.WorkspacePersonal && typ != model.WorkspaceTeam {
		return nil, apperr.Validation("unknown workspace type %q", typ)
	}

	now := time.Now().UTC()
	ws := model.Workspace{Name: name, Type: typ, OwnerUserID: ownerID, CreatedAt: now}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ws).Error; err != nil {
			return err
		}
		return tx.Create(&model.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      ownerID,
			Role:        model.RoleOwner,
			JoinedAt:    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &View{
		ID:          ws.ID,
		Name:        ws.Name,
		Type:        ws.Type,
		OwnerUserID: ws.OwnerUserID,
		CreatedAt:   ws.CreatedAt,
		MemberCount: 1,
		NoteCount:   0,
	}, nil
}

// Delete removes a workspace. Refuses while active notes remain unless force
// is set, in which case those notes are soft-deleted first, then memberships,
// then the workspace row. The cascade runs in one transaction so a failure
// never strands a half-deleted workspace.
func (s *Service) Delete(ctx context.Context, workspaceID, callerID uint64, force bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ws, err := s.load(tx, workspaceID)
		if err != nil {
			return err
		}
		if ws.OwnerUserID != callerID {
			return apperr.PermissionDenied("only the workspace owner may delete it")
		}

		var activeIDs []uint64
		if err := tx.Model(&model.Note{}).
			Where("workspace_id = ? AND is_deleted = ?", workspaceID, false).
			Pluck("id", &activeIDs).Error; err != nil {
			return err
		}

		if len(activeIDs) > 0 {
			if !force {
				return apperr.BusinessRule("workspace has active notes")
			}
			now := time.Now().UTC()
			if err := tx.Model(&model.Note{}).
				Where("id IN ?", activeIDs).
				Updates(map[string]any{"is_deleted": true, "deleted_time": now, "updated_at": now}).Error; err != nil {
				return err
			}
			if err := s.Sched.SchedulePurge(tx, callerID, activeIDs, now); err != nil {
				return err
			}
		}

		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&model.WorkspaceInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&model.WorkspaceMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Workspace{}, ws.ID).Error
	})
}

// GetUserWorkspaces lists every workspace the user owns or belongs to, with
// member and active-note counts computed at query time.
func (s *Service) GetUserWorkspaces(ctx context.Context, userID uint64) ([]View, error) {
	var out []View
	err := s.DB.WithContext(ctx).Raw(`
select w.id, w.name, w.type, w.owner_user_id, w.created_at,
  (select count(*) from workspace_members m2 where m2.workspace_id = w.id) as member_count,
  (select count(*) from notes n where n.workspace_id = w.id and n.is_deleted = ?) as note_count
from workspaces w
where w.owner_user_id = ?
   or w.id in (select m.workspace_id from workspace_members m where m.user_id = ?)
order by w.created_at asc
`, false, userID, userID).Scan(&out).Error
	if out == nil {
		out = []View{}
	}
	return out, err
}

// GetDetail returns a single workspace view for members; non-members learn
// nothing, not even that the workspace exists.
func (s *Service) GetDetail(ctx context.Context, workspaceID, callerID uint64) (*View, error) {
	db := s.DB.WithContext(ctx)

	ws, err := s.load(db, workspaceID)
	if err != nil {
		return nil, err
	}

	member, err := IsMember(db, workspaceID, callerID)
	if err != nil {
		return nil, err
	}
	if !member && ws.OwnerUserID != callerID {
		return nil, apperr.NotFound("workspace not found")
	}

	v := View{
		ID:          ws.ID,
		Name:        ws.Name,
		Type:        ws.Type,
		OwnerUserID: ws.OwnerUserID,
		CreatedAt:   ws.CreatedAt,
	}
	if err := db.Model(&model.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).Count(&v.MemberCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Note{}).
		Where("workspace_id = ? AND is_deleted = ?", workspaceID, false).Count(&v.NoteCount).Error; err != nil {
		return nil, err
	}
	return &v, nil
}
