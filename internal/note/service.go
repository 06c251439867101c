package note

import (
	"context"
	"strings"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/jobs"
	"noteworks/internal/model"
	"noteworks/internal/workspace"

	"gorm.io/gorm"
)

type Service struct {
	DB    *gorm.DB
	Sched *jobs.Scheduler
}

type TagRef struct {
	ID    uint64  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type View struct {
	ID            uint64         `json:"id"`
	WorkspaceID   uint64         `json:"workspace_id"`
	Title         string         `json:"title"`
	Type          model.NoteType `json:"type"`
	Content       string         `json:"content"`
	CategoryID    *uint64        `json:"category_id"`
	CategoryName  *string        `json:"category_name"`
	CategoryColor *string        `json:"category_color"`
	Tags          []TagRef       `json:"tags" gorm:"-"`
	IsDeleted     bool           `json:"is_deleted"`
	DeletedTime   *time.Time     `json:"deleted_time"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type CreateInput struct {
	WorkspaceID uint64
	Title       string
	Type        model.NoteType
	CategoryID  *uint64
	TagIDs      []uint64
}

// Create requires edit rights on the workspace. Content is seeded from the
// type's default template; initial tags are filtered to ones the caller owns.
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (uint64, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return 0, apperr.Validation("note title is required")
	}
	switch in.Type {
	case model.NoteMarkdown, model.NoteCanvas, model.NoteMindMap, model.NoteRichText:
	default:
		return 0, apperr.Validation("unknown note type %q", in.Type)
	}

	db := s.DB.WithContext(ctx)

	canCreate, err := workspace.HasEditRight(db, in.WorkspaceID, userID)
	if err != nil {
		return 0, err
	}
	if !canCreate {
		return 0, apperr.PermissionDenied("no permission to create notes in this workspace")
	}

	now := time.Now().UTC()
	n := model.Note{
		WorkspaceID: in.WorkspaceID,
		Title:       in.Title,
		Type:        in.Type,
		Content:     model.DefaultContent(in.Type),
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		if len(in.TagIDs) == 0 {
			return nil
		}
		var owned []uint64
		if err := tx.Model(&model.Tag{}).
			Where("user_id = ? AND id IN ?", userID, in.TagIDs).
			Pluck("id", &owned).Error; err != nil {
			return err
		}
		for _, tagID := range dedupe(owned) {
			if err := tx.Create(&model.NoteTag{NoteID: n.ID, TagID: tagID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}

type UpdateInput struct {
	Title      string
	Content    string
	CategoryID *uint64 // nil clears the category
}

// Update changes title/content when non-empty and always applies the category
// reference, nil included. Tags have their own operation.
func (s *Service) Update(ctx context.Context, noteID, userID uint64, in UpdateInput) error {
	db := s.DB.WithContext(ctx)

	n, err := loadNote(db, noteID)
	if err != nil {
		return err
	}
	if n.IsDeleted {
		return apperr.InvalidState("note is in the recycle bin")
	}

	canEdit, err := workspace.HasEditRight(db, n.WorkspaceID, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return apperr.PermissionDenied("no permission to edit this note")
	}

	updates := map[string]any{
		"category_id": in.CategoryID,
		"updated_at":  time.Now().UTC(),
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		updates["title"] = t
	}
	if strings.TrimSpace(in.Content) != "" {
		updates["content"] = in.Content
	}

	return db.Model(&model.Note{}).Where("id = ?", noteID).Updates(updates).Error
}

// Get returns one active note. Membership in the note's workspace is enough;
// inaccessible notes read as not found.
func (s *Service) Get(ctx context.Context, noteID, userID uint64) (*View, error) {
	db := s.DB.WithContext(ctx)

	n, err := loadNote(db, noteID)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return nil, apperr.NotFound("note not found")
	}

	member, err := workspace.IsMember(db, n.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		owner, err := workspace.IsOwner(db, n.WorkspaceID, userID)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, apperr.NotFound("note not found")
		}
	}

	views, err := s.assembleViews(db, "n.id = ?", []any{n.ID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperr.NotFound("note not found")
	}
	return &views[0], nil
}

// List returns all active notes visible to the user, most recently updated
// first.
func (s *Service) List(ctx context.Context, userID uint64) ([]View, error) {
	return s.Filter(ctx, userID, nil, nil)
}

// Filter narrows the visible note set by category and/or tags. Tag filtering
// is AND: the note must carry every listed tag.
func (s *Service) Filter(ctx context.Context, userID uint64, categoryID *uint64, tagIDs []uint64) ([]View, error) {
	db := s.DB.WithContext(ctx)

	wsIDs, err := AccessibleWorkspaceIDs(db, userID)
	if err != nil {
		return nil, err
	}
	if len(wsIDs) == 0 {
		return []View{}, nil
	}

	cond := "n.workspace_id IN ? AND n.is_deleted = ?"
	args := []any{wsIDs, false}

	if categoryID != nil && *categoryID > 0 {
		cond += " AND n.category_id = ?"
		args = append(args, *categoryID)
	}

	tagIDs = dedupe(tagIDs)
	if len(tagIDs) > 0 {
		cond += ` AND n.id IN (
  select nt.note_id from note_tags nt
  where nt.tag_id IN ?
  group by nt.note_id
  having count(distinct nt.tag_id) = ?)`
		args = append(args, tagIDs, len(tagIDs))
	}

	return s.assembleViews(db, cond, args)
}

// assembleViews runs the note+category query and attaches tags with one extra
// round-trip instead of an ORM navigation graph.
func (s *Service) assembleViews(db *gorm.DB, cond string, args []any) ([]View, error) {
	var views []View
	q := `
select n.id, n.workspace_id, n.title, n.type, n.content,
       n.category_id, c.name as category_name, c.color as category_color,
       n.is_deleted, n.deleted_time, n.created_at, n.updated_at
from notes n
left join categories c on c.id = n.category_id
where ` + cond + `
order by n.updated_at desc`
	if err := db.Raw(q, args...).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return []View{}, nil
	}

	ids := make([]uint64, 0, len(views))
	for i := range views {
		views[i].Tags = []TagRef{}
		ids = append(ids, views[i].ID)
	}

	var rows []struct {
		NoteID uint64
		ID     uint64
		Name   string
		Color  *string
	}
	if err := db.Raw(`
select nt.note_id, t.id, t.name, t.color
from note_tags nt
join tags t on t.id = nt.tag_id
where nt.note_id IN ?
order by t.name asc
`, ids).Scan(&rows).Error; err != nil {
		return nil, err
	}

	byNote := make(map[uint64][]TagRef, len(views))
	for _, r := range rows {
		byNote[r.NoteID] = append(byNote[r.NoteID], TagRef{ID: r.ID, Name: r.Name, Color: r.Color})
	}
	for i := range views {
		if tags, ok := byNote[views[i].ID]; ok {
			views[i].Tags = tags
		}
	}
	return views, nil
}

func dedupe(ids []uint64) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
