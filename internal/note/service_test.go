package note_test

import (
	"context"
	"testing"
	"time"

	"noteworks/internal/apperr"
	"noteworks/internal/jobs"
	"noteworks/internal/model"
	"noteworks/internal/note"
	"noteworks/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*note.Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	return &note.Service{DB: db, Sched: jobs.NewScheduler(0)}, db
}

func newTag(t *testing.T, db *gorm.DB, userID uint64, name string) *model.Tag {
	t.Helper()
	tag := model.Tag{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

func TestCreateNoteDefaults(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")

	for typ, want := range map[model.NoteType]string{
		model.NoteMarkdown: `{"md": "", "html": ""}`,
		model.NoteCanvas:   `{"elements": []}`,
		model.NoteMindMap:  `{"nodes": [], "edges": []}`,
		model.NoteRichText: `{"content": ""}`,
	} {
		id, err := svc.Create(ctx, owner.ID, note.CreateInput{
			WorkspaceID: ws.ID, Title: "note " + string(typ), Type: typ,
		})
		require.NoError(t, err)

		var n model.Note
		require.NoError(t, db.First(&n, id).Error)
		assert.Equal(t, want, n.Content, "type %s", typ)
		assert.False(t, n.IsDeleted)
		assert.Nil(t, n.DeletedTime)
	}
}

func TestCreateNotePermissions(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	viewer := testutil.NewUser(t, db, "bob")
	editor := testutil.NewUser(t, db, "carol")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	testutil.NewMember(t, db, ws.ID, viewer.ID, false, false)
	testutil.NewMember(t, db, ws.ID, editor.ID, true, false)

	_, err := svc.Create(ctx, viewer.ID, note.CreateInput{WorkspaceID: ws.ID, Title: "x", Type: model.NoteMarkdown})
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	_, err = svc.Create(ctx, editor.ID, note.CreateInput{WorkspaceID: ws.ID, Title: "x", Type: model.NoteMarkdown})
	require.NoError(t, err)
}

func TestCreateNoteValidation(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")

	_, err := svc.Create(ctx, owner.ID, note.CreateInput{WorkspaceID: ws.ID, Title: "  ", Type: model.NoteMarkdown})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(ctx, owner.ID, note.CreateInput{WorkspaceID: ws.ID, Title: "x", Type: model.NoteType("Word")})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateNoteFiltersForeignTags(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	other := testutil.NewUser(t, db, "bob")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	mine := newTag(t, db, owner.ID, "mine")
	foreign := newTag(t, db, other.ID, "foreign")

	id, err := svc.Create(ctx, owner.ID, note.CreateInput{
		WorkspaceID: ws.ID, Title: "x", Type: model.NoteMarkdown,
		TagIDs: []uint64{mine.ID, foreign.ID, mine.ID},
	})
	require.NoError(t, err)

	var bound []uint64
	require.NoError(t, db.Model(&model.NoteTag{}).Where("note_id = ?", id).Pluck("tag_id", &bound).Error)
	assert.Equal(t, []uint64{mine.ID}, bound)
}

func TestFilterNotesByTagsIsAnd(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	t1 := newTag(t, db, owner.ID, "t1")
	t2 := newTag(t, db, owner.ID, "t2")

	both, err := svc.Create(ctx, owner.ID, note.CreateInput{
		WorkspaceID: ws.ID, Title: "both", Type: model.NoteMarkdown,
		TagIDs: []uint64{t1.ID, t2.ID},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, note.CreateInput{
		WorkspaceID: ws.ID, Title: "only t1", Type: model.NoteMarkdown,
		TagIDs: []uint64{t1.ID},
	})
	require.NoError(t, err)

	views, err := svc.Filter(ctx, owner.ID, nil, []uint64{t1.ID, t2.ID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, both, views[0].ID)
	require.Len(t, views[0].Tags, 2)

	// single tag matches both notes
	views, err = svc.Filter(ctx, owner.ID, nil, []uint64{t1.ID})
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestFilterNotesByCategory(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	cat := model.Category{UserID: owner.ID, Name: "work", SortOrder: 1, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&cat).Error)

	tagged, err := svc.Create(ctx, owner.ID, note.CreateInput{
		WorkspaceID: ws.ID, Title: "in cat", Type: model.NoteMarkdown, CategoryID: &cat.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, note.CreateInput{
		WorkspaceID: ws.ID, Title: "no cat", Type: model.NoteMarkdown,
	})
	require.NoError(t, err)

	views, err := svc.Filter(ctx, owner.ID, &cat.ID, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, tagged, views[0].ID)
	require.NotNil(t, views[0].CategoryName)
	assert.Equal(t, "work", *views[0].CategoryName)
}

func TestListScopedToAccessibleWorkspaces(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	wsA := testutil.NewWorkspace(t, db, alice.ID, "a")
	wsB := testutil.NewWorkspace(t, db, bob.ID, "b")
	testutil.NewNote(t, db, wsA.ID, "alice note")
	testutil.NewNote(t, db, wsB.ID, "bob note")

	views, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "alice note", views[0].Title)

	// joining B's workspace exposes its notes
	testutil.NewMember(t, db, wsB.ID, alice.ID, false, false)
	views, err = svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestGetNote(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	viewer := testutil.NewUser(t, db, "bob")
	outsider := testutil.NewUser(t, db, "carol")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	testutil.NewMember(t, db, ws.ID, viewer.ID, false, false)
	n := testutil.NewNote(t, db, ws.ID, "n")

	// membership without edit rights suffices for reading
	view, err := svc.Get(ctx, n.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", view.Title)

	_, err = svc.Get(ctx, n.ID, outsider.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.Get(ctx, 9999, owner.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateNote(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	viewer := testutil.NewUser(t, db, "bob")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	testutil.NewMember(t, db, ws.ID, viewer.ID, false, false)
	cat := model.Category{UserID: owner.ID, Name: "work", SortOrder: 1, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&cat).Error)
	n := testutil.NewNote(t, db, ws.ID, "before")

	err := svc.Update(ctx, n.ID, viewer.ID, note.UpdateInput{Title: "hacked"})
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	// empty title leaves the old one; category pointer is always applied
	require.NoError(t, svc.Update(ctx, n.ID, owner.ID, note.UpdateInput{Content: "new body", CategoryID: &cat.ID}))

	var got model.Note
	require.NoError(t, db.First(&got, n.ID).Error)
	assert.Equal(t, "before", got.Title)
	assert.Equal(t, "new body", got.Content)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)

	// nil category clears the reference
	require.NoError(t, svc.Update(ctx, n.ID, owner.ID, note.UpdateInput{Title: "after"}))
	require.NoError(t, db.First(&got, n.ID).Error)
	assert.Equal(t, "after", got.Title)
	assert.Nil(t, got.CategoryID)
}

func TestUpdateDeletedNote(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	n := testutil.NewNote(t, db, ws.ID, "n")
	require.NoError(t, db.Model(&model.Note{}).Where("id = ?", n.ID).Update("is_deleted", true).Error)

	err := svc.Update(ctx, n.ID, owner.ID, note.UpdateInput{Title: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestAccessibleWorkspaceIDs(t *testing.T) {
	_, db := newService(t)
	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	wsA := testutil.NewWorkspace(t, db, alice.ID, "a")
	wsB := testutil.NewWorkspace(t, db, bob.ID, "b")
	testutil.NewMember(t, db, wsB.ID, alice.ID, false, false)

	ids, err := note.AccessibleWorkspaceIDs(db, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{wsA.ID, wsB.ID}, ids)
}
