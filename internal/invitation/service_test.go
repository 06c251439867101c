package invitation_test

import (
	"context"
	"fmt"
	"testing"

	"noteworks/internal/apperr"
	"noteworks/internal/invitation"
	"noteworks/internal/model"
	"noteworks/internal/testutil"
	"noteworks/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *invitation.Service
	owner *model.User
	guest *model.User
	ws    *model.Workspace
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	owner := testutil.NewUser(t, db, "alice")
	guest := testutil.NewUser(t, db, "bob")
	ws := testutil.NewWorkspace(t, db, owner.ID, "ws")
	return &fixture{
		db:    db,
		svc:   &invitation.Service{DB: db},
		owner: owner,
		guest: guest,
		ws:    ws,
	}
}

func TestSendInvitation(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	id, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{
		InviteeUsername: "bob",
		CanEdit:         true,
		Message:         "join us",
	})
	require.NoError(t, err)

	var inv model.WorkspaceInvitation
	require.NoError(t, fx.db.First(&inv, id).Error)
	assert.Equal(t, model.InvitationPending, inv.Status)
	assert.Equal(t, fx.guest.ID, inv.InviteeUserID)
	assert.True(t, inv.CanEdit)
	assert.False(t, inv.CanShare)
	assert.Nil(t, inv.RespondedAt)
}

func TestSendInvitationRules(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	// unknown workspace
	_, err := fx.svc.Send(ctx, 9999, fx.owner.ID, invitation.SendInput{InviteeUsername: "bob"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// unknown invitee
	_, err = fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "ghost"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// self-invitation
	_, err = fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "alice"})
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))

	// caller without share right
	stranger := testutil.NewUser(t, fx.db, "carol")
	_, err = fx.svc.Send(ctx, fx.ws.ID, stranger.ID, invitation.SendInput{InviteeUsername: "bob"})
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	// already a member
	testutil.NewMember(t, fx.db, fx.ws.ID, fx.guest.ID, false, false)
	_, err = fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "bob"})
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))
}

func TestSendInvitationDuplicatePending(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	_, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "bob"})
	require.NoError(t, err)

	_, err = fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "bob"})
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))
}

func TestSendInvitationMemberWithShareRight(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	sharer := testutil.NewUser(t, fx.db, "carol")
	testutil.NewMember(t, fx.db, fx.ws.ID, sharer.ID, false, true)

	_, err := fx.svc.Send(ctx, fx.ws.ID, sharer.ID, invitation.SendInput{InviteeUsername: "bob"})
	require.NoError(t, err)
}

func TestSendInvitationCapacity(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	for i := 0; i < workspace.MaxMembers-1; i++ {
		u := testutil.NewUser(t, fx.db, fmt.Sprintf("member%d", i))
		testutil.NewMember(t, fx.db, fx.ws.ID, u.ID, false, false)
	}

	// 6 members in place; any further invite fails no matter who sends
	_, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "bob"})
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))
}

func TestAcceptInvitation(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	id, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{
		InviteeUsername: "bob", CanEdit: true, CanShare: true,
	})
	require.NoError(t, err)

	// only the invitee may accept
	err = fx.svc.Accept(ctx, id, fx.owner.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	require.NoError(t, fx.svc.Accept(ctx, id, fx.guest.ID))

	var m model.WorkspaceMember
	require.NoError(t, fx.db.Where("workspace_id = ? AND user_id = ?", fx.ws.ID, fx.guest.ID).First(&m).Error)
	assert.Equal(t, model.RoleMember, m.Role)
	assert.True(t, m.CanEdit)
	assert.True(t, m.CanShare)

	var inv model.WorkspaceInvitation
	require.NoError(t, fx.db.First(&inv, id).Error)
	assert.Equal(t, model.InvitationAccepted, inv.Status)
	assert.NotNil(t, inv.RespondedAt)

	// terminal: a second accept fails
	err = fx.svc.Accept(ctx, id, fx.guest.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestAcceptOverwritesExistingMembership(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	id, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{
		InviteeUsername: "bob", CanEdit: true,
	})
	require.NoError(t, err)

	// bob became a member through another path while the invitation was open
	testutil.NewMember(t, fx.db, fx.ws.ID, fx.guest.ID, false, true)

	require.NoError(t, fx.svc.Accept(ctx, id, fx.guest.ID))

	var members []model.WorkspaceMember
	require.NoError(t, fx.db.Where("workspace_id = ? AND user_id = ?", fx.ws.ID, fx.guest.ID).Find(&members).Error)
	require.Len(t, members, 1)
	// flags come from the invitation, replacing the prior ones
	assert.True(t, members[0].CanEdit)
	assert.False(t, members[0].CanShare)
}

func TestRejectInvitation(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	id, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{InviteeUsername: "bob"})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Reject(ctx, id, fx.guest.ID))

	ok, err := workspace.IsMember(fx.db, fx.ws.ID, fx.guest.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var inv model.WorkspaceInvitation
	require.NoError(t, fx.db.First(&inv, id).Error)
	assert.Equal(t, model.InvitationRejected, inv.Status)
}

func TestRevokeInvitation(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	sharer := testutil.NewUser(t, fx.db, "carol")
	testutil.NewMember(t, fx.db, fx.ws.ID, sharer.ID, false, true)

	id, err := fx.svc.Send(ctx, fx.ws.ID, sharer.ID, invitation.SendInput{InviteeUsername: "bob"})
	require.NoError(t, err)

	// a bystander cannot revoke
	err = fx.svc.Revoke(ctx, id, fx.guest.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	// the workspace owner can revoke an invitation sent by someone else
	require.NoError(t, fx.svc.Revoke(ctx, id, fx.owner.ID))

	var inv model.WorkspaceInvitation
	require.NoError(t, fx.db.First(&inv, id).Error)
	assert.Equal(t, model.InvitationRevoked, inv.Status)

	// accepting a revoked invitation is InvalidState, and grants nothing
	err = fx.svc.Accept(ctx, id, fx.guest.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	ok, err := workspace.IsMember(fx.db, fx.ws.ID, fx.guest.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListForUser(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	id, err := fx.svc.Send(ctx, fx.ws.ID, fx.owner.ID, invitation.SendInput{
		InviteeUsername: "bob", Message: "welcome",
	})
	require.NoError(t, err)

	views, err := fx.svc.ListForUser(ctx, fx.guest.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, id, views[0].ID)
	assert.Equal(t, "ws", views[0].WorkspaceName)
	assert.Equal(t, "alice", views[0].InviterUsername)
	assert.Equal(t, model.InvitationPending, views[0].Status)

	// the inviter has no inbound invitations
	mine, err := fx.svc.ListForUser(ctx, fx.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
