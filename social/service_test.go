package social

import (
	"context"
	"testing"

	"github.com/ayakura/gamehub/server/model"
	"github.com/ayakura/gamehub/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, nop()), db
}

func TestSendRequest_CreatesPending(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.RequesterID)
	assert.Equal(t, int64(2), link.RecipientID)
	assert.Equal(t, model.FriendPending, link.Status)
	assert.Nil(t, link.AcceptedAt)
}

func TestSendRequest_SelfTarget(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.SendRequest(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestSendRequest_DuplicateSameDirection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrRequestPending)
}

func TestSendRequest_DuplicateReverseDirection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	// The reverse request collides with the outstanding one.
	_, err = svc.SendRequest(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrRequestPending)
}

func TestSendRequest_AlreadyFriends(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, 2, link.ID))

	_, err = svc.SendRequest(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
	_, err = svc.SendRequest(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestAcceptRequest_CreatesMirrorRow(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, 2, link.ID))

	var links []model.FriendLink
	require.NoError(t, db.Order("id").Find(&links).Error)
	require.Len(t, links, 2)

	assert.Equal(t, int64(1), links[0].RequesterID)
	assert.Equal(t, int64(2), links[0].RecipientID)
	assert.Equal(t, model.FriendAccepted, links[0].Status)
	assert.NotNil(t, links[0].AcceptedAt)

	assert.Equal(t, int64(2), links[1].RequesterID)
	assert.Equal(t, int64(1), links[1].RecipientID)
	assert.Equal(t, model.FriendAccepted, links[1].Status)
	assert.NotNil(t, links[1].AcceptedAt)
}

func TestAcceptRequest_OnlyRecipientMayAccept(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)

	// Requester cannot accept their own request.
	assert.ErrorIs(t, svc.AcceptRequest(ctx, 1, link.ID), ErrNotFound)
	// A third party cannot accept either.
	assert.ErrorIs(t, svc.AcceptRequest(ctx, 3, link.ID), ErrNotFound)
}

func TestAcceptRequest_UnknownID(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.AcceptRequest(context.Background(), 2, 999), ErrNotFound)
}

func TestRejectRequest_RemovesPending(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.RejectRequest(ctx, 2, link.ID))

	var count int64
	db.Model(&model.FriendLink{}).Count(&count)
	assert.Zero(t, count)

	// A rejected pair can request again.
	_, err = svc.SendRequest(ctx, 1, 2)
	assert.NoError(t, err)
}

func TestCancelRequest_OnlyRequesterMayCancel(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CancelRequest(ctx, 2, link.ID), ErrNotFound)
	assert.NoError(t, svc.CancelRequest(ctx, 1, link.ID))
}

func TestUnfriend_RemovesBothRows(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, 2, link.ID))

	// Either side may unfriend.
	require.NoError(t, svc.Unfriend(ctx, 2, 1))

	var count int64
	db.Model(&model.FriendLink{}).Count(&count)
	assert.Zero(t, count, "both directional rows must be gone")
}

func TestUnfriend_PendingIsNotAFriendship(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Unfriend(ctx, 1, 2), ErrNotFound)
}

func TestUnfriend_NotFriends(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.Unfriend(context.Background(), 1, 2), ErrNotFound)
}

func TestListFriends_SymmetricView(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, 2, link.ID))

	friendsOf1, err := svc.ListFriends(ctx, 1)
	require.NoError(t, err)
	require.Len(t, friendsOf1, 1)
	assert.Equal(t, int64(2), friendsOf1[0].RecipientID)

	friendsOf2, err := svc.ListFriends(ctx, 2)
	require.NoError(t, err)
	require.Len(t, friendsOf2, 1)
	assert.Equal(t, int64(1), friendsOf2[0].RecipientID)
}

func TestListFriends_ExcludesPending(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)

	friends, err := svc.ListFriends(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestListPendingIncoming(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, 1, 3)
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, 2, 3)
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, 3, 4)
	require.NoError(t, err)

	incoming, err := svc.ListPendingIncoming(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)
	for _, l := range incoming {
		assert.Equal(t, int64(3), l.RecipientID)
		assert.Equal(t, model.FriendPending, l.Status)
	}
}

func TestListSuggestions_ExcludesLinkedUsers(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		require.NoError(t, db.Create(&model.Account{
			Username:     name,
			PasswordHash: "x",
			Status:       model.StatusNormal,
		}).Error)
	}
	// alice(1) is friends with bob(2) and has a pending request to carol(3).
	link, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, 2, link.ID))
	_, err = svc.SendRequest(ctx, 1, 3)
	require.NoError(t, err)

	suggestions, err := svc.ListSuggestions(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "dave", suggestions[0].Username)
}

func TestListSuggestions_ExcludesBanned(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Create(&model.Account{Username: "alice", PasswordHash: "x", Status: model.StatusNormal}).Error)
	require.NoError(t, db.Create(&model.Account{Username: "banned", PasswordHash: "x", Status: model.StatusBanned}).Error)

	suggestions, err := svc.ListSuggestions(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}
