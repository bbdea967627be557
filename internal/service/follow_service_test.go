package service

import (
	"context"
	"testing"

	"nyx/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_RequestLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	owner := s.owner(t, "Olga", models.VisibilityPrivate)
	viewer := s.viewer(t, "Vic")

	out, err := s.followSvc.RequestFollow(ctx, owner, viewer)
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, models.FollowStatusPending, out.Status)

	following, err := s.followSvc.IsFollowing(ctx, owner, viewer)
	require.NoError(t, err)
	assert.False(t, following)

	// A second request leaves the edge untouched.
	out, err = s.followSvc.Follow(ctx, owner, viewer)
	require.NoError(t, err)
	assert.True(t, out.AlreadyExists())
	assert.Equal(t, models.FollowStatusPending, out.Status)

	ok, err := s.followSvc.ApproveFollow(ctx, owner, viewer)
	require.NoError(t, err)
	assert.True(t, ok)

	status, err := s.followSvc.Status(ctx, owner, viewer)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusApproved, status)

	// Reject only removes pending requests.
	removed, err := s.followSvc.RejectFollow(ctx, owner, viewer)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.followSvc.Unfollow(ctx, owner, viewer)
	require.NoError(t, err)
	assert.True(t, removed)

	status, err = s.followSvc.Status(ctx, owner, viewer)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusNone, status)
}

func TestFollowService_ApproveWithoutRequest(t *testing.T) {
	s := newStack(t, nil)
	owner := s.owner(t, "Olga", models.VisibilityPrivate)
	viewer := s.viewer(t, "Vic")

	ok, err := s.followSvc.ApproveFollow(context.Background(), owner, viewer)
	require.NoError(t, err)
	assert.False(t, ok)

	status, err := s.followSvc.Status(context.Background(), owner, viewer)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusNone, status)
}

func TestFollowService_FollowOwnerByVisibility(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	open := s.owner(t, "Open", models.VisibilityPublic)
	closed := s.owner(t, "Closed", models.VisibilityPrivate)
	viewer := s.viewer(t, "Vic")

	out, err := s.followSvc.FollowOwner(ctx, open, viewer)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusApproved, out.Status)

	out, err = s.followSvc.FollowOwner(ctx, closed, viewer)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusPending, out.Status)

	_, err = s.followSvc.FollowOwner(ctx, "missing", viewer)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, err = s.followSvc.FollowOwner(ctx, viewer, viewer)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestFollowService_StatusBatch(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	a := s.owner(t, "A", models.VisibilityPublic)
	b := s.owner(t, "B", models.VisibilityPrivate)
	c := s.owner(t, "C", models.VisibilityPublic)
	viewer := s.viewer(t, "Vic")

	_, err := s.followSvc.Follow(ctx, a, viewer)
	require.NoError(t, err)
	_, err = s.followSvc.RequestFollow(ctx, b, viewer)
	require.NoError(t, err)

	got, err := s.followSvc.StatusBatch(ctx, []string{a, b, c}, models.ViewerOf(viewer))
	require.NoError(t, err)
	assert.Equal(t, map[string]models.FollowStatus{
		a: models.FollowStatusApproved,
		b: models.FollowStatusPending,
		c: models.FollowStatusNone,
	}, got)

	got, err = s.followSvc.StatusBatch(ctx, []string{a, b}, models.Anonymous())
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusNone, got[a])
	assert.Equal(t, models.FollowStatusNone, got[b])
}

func TestFollowService_ListFollowersSkipsBlockedViewers(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	owner := s.owner(t, "Olga", models.VisibilityPublic)
	v1 := s.viewer(t, "One")
	v2 := s.viewer(t, "Two")
	v3 := s.viewer(t, "Three")
	for _, v := range []string{v1, v2, v3} {
		_, err := s.followSvc.Follow(ctx, owner, v)
		require.NoError(t, err)
	}
	_, err := s.blockSvc.Block(ctx, models.Actor{ID: owner, Role: models.RoleOwner}, models.Actor{ID: v2, Role: models.RoleViewer})
	require.NoError(t, err)

	page, err := s.followSvc.ListFollowers(ctx, owner, []string{v3}, "", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, v1, page.Items[0].ViewerID)
	assert.Equal(t, "One", page.Items[0].Author.Name)
	assert.Equal(t, models.RoleViewer, page.Items[0].Author.Role)
	assert.False(t, page.HasMore)
}

func TestFollowService_PendingQueue(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	owner := s.owner(t, "Olga", models.VisibilityPrivate)
	v1 := s.viewer(t, "One")
	v2 := s.viewer(t, "Two")
	for _, v := range []string{v1, v2} {
		_, err := s.followSvc.RequestFollow(ctx, owner, v)
		require.NoError(t, err)
	}

	count, err := s.followSvc.PendingCount(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	page, err := s.followSvc.ListPending(ctx, owner, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasMore)

	next, err := s.followSvc.ListPending(ctx, owner, page.NextCursor, 1)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.NotEqual(t, page.Items[0].ViewerID, next.Items[0].ViewerID)

	cancelled, err := s.followSvc.CancelRequest(ctx, owner, v1)
	require.NoError(t, err)
	assert.True(t, cancelled)

	approved, err := s.followSvc.ApproveAllPending(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, approved)

	ids, err := s.followSvc.FollowingIDs(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, []string{owner}, ids)

	following, err := s.followSvc.ListFollowing(ctx, v2, "", 10)
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, "Olga", following.Items[0].Author.Name)
}

func TestFollowService_MalformedCursor(t *testing.T) {
	s := newStack(t, nil)
	_, err := s.followSvc.ListFollowing(context.Background(), "v", "%%%", 10)
	assert.True(t, models.HasCode(err, models.CodeInvalidCursor))
	assert.ErrorIs(t, err, models.ErrMalformedCursor)
}
