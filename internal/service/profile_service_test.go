package service

import (
	"context"
	"testing"

	"nyx/internal/cache"
	"nyx/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_RegisterValidation(t *testing.T) {
	s := newStack(t, nil)

	_, err := s.profileSvc.RegisterOwner(context.Background(), "   ", nil, models.VisibilityPublic)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = s.profileSvc.RegisterOwner(context.Background(), "Olga", nil, "friends")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = s.profileSvc.RegisterViewer(context.Background(), "", nil)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	p, err := s.profileSvc.RegisterOwner(context.Background(), " Olga ", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Olga", p.Name)
	assert.Equal(t, models.VisibilityPublic, p.Visibility)
}

func TestProfileService_GoingPublicApprovesPending(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := cache.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := newStack(t, store)

	owner := s.owner(t, "Olga", models.VisibilityPrivate)
	v1 := s.viewer(t, "One")
	v2 := s.viewer(t, "Two")
	for _, v := range []string{v1, v2} {
		_, err := s.followSvc.RequestFollow(ctx, owner, v)
		require.NoError(t, err)
	}

	// Warm the public owner cache without the private owner.
	_, err := s.feedSvc.Assemble(ctx, FeedRequest{Viewer: models.Anonymous()})
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PublicOwnersKey))

	approved, err := s.profileSvc.SetVisibility(ctx, owner, models.VisibilityPublic)
	require.NoError(t, err)
	assert.EqualValues(t, 2, approved)
	assert.False(t, mr.Exists(cache.PublicOwnersKey))

	for _, v := range []string{v1, v2} {
		ok, err := s.followSvc.IsFollowing(ctx, owner, v)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ids, err := s.profiles.PublicOwnerIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, owner)
}

func TestProfileService_GoingPrivateKeepsEdges(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	owner := s.owner(t, "Olga", models.VisibilityPublic)
	viewer := s.viewer(t, "Vic")
	_, err := s.followSvc.Follow(ctx, owner, viewer)
	require.NoError(t, err)

	approved, err := s.profileSvc.SetVisibility(ctx, owner, models.VisibilityPrivate)
	require.NoError(t, err)
	assert.Zero(t, approved)

	ok, err := s.followSvc.IsFollowing(ctx, owner, viewer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProfileService_SetVisibilityErrors(t *testing.T) {
	s := newStack(t, nil)

	_, err := s.profileSvc.SetVisibility(context.Background(), "missing", models.VisibilityPublic)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	owner := s.owner(t, "Olga", models.VisibilityPrivate)
	_, err = s.profileSvc.SetVisibility(context.Background(), owner, "hidden")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	p, err := s.profiles.GetOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, p.Visibility)
}

func TestProfileService_GetOwnerProfile(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	owner := s.owner(t, "Olga", models.VisibilityPrivate)
	follower := s.viewer(t, "Fan")
	stranger := s.viewer(t, "Stranger")
	blocked := s.viewer(t, "Blocked")

	_, err := s.followSvc.Follow(ctx, owner, follower)
	require.NoError(t, err)
	_, err = s.blockSvc.Block(ctx, models.Actor{ID: blocked, Role: models.RoleViewer}, models.Actor{ID: owner, Role: models.RoleOwner})
	require.NoError(t, err)

	view, err := s.profileSvc.GetOwnerProfile(ctx, owner, models.ViewerOf(follower))
	require.NoError(t, err)
	assert.True(t, view.Details)
	assert.Equal(t, "Olga", view.Author.Name)

	view, err = s.profileSvc.GetOwnerProfile(ctx, owner, models.ViewerOf(stranger))
	require.NoError(t, err)
	assert.False(t, view.Details)
	assert.Equal(t, models.VisibilityPrivate, view.Visibility)

	view, err = s.profileSvc.GetOwnerProfile(ctx, owner, models.Anonymous())
	require.NoError(t, err)
	assert.False(t, view.Details)

	_, err = s.profileSvc.GetOwnerProfile(ctx, owner, models.ViewerOf(blocked))
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
