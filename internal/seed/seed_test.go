package seed

import (
	"context"
	"strings"
	"testing"

	"nyx/internal/bootstrap"
	"nyx/internal/models"
	"nyx/internal/service"
	"nyx/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *bootstrap.Engine {
	t.Helper()
	return bootstrap.NewEngine(testutil.NewSQLiteDB(t), nil, nil)
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "owners: []\nusers: []\n", "decode scenario"},
		{"duplicate name", "owners: [{name: a}]\nviewers: [a]\n", "duplicate name"},
		{"unknown owner", "viewers: [v]\nfollows: [{owner: x, viewer: v}]\n", "unknown name"},
		{"viewer as owner", "viewers: [v, w]\nitems: [{owner: v}]\n", "to be a owner"},
		{"bad status", "owners: [{name: o}]\nviewers: [v]\nfollows: [{owner: o, viewer: v, status: maybe}]\n", "status"},
		{"bad visibility", "owners: [{name: o, visibility: secret}]\n", "visibility"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenario_ApplyBuildsGraph(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	s, err := LoadScenarioFile("testdata/scenario.yml")
	require.NoError(t, err)
	h, err := s.Apply(ctx, e)
	require.NoError(t, err)
	require.Len(t, h, 5)

	status, err := e.Follow.Status(ctx, h["olga"], h["wes"])
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusPending, status)

	feed := func(viewer string) []string {
		page, err := e.Feed.Assemble(ctx, service.FeedRequest{Viewer: models.ViewerOf(h[viewer]), Limit: 50})
		require.NoError(t, err)
		var bodies []string
		for _, entry := range page.Items {
			bodies = append(bodies, entry.Item.Body)
		}
		return bodies
	}

	// vic follows both owners and sees everything.
	assert.Len(t, feed("vic"), 4)
	// wes is still pending on olga, so only paul's public item shows.
	assert.Equal(t, []string{"hello everyone"}, feed("wes"))
	// zed blocked paul and cannot see olga.
	assert.Empty(t, feed("zed"))

	page, err := e.Feed.Assemble(ctx, service.FeedRequest{Viewer: models.ViewerOf(h["wes"]), Filter: service.FeedFavorites})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "paul", page.Items[0].Author.Name)
}

func TestFactory_SeedMesh(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	f := NewFactory(e, Options{Seed: 42, MaxDays: 7})

	mesh, err := f.SeedMesh(ctx, MeshOptions{
		Owners:        3,
		Viewers:       5,
		ItemsPerOwner: 4,
		PrivateOwners: 50,
		PrivateItems:  50,
		FollowRatio:   100,
		ApproveRatio:  100,
		FavoriteRatio: 100,
	})
	require.NoError(t, err)
	assert.Len(t, mesh.Owners, 3)
	assert.Len(t, mesh.Viewers, 5)
	assert.Equal(t, 12, mesh.Items)

	// Every viewer follows every owner with approval, so every item is visible.
	page, err := e.Feed.Assemble(ctx, service.FeedRequest{Viewer: models.ViewerOf(mesh.Viewers[0].ID), Limit: 50})
	require.NoError(t, err)
	assert.Len(t, page.Items, 12)

	ids, err := e.Favorite.OwnerIDs(ctx, mesh.Viewers[0].ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestFactory_BuildItemSpreadsTimestamps(t *testing.T) {
	f := NewFactory(nil, Options{Seed: 7, MaxDays: 2})
	for i := 0; i < 20; i++ {
		item := f.BuildItem("o", models.VisibilityPublic)
		assert.NotEmpty(t, item.Body)
		assert.LessOrEqual(t, len(item.Tags), 3)
		assert.False(t, item.CreatedAt.IsZero())
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s, err := LoadScenarioFile("testdata/scenario.yml")
	require.NoError(t, err)
	_, err = s.Apply(ctx, e)
	require.NoError(t, err)

	require.NoError(t, ClearAll(e.DB))

	ids, err := e.Profiles.PublicOwnerIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
