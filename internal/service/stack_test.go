package service

import (
	"context"
	"testing"

	"nyx/internal/cache"
	"nyx/internal/models"
	"nyx/internal/policy"
	"nyx/internal/repository"
	"nyx/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stack wires every service over one sqlite database.
type stack struct {
	db        *gorm.DB
	accounts  repository.AccountRepository
	profiles  repository.ProfileRepository
	follows   repository.FollowRepository
	blocks    repository.BlockRepository
	favorites repository.FavoriteRepository
	items     repository.ItemRepository

	followSvc   *FollowService
	blockSvc    *BlockService
	favoriteSvc *FavoriteService
	feedSvc     *FeedService
	itemSvc     *ItemService
	profileSvc  *ProfileService
}

func newStack(t *testing.T, store *cache.Store) *stack {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	s := &stack{
		db:        db,
		accounts:  repository.NewAccountRepository(db),
		profiles:  repository.NewProfileRepository(db),
		follows:   repository.NewFollowRepository(db),
		blocks:    repository.NewBlockRepository(db),
		favorites: repository.NewFavoriteRepository(db),
		items:     repository.NewItemRepository(db),
	}
	access := policy.NewAccessPolicy(s.follows, s.blocks)
	authors := NewAuthorAggregator(s.accounts, s.profiles, s.profiles)

	s.followSvc = NewFollowService(s.follows, s.profiles, s.blocks, authors, DefaultLimits)
	s.blockSvc = NewBlockService(s.blocks, s.accounts, authors, DefaultLimits)
	s.favoriteSvc = NewFavoriteService(s.favorites, authors, DefaultLimits)
	s.itemSvc = NewItemService(s.items, repository.NewCommentRepository(db), s.profiles, s.follows, s.blocks, authors, DefaultLimits)
	s.profileSvc = NewProfileService(db, s.accounts, s.profiles, s.follows, access, store)
	s.feedSvc = NewFeedService(FeedDeps{
		Items:     s.items,
		Owners:    s.profiles,
		Following: s.follows,
		Favorites: s.favorites,
		Blocks:    s.blocks,
		Policy:    access,
		Authors:   authors,
		Cache:     store,
		Limits:    DefaultLimits,
	})
	return s
}

func (s *stack) owner(t *testing.T, name string, vis models.Visibility) string {
	t.Helper()
	p, err := s.profileSvc.RegisterOwner(context.Background(), name, nil, vis)
	require.NoError(t, err)
	return p.ID
}

func (s *stack) viewer(t *testing.T, name string) string {
	t.Helper()
	p, err := s.profileSvc.RegisterViewer(context.Background(), name, nil)
	require.NoError(t, err)
	return p.ID
}

func (s *stack) item(t *testing.T, ownerID string, vis models.Visibility) string {
	t.Helper()
	item, err := s.itemSvc.CreateItem(context.Background(), ownerID, "body", vis, nil)
	require.NoError(t, err)
	return item.ID
}
