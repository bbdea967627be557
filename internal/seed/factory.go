// Package seed creates demo and test data through the engine's services.
// It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nyx/internal/bootstrap"
	"nyx/internal/database"
	"nyx/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options tunes generated content.
type Options struct {
	// Seed makes generated data reproducible. Zero picks a time-based seed.
	Seed int64
	// MaxDays spreads item timestamps over the last MaxDays days.
	MaxDays int
}

// Factory builds owners, viewers and items with fake content.
type Factory struct {
	engine *bootstrap.Engine
	faker  *gofakeit.Faker
	opts   Options
}

// NewFactory returns a Factory bound to e.
func NewFactory(e *bootstrap.Engine, opts Options) *Factory {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{engine: e, faker: gofakeit.New(opts.Seed), opts: opts}
}

// Chance is true with probability pct percent.
func (f *Factory) Chance(pct int) bool {
	return f.faker.Number(0, 99) < pct
}

// CreateOwner registers an owner with a fake name and avatar.
func (f *Factory) CreateOwner(ctx context.Context, visibility models.Visibility) (*models.OwnerProfile, error) {
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID())
	return f.engine.Profile.RegisterOwner(ctx, f.faker.Name(), &avatar, visibility)
}

// CreateViewer registers a viewer with a fake name.
func (f *Factory) CreateViewer(ctx context.Context) (*models.ViewerProfile, error) {
	return f.engine.Profile.RegisterViewer(ctx, f.faker.Name(), nil)
}

// BuildItem returns an unsaved item with a created_at spread over MaxDays.
func (f *Factory) BuildItem(ownerID string, visibility models.Visibility) *models.Item {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	item := &models.Item{
		OwnerID:    ownerID,
		Body:       f.faker.Paragraph(1, 3, 8, "\n"),
		Visibility: visibility,
		CreatedAt:  time.Now().UTC().Add(-back).Truncate(time.Millisecond),
	}
	for i, n := 0, f.faker.Number(0, 3); i < n; i++ {
		item.Tags = append(item.Tags, models.ItemTag{Tag: strings.ToLower(f.faker.Word())})
	}
	return item
}

// CreateItem persists a generated item.
func (f *Factory) CreateItem(ctx context.Context, ownerID string, visibility models.Visibility) (*models.Item, error) {
	item := f.BuildItem(ownerID, visibility)
	if err := f.engine.ItemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MeshOptions sizes a random social graph. Ratios are percentages.
type MeshOptions struct {
	Owners        int
	Viewers       int
	ItemsPerOwner int
	PrivateOwners int
	PrivateItems  int
	FollowRatio   int
	ApproveRatio  int
	BlockRatio    int
	FavoriteRatio int
}

// DefaultMesh is a small graph with every relationship kind represented.
var DefaultMesh = MeshOptions{
	Owners:        10,
	Viewers:       40,
	ItemsPerOwner: 20,
	PrivateOwners: 30,
	PrivateItems:  25,
	FollowRatio:   35,
	ApproveRatio:  60,
	BlockRatio:    3,
	FavoriteRatio: 10,
}

// Mesh holds the accounts created by SeedMesh.
type Mesh struct {
	Owners  []*models.OwnerProfile
	Viewers []*models.ViewerProfile
	Items   int
}

// SeedMesh creates owners with items and wires random follows, blocks and
// favorites from viewers. Follows go through FollowOwner, so private owners
// get requests, a share of which are then approved.
func (f *Factory) SeedMesh(ctx context.Context, opts MeshOptions) (*Mesh, error) {
	mesh := &Mesh{}
	for i := 0; i < opts.Owners; i++ {
		vis := models.VisibilityPublic
		if f.Chance(opts.PrivateOwners) {
			vis = models.VisibilityPrivate
		}
		owner, err := f.CreateOwner(ctx, vis)
		if err != nil {
			return nil, fmt.Errorf("create owner: %w", err)
		}
		mesh.Owners = append(mesh.Owners, owner)

		for j := 0; j < opts.ItemsPerOwner; j++ {
			itemVis := models.VisibilityPublic
			if f.Chance(opts.PrivateItems) {
				itemVis = models.VisibilityPrivate
			}
			if _, err := f.CreateItem(ctx, owner.ID, itemVis); err != nil {
				return nil, fmt.Errorf("create item: %w", err)
			}
			mesh.Items++
		}
	}
	log.Printf("✓ %d owners with %d items", len(mesh.Owners), mesh.Items)

	for i := 0; i < opts.Viewers; i++ {
		viewer, err := f.CreateViewer(ctx)
		if err != nil {
			return nil, fmt.Errorf("create viewer: %w", err)
		}
		mesh.Viewers = append(mesh.Viewers, viewer)
	}

	var follows, blocks, favorites int
	for _, viewer := range mesh.Viewers {
		for _, owner := range mesh.Owners {
			if f.Chance(opts.BlockRatio) {
				if _, err := f.engine.Block.Block(ctx,
					models.Actor{ID: viewer.ID, Role: models.RoleViewer},
					models.Actor{ID: owner.ID, Role: models.RoleOwner},
				); err != nil {
					return nil, fmt.Errorf("block: %w", err)
				}
				blocks++
				continue
			}
			if f.Chance(opts.FollowRatio) {
				out, err := f.engine.Follow.FollowOwner(ctx, owner.ID, viewer.ID)
				if err != nil {
					return nil, fmt.Errorf("follow: %w", err)
				}
				if out.Status == models.FollowStatusPending && f.Chance(opts.ApproveRatio) {
					if _, err := f.engine.Follow.ApproveFollow(ctx, owner.ID, viewer.ID); err != nil {
						return nil, fmt.Errorf("approve: %w", err)
					}
				}
				follows++
			}
			if f.Chance(opts.FavoriteRatio) {
				if _, err := f.engine.Favorite.Favorite(ctx, owner.ID, viewer.ID); err != nil {
					return nil, fmt.Errorf("favorite: %w", err)
				}
				favorites++
			}
		}
	}
	log.Printf("✓ %d viewers, %d follows, %d blocks, %d favorites", len(mesh.Viewers), follows, blocks, favorites)
	return mesh, nil
}

// ClearAll deletes every row of every schema-managed table, children first.
func ClearAll(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := database.PersistentModels()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(tables[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", tables[i], err)
		}
	}
	return nil
}
