// Package bootstrap wires configuration, storage and services together.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"nyx/internal/cache"
	"nyx/internal/config"
	"nyx/internal/database"
	"nyx/internal/observability"
	"nyx/internal/policy"
	"nyx/internal/repository"
	"nyx/internal/service"

	"gorm.io/gorm"
)

// Engine is the assembled set of services over one database and cache.
type Engine struct {
	DB    *gorm.DB
	Cache *cache.Store

	Accounts repository.AccountRepository
	Profiles repository.ProfileRepository
	Follows  repository.FollowRepository
	Blocks   repository.BlockRepository
	ItemRepo repository.ItemRepository

	Policy    *policy.AccessPolicy
	Authors   *service.AuthorAggregator
	Follow    *service.FollowService
	Block     *service.BlockService
	Favorite  *service.FavoriteService
	Feed      *service.FeedService
	Items     *service.ItemService
	Profile   *service.ProfileService
	shutdowns []func(context.Context) error
}

// InitRuntime sets the log level, starts tracing, connects to the database
// and Redis (optional) and builds the engine.
func InitRuntime(cfg *config.Config) (*Engine, error) {
	observability.SetLevel(cfg.LogLevel)

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "nyx",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	e := NewEngine(db, cache.Connect(cfg.RedisURL), cfg)
	e.shutdowns = append(e.shutdowns, shutdown)
	return e, nil
}

// NewEngine builds every service over db. store may be nil.
func NewEngine(db *gorm.DB, store *cache.Store, cfg *config.Config) *Engine {
	limits := service.LimitsFromConfig(cfg)
	ttl := cache.DefaultPublicOwnersTTL
	if cfg != nil && cfg.PublicOwnersTTLSeconds > 0 {
		ttl = time.Duration(cfg.PublicOwnersTTLSeconds) * time.Second
	}

	accounts := repository.NewAccountRepository(db)
	profiles := repository.NewProfileRepository(db)
	follows := repository.NewFollowRepository(db)
	blocks := repository.NewBlockRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	items := repository.NewItemRepository(db)
	comments := repository.NewCommentRepository(db)

	access := policy.NewAccessPolicy(follows, blocks)
	authors := service.NewAuthorAggregator(accounts, profiles, profiles)

	return &Engine{
		DB:       db,
		Cache:    store,
		Accounts: accounts,
		Profiles: profiles,
		Follows:  follows,
		Blocks:   blocks,
		ItemRepo: items,
		Policy:   access,
		Authors:  authors,
		Follow:   service.NewFollowService(follows, profiles, blocks, authors, limits),
		Block:    service.NewBlockService(blocks, accounts, authors, limits),
		Favorite: service.NewFavoriteService(favorites, authors, limits),
		Feed: service.NewFeedService(service.FeedDeps{
			Items:     items,
			Owners:    profiles,
			Following: follows,
			Favorites: favorites,
			Blocks:    blocks,
			Policy:    access,
			Authors:   authors,
			Cache:     store,
			CacheTTL:  ttl,
			Limits:    limits,
		}),
		Items:   service.NewItemService(items, comments, profiles, follows, blocks, authors, limits),
		Profile: service.NewProfileService(db, accounts, profiles, follows, access, store),
	}
}

// Close flushes traces and releases the cache and database.
func (e *Engine) Close(ctx context.Context) error {
	for _, fn := range e.shutdowns {
		_ = fn(ctx)
	}
	_ = e.Cache.Close()
	sqlDB, err := e.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
