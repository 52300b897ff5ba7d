package cli

import (
	"context"
	"fmt"
	"time"

	"androbot/internal/app"
	"androbot/internal/config"
	"androbot/internal/dialogue"
	"androbot/internal/infra/memory"
	"androbot/internal/infra/postgres"
	redisinfra "androbot/internal/infra/redis"
	"androbot/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// components is everything a command needs, built from configuration. Without Postgres the
// entity store lives in memory; without Redis the catalog cache and dialogue state do too.
type components struct {
	service *app.Service
	states  dialogue.StateStore
	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func buildComponents(ctx context.Context, cfg config.Config, log *zap.Logger) (*components, error) {
	c := &components{}

	var store app.Store
	var loader memory.QuestionLoader
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		c.closers = append(c.closers, func() { _ = db.Close() })
		store = postgres.NewStore(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		loader = postgres.NewCatalogLoader(pool)
	} else {
		log.Warn("postgres url not configured, using in-memory store")
		memStore := memory.NewStore()
		store = memStore
		loader = memStore
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.QuestionCatalog
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, func() { _ = client.Close() })
		catalog = redisinfra.NewQuestionCatalog(client, loader, catalogTTL)
		c.states = redisinfra.NewStateStore(client, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		catalog = memory.NewQuestionCatalog(loader, catalogTTL)
		c.states = memory.NewStateStore()
	}

	specialties, err := cfg.Bot.ActiveSpecialties()
	if err != nil {
		c.Close()
		return nil, err
	}
	modes, err := cfg.Bot.ActiveAnswerModes()
	if err != nil {
		c.Close()
		return nil, err
	}
	exclusion, err := app.ParseExclusion(cfg.Bot.Exclusion)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.service = app.NewService(store,
		app.WithCatalog(catalog),
		app.WithLogger(log.Named("app")),
		app.WithSpecialties(specialties...),
		app.WithAnswerModes(modes...),
		app.WithExclusion(exclusion),
	)
	return c, nil
}

// loadConfig reads configuration and builds the logger every command logs through.
func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}
