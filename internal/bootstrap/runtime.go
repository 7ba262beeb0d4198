package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data. The
// returned Redis client is nil when REDIS_URL is empty or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.RedisURL != "" {
		cache.InitRedis(cfg.RedisURL)
	} else {
		cache.SetClient(nil)
	}

	if opts.SeedDemo {
		if err := seedDemo(context.Background(), cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return db, cache.GetClient(), nil
}

// seedDemo fills an empty development database. Any existing user means the
// database is in use and is left alone.
func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return fmt.Errorf("demo data cannot be seeded in %s", cfg.Env)
	}
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.InfoContext(ctx, "database not empty, skipping demo data", slog.Int64("users", users))
		return nil
	}

	opts := seed.DefaultOptions()
	opts.Seed = 1
	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "seeded demo data", slog.Int("users", res.Users), slog.Int("posts", res.Posts))
	return nil
}
