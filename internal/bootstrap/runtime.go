// Package bootstrap wires process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"devcentral/internal/cache"
	"devcentral/internal/config"
	"devcentral/internal/database"
	"devcentral/internal/middleware"
	"devcentral/internal/models"
	"devcentral/internal/observability"
	"devcentral/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with generated data.
	SeedDemo bool
	// Version is reported on traces.
	Version string
}

// Runtime holds the initialized dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// Shutdown flushes traces. Closing the DB and Redis is left to their owner.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil || r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// InitRuntime starts tracing, connects to the DB and Redis and optionally
// seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "devcentral",
		ServiceVersion: opts.Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching and revocation.
	cache.InitRedis(cfg.RedisURL)

	rt := &Runtime{DB: db, Redis: cache.GetClient(), shutdownTracing: shutdown}

	if opts.SeedDemo {
		if err := seedDemo(cfg, db); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return rt, nil
}

// seedDemo only touches an empty development database.
func seedDemo(cfg *config.Config, db *gorm.DB) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	s := seed.NewSeeder(db)
	people, err := s.SeedSocialMesh(12)
	if err != nil {
		return err
	}
	if _, err := s.SeedEngagement(people, 60); err != nil {
		return err
	}
	middleware.Logger.Info("demo data seeded", slog.Int("users", len(people)))
	return nil
}
