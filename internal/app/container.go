package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ncecere/billing_api/internal/auth"
	"github.com/ncecere/billing_api/internal/cache"
	"github.com/ncecere/billing_api/internal/config"
	"github.com/ncecere/billing_api/internal/db"
	"github.com/ncecere/billing_api/internal/limits"
	"github.com/ncecere/billing_api/internal/observability"
	"github.com/ncecere/billing_api/internal/services/report"
	"github.com/ncecere/billing_api/internal/services/session"
	"github.com/ncecere/billing_api/internal/store"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config            *config.Config
	DBPool            *pgxpool.Pool
	Redis             *redis.Client
	Queries           *db.Queries
	Store             *store.Store
	Users             *cache.UserDirectory
	Tokens            *auth.TokenManager
	Sessions          *session.Service
	Reports           *report.Service
	LoginLimiter      *limits.RateLimiter
	Observability     *observability.Provider
	ReportingLocation *time.Location

	refresher directoryRefresher
}

type directoryRefresher interface {
	RefreshUserNames(ctx context.Context) error
}

// NewContainer builds a dependency container from the provided primitives.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	queries := db.New(pool)
	if err := Bootstrap(ctx, queries, cfg.Bootstrap); err != nil {
		return nil, err
	}

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Session.JWTSecret, cfg.Session.TokenTTL, cfg.Session.Issuer)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	users := cache.NewUserDirectory()
	usageStore := store.New(queries, users)
	sessions := session.NewService(queries, usageStore, tokens, auth.NewRevocations(redisClient), cfg.Session.RotationGrace)

	reportingLoc := cfg.Reporting.Location()
	reports := report.NewService(usageStore, users, sessions, report.Options{
		Location:     reportingLoc,
		ValidBuckets: cfg.Reporting.ValidBucketSizes,
		Recorder:     obsProvider,
	})

	return &Container{
		Config:            cfg,
		DBPool:            pool,
		Redis:             redisClient,
		Queries:           queries,
		Store:             usageStore,
		Users:             users,
		Tokens:            tokens,
		Sessions:          sessions,
		Reports:           reports,
		LoginLimiter:      limits.NewRateLimiter(redisClient),
		Observability:     obsProvider,
		ReportingLocation: reportingLoc,
		refresher:         usageStore,
	}, nil
}

// LoginLimit returns the per-username login throttle.
func (c *Container) LoginLimit() limits.LimitConfig {
	if c == nil || c.Config == nil {
		return limits.LimitConfig{}
	}
	return limits.LimitConfig{
		Attempts: c.Config.Login.MaxAttempts,
		Window:   c.Config.Login.Window,
	}
}

// RefreshUserDirectory reloads the id to display name map used to label
// report entries. trigger names the caller for logs and metrics.
func (c *Container) RefreshUserDirectory(ctx context.Context, trigger string) error {
	if c == nil || c.refresher == nil {
		return nil
	}
	started := time.Now()
	err := c.refresher.RefreshUserNames(ctx)
	c.Observability.RecordDirectoryRefresh(trigger, c.Users.Len(), err)
	if err != nil {
		slog.Warn("user directory refresh failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
		return err
	}
	slog.Info("user directory refreshed",
		slog.String("trigger", trigger),
		slog.Int("users", c.Users.Len()),
		slog.Duration("duration", time.Since(started)),
	)
	return nil
}
