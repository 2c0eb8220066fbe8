package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ncecere/billing_api/internal/app"
	"github.com/ncecere/billing_api/internal/config"
	"github.com/ncecere/billing_api/internal/database"
	"github.com/ncecere/billing_api/internal/httpserver"
	"github.com/ncecere/billing_api/internal/redisclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := database.RunMigrations(ctx, cfg.Database); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	dbPool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redisclient.New(cfg.Redis)
	if err != nil {
		log.Fatalf("configure redis: %v", err)
	}
	if err := redisclient.Ping(ctx, redisClient); err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	container, err := app.NewContainer(ctx, cfg, dbPool, redisClient)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	if container.Observability != nil {
		defer container.Observability.Shutdown(context.Background())
	}

	if cfg.UserDirectory.RefreshOnStartup {
		if err := container.RefreshUserDirectory(ctx, "startup"); err != nil {
			log.Printf("initial user directory refresh failed: %v", err)
		}
	}

	server, err := httpserver.New(container)
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Listen(gctx)
	})
	g.Go(func() error {
		return app.RunDirectoryRefresh(gctx, cfg.UserDirectory.RefreshSchedule, container.RefreshUserDirectory)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server stopped: %v", err)
	}
}
