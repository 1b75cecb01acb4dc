package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AzielCF/az-bot/core/config"
	infraDB "github.com/AzielCF/az-bot/infrastructure/database"
	infraStore "github.com/AzielCF/az-bot/infrastructure/store"
	"github.com/AzielCF/az-bot/infrastructure/valkey"
	"github.com/AzielCF/az-bot/infrastructure/whatsapp"
	"github.com/AzielCF/az-bot/pkg/dedup"
	"github.com/AzielCF/az-bot/pkg/loader"
	"github.com/AzielCF/az-bot/pkg/msgworker"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/AzielCF/az-bot/plugins"
	"github.com/AzielCF/az-bot/scrapers"
	"github.com/AzielCF/az-bot/serializer"
	"github.com/AzielCF/az-bot/ui/websocket"
	"github.com/AzielCF/az-bot/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/AzielCF/az-bot/plugins/builtin"
	_ "github.com/AzielCF/az-bot/scrapers/builtin"
)

const shutdownTimeout = 10 * time.Second

func runBot(_ *cobra.Command, _ []string) error {
	cfg := config.Global

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := utils.CreateFolder(cfg.Session.Dir); err != nil {
		return err
	}

	vk, err := openValkey(cfg)
	if err != nil {
		return err
	}
	if vk != nil {
		defer vk.Close()
	}

	repo, err := infraDB.NewRepository(cfg, vk)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db := infraDB.NewState(repo)
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("[DATABASE] Close failed")
		}
	}()
	if err := db.Load(ctx); err != nil {
		return err
	}

	st := infraStore.NewStore()
	transport := whatsapp.NewTransport(st)

	loadOpts := loader.Options{Recursive: cfg.Registry.Recursive}
	scraperRegistry := scrapers.NewRegistry()
	if _, err := scraperRegistry.Load(cfg.Registry.ScraperDir, loader.DefaultFilter, loadOpts); err != nil {
		logrus.WithError(err).Warn("[REGISTRY] Some scrapers could not be loaded")
	}

	pluginRegistry := plugins.NewRegistry(plugins.Deps{
		Transport: transport,
		Store:     st,
		DB:        db,
		Scrapers:  scraperRegistry,
		Config:    cfg,
	})
	if _, err := pluginRegistry.Load(cfg.Registry.PluginDir, loader.ExtFilter(cfg.Registry.PluginExtensions...), loadOpts); err != nil {
		logrus.WithError(err).Warn("[REGISTRY] Some plugins could not be loaded")
	}

	pool := msgworker.NewMessageWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	pool.Start(ctx)

	var dd dedup.Store
	if vk != nil {
		dd = dedup.NewValkeyStore(vk, cfg.Whatsapp.DedupTTL)
	} else {
		mem := dedup.NewMemoryStore(cfg.Whatsapp.DedupTTL)
		defer mem.Close()
		dd = mem
	}

	pipeline := usecase.NewPipelineService(transport, st, pluginRegistry, dd, pool, usecase.PipelineOptions{
		StatusRead:  cfg.Whatsapp.StatusRead,
		StatusReact: cfg.Whatsapp.StatusReact,
		Serializer: serializer.Options{
			Prefixes: cfg.App.CommandPrefixes,
			Owners:   cfg.App.OwnerNumbers,
		},
	})

	hub := websocket.NewHub(vk, utils.SessionInstanceID(os.Getenv("INSTANCE_ID"), cfg.Session.Dir))
	manager := whatsapp.NewManager(cfg, transport, st, pipeline, hub)

	persistence := usecase.NewPersistenceService(cfg.Session, st, db)
	healthService := usecase.NewHealthService(cfg.App.Version, transport, st, pluginRegistry, scraperRegistry, pool, persistence)
	pluginRegistry.SetHealth(healthService)

	app := newServer(cfg, healthService, hub, pool)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-persistence.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return manager.Run(gctx)
	})
	g.Go(func() error {
		logrus.Infof("[REST] Listening on :%s", cfg.App.Port)
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	runErr := g.Wait()
	drainAndFlush(pool, persistence, shutdownTimeout)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logrus.Info("[APP] Application stopped cleanly.")
	return nil
}

type drainer interface {
	StopWithTimeout(timeout time.Duration) error
}

type flusher interface {
	FlushNow(ctx context.Context) error
}

// drainAndFlush lets queued messages finish before the last snapshot is
// written, so their store and database mutations are part of it.
func drainAndFlush(pool drainer, persistence flusher, timeout time.Duration) {
	logrus.Info("[APP] Shutting down, draining message lanes...")
	if err := pool.StopWithTimeout(timeout); err != nil {
		logrus.WithError(err).Warn("[APP] Message lanes did not drain in time")
	}

	logrus.Info("[APP] Writing session state...")
	flushCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := persistence.FlushNow(flushCtx); err != nil {
		logrus.WithError(err).Error("[APP] Final flush failed")
	}
}

func openValkey(cfg *config.Config) (*valkey.Client, error) {
	if !cfg.Database.ValkeyEnabled {
		return nil, nil
	}
	vk, err := valkey.NewClient(valkey.Config{
		Address:   cfg.Database.ValkeyAddress,
		Password:  cfg.Database.ValkeyPassword,
		DB:        cfg.Database.ValkeyDB,
		KeyPrefix: cfg.Database.ValkeyKeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	logrus.Infof("[VALKEY] Connected to %s", cfg.Database.ValkeyAddress)
	return vk, nil
}
