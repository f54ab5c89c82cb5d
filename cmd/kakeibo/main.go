package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/backend"
	"kakeibo/internal/category"
	"kakeibo/internal/cli"
	"kakeibo/internal/currency"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/loading"
	"kakeibo/internal/rate"
	"kakeibo/internal/services"
	"kakeibo/internal/state"
	"kakeibo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := backend.Create(ctx, backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		SQLiteDBPath:  cfg.SQLiteDBPath,
		DataDirectory: cfg.DataDirectory,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// The record and category snapshots load once at startup; every later
	// change flows through the state store.
	records, err := store.FetchRecords(ctx)
	if err != nil {
		logger.Error("Failed to fetch records", "error", err)
		os.Exit(1)
	}
	labels, err := store.FetchCategories(ctx)
	if err != nil {
		logger.Error("Failed to fetch categories", "error", err)
		os.Exit(1)
	}

	persistCfg := worker.DefaultPersistConfig()
	persistCfg.QueueSize = cfg.PersistQueueSize
	persist := worker.NewPersistWorker(store, persistCfg)
	if err := persist.Start(ctx); err != nil {
		logger.Error("Failed to start persist worker", "error", err)
		os.Exit(1)
	}

	// The AMQP mirror leg is optional; the server runs fine without it.
	var publisher services.Publisher
	var broker *amqp.Client
	if cfg.AMQPEnabled() {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without mirror", "error", err)
		} else {
			publisher = broker
			logger.Info("AMQP mirror enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	policy := category.RenamePermissive
	if cfg.CategoryRenameStrict {
		policy = category.RenameStrict
	}
	registry := category.New(labels, services.NewQueuePersister(persist, publisher), policy)

	holder := rate.NewHolder()
	st := state.NewStore(records, registry, currency.ParseMode(cfg.DisplayCurrency), holder.Rate())

	fetcher := rate.NewFetcher(cfg.RateURL, holder)
	fetcher.OnUpdate(func(v float64) {
		st.Apply(func(s *state.State) { s.Rate = v })
	})

	selector := loading.NewSelector(cfg.LoadingSeed)
	if cfg.LoadingVariant != "" {
		selector.Pin(cfg.LoadingVariant)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		State:      st,
		Records:    services.NewRecordService(st, persist, publisher),
		Categories: services.NewCategoryService(st),
		Rates:      holder,
		Loading:    selector,
		Logger:     logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetcher.Run(gctx, cfg.RateRefreshInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting kakeibo server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"records", len(records),
			"categories", registry.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := persist.Stop(shutdownCtx); err != nil {
			logger.Error("Persist worker shutdown error", "error", err)
		}
		if broker != nil {
			if err := broker.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
