// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server runs the hybrid recommendation service for the game
// store: it loads the catalog and user records, replays the durable
// interaction log, trains the scoring signals, and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamestore/recsys/internal/api"
	"github.com/gamestore/recsys/internal/config"
	"github.com/gamestore/recsys/internal/logging"
	"github.com/gamestore/recsys/internal/metrics"
	"github.com/gamestore/recsys/internal/recommend"
	"github.com/gamestore/recsys/internal/recommend/algorithms"
	"github.com/gamestore/recsys/internal/recommend/boost"
	"github.com/gamestore/recsys/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("catalog", cfg.Data.CatalogPath).
		Int("port", cfg.Server.Port).
		Msg("Starting recommendation service")

	store, eventLog, err := buildStore(cfg)
	if err != nil {
		return err
	}
	if eventLog != nil {
		defer func() {
			if err := eventLog.Close(); err != nil {
				logging.Error().Err(err).Msg("Failed to close event log")
			}
		}()

		gcCtx, gcCancel := context.WithCancel(context.Background())
		defer gcCancel()
		go eventLog.RunGC(gcCtx, time.Hour)
	}

	engine, err := buildEngine(cfg, store)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	// Initial training is best-effort: with no interactions yet the
	// engine serves the popularity fallback until data arrives.
	trainCtx, cancel := context.WithTimeout(context.Background(), cfg.Recommend.TrainingTimeout)
	if err := engine.Train(trainCtx); err != nil {
		logging.Warn().Err(err).Msg("Initial training failed, continuing untrained")
	} else {
		metrics.SetModelVersion(engine.Status().ModelVersion)
	}
	cancel()

	handler := api.NewHandler(engine, store, eventLog)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}

// buildStore loads the catalog and user files and replays the durable
// event log into the in-memory store.
func buildStore(cfg *config.Config) (*storage.MemoryStore, *storage.EventLog, error) {
	store := storage.NewMemoryStore()

	items, err := storage.LoadCatalog(cfg.Data.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	store.SetCatalog(items)

	users, err := storage.LoadUsers(cfg.Data.UsersPath)
	if err != nil {
		return nil, nil, err
	}
	store.SetUsers(users)

	var eventLog *storage.EventLog
	if cfg.Data.EventLogPath != "" {
		eventLog, err = storage.OpenEventLog(cfg.Data.EventLogPath, cfg.Data.EventLogSync)
		if err != nil {
			return nil, nil, err
		}

		replayed, err := eventLog.Replay(store.Apply)
		if err != nil {
			eventLog.Close()
			return nil, nil, fmt.Errorf("replay event log: %w", err)
		}
		logging.Info().Int("events", replayed).Msg("Event log replayed")
	}

	itemCount, userCount, eventCount := store.Counts()
	logging.Info().
		Int("items", itemCount).
		Int("users", userCount).
		Int("events", eventCount).
		Msg("Store loaded")

	return store, eventLog, nil
}

// buildEngine wires the four signals and the adaptive booster.
func buildEngine(cfg *config.Config, store *storage.MemoryStore) (*recommend.Engine, error) {
	engineCfg := cfg.EngineConfig()
	engine, err := recommend.NewEngine(engineCfg, logging.Logger())
	if err != nil {
		return nil, err
	}
	engine.SetDataProvider(store)
	engine.SetRecorder(metrics.NewRecorder())

	engine.RegisterSignal(algorithms.NewCollaborative(algorithms.CollaborativeFromEngine(engineCfg)))

	engine.RegisterSignal(algorithms.NewContent(algorithms.DefaultContentConfig()))
	engine.RegisterSignal(algorithms.NewDemographic(algorithms.DefaultDemographicConfig()))

	synonyms, err := storage.LoadSynonyms(cfg.Data.SynonymsPath)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load synonym table, using built-in")
	}
	engine.RegisterSignal(algorithms.NewKeyword(algorithms.NewSynonymTable(synonyms)))

	engine.SetBooster(boost.New(boost.Config{
		MinFactor: engineCfg.Boost.MinFactor,
		MaxFactor: engineCfg.Boost.MaxFactor,
		TotalCap:  engineCfg.Boost.TotalCap,
	}))

	return engine, nil
}
