// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Command dutyplayground is a developer harness for the duty autopilot: it
// boots a tiny HTTP/WebSocket surface over coreplanx.Autopilot backed by a
// synthetic, in-memory RuleStore/CatalogStore/MasterDataStore, so the rule
// stack and the managed-id grammar can be exercised over curl or a browser
// without wiring up a real personnel, vehicle, or ruleset backend.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreplanx "github.com/kron12345/coreplanx"
	"github.com/kron12345/coreplanx/internal/testutil/fixtures"
	"github.com/kron12345/coreplanx/pkg/config"
	"github.com/kron12345/coreplanx/pkg/logging"
	"github.com/kron12345/coreplanx/pkg/retry"
)

func main() {
	cfg := config.NewDefault()
	cfg.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{
		Level:  logLevel,
		Format: logging.FormatText,
		Output: os.Stdout,
	})

	rules := fixtures.RuleStore{Raw: fixtures.DefaultRawRules()}
	catalog := fixtures.CatalogStore{Defs: fixtures.DefaultTypeDefinitions()}
	masterData := fixtures.MasterDataStore{Snap: fixtures.DefaultSnapshot()}

	ap := coreplanx.New(rules, catalog, masterData,
		coreplanx.WithLogger(logger),
		coreplanx.WithRetryPolicy(retry.NewExponentialBackoff().WithMaxRetries(cfg.MaxStoreRetries)),
		coreplanx.WithStoreTimeout(cfg.StoreFetchTimeout),
	)

	srv := newServer(ap, logger)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.routes(),
		ReadTimeout:  cfg.StoreFetchTimeout,
		WriteTimeout: cfg.StoreFetchTimeout,
	}

	go func() {
		logger.Info("dutyplayground listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}
