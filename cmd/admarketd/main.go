// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adxyz/admarket/internal/config"
	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/escrow"
	"github.com/adxyz/admarket/pkg/events"
	"github.com/adxyz/admarket/pkg/instruction"
	"github.com/adxyz/admarket/pkg/log"
	"github.com/adxyz/admarket/pkg/marketplace"
	"github.com/adxyz/admarket/pkg/metric"
	"github.com/adxyz/admarket/pkg/query"
)

var (
	dbType   = flag.String("db-type", "", "Database type: badger or memory (overrides env)")
	dataDir  = flag.String("data-dir", "", "Data directory (overrides env)")
	logLevel = flag.String("log-level", "", "Log level (overrides env)")

	// Version info
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	fmt.Printf("Ad Marketplace Daemon (admarketd) %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbType != "" {
		cfg.DB.Type = *dbType
	}
	if *dataDir != "" {
		cfg.DB.Path = *dataDir
	}
	if *logLevel != "" {
		cfg.App.LogLevel = *logLevel
	}

	logger := log.NewWithLevel(cfg.App.LogLevel)
	defer logger.Sync()

	node, err := NewNode(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to create node: %v\n", err)
		os.Exit(1)
	}

	if err := node.Start(); err != nil {
		fmt.Printf("Failed to start node: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := node.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Error during shutdown: %v\n", err)
	}

	fmt.Println("Daemon stopped")
}

// Node bundles the ledger daemon components
type Node struct {
	cfg     *config.Config
	store   *accounts.Store
	runtime *instruction.Runtime
	queries *query.Service
	bus     *events.Bus
	metrics *metric.Metrics

	httpServer *http.Server
	log        log.Logger
}

// NewNode wires the account store, engines, runtime, and query layer
func NewNode(cfg *config.Config, logger log.Logger) (*Node, error) {
	store, err := accounts.New(cfg.DB.Type, cfg.DB.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %w", err)
	}

	metrics, err := metric.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	clock := core.SystemClock{}
	bus := events.NewBus(logger)
	escrowEngine := escrow.NewEngine(clock, logger)
	marketEngine := marketplace.NewEngine(escrowEngine, clock, logger)
	runtime := instruction.NewRuntime(store, marketEngine, escrowEngine, bus, metrics, logger)

	return &Node{
		cfg:     cfg,
		store:   store,
		runtime: runtime,
		queries: query.NewService(store),
		bus:     bus,
		metrics: metrics,
		log:     logger,
	}, nil
}

// Start begins serving the HTTP API
func (n *Node) Start() error {
	n.log.Info("starting marketplace daemon",
		log.String("addr", n.cfg.Server.GetServerAddr()),
		log.String("db", n.cfg.DB.Type))

	n.httpServer = &http.Server{
		Addr:         n.cfg.Server.GetServerAddr(),
		Handler:      n.setupRoutes(),
		ReadTimeout:  time.Duration(n.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(n.cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		if err := n.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			n.log.Error("HTTP server error", log.Error(err))
		}
	}()

	return nil
}

// Shutdown stops the server and closes the store
func (n *Node) Shutdown(ctx context.Context) error {
	if n.httpServer != nil {
		if err := n.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	return n.store.Close()
}
