// Command crafter-server runs the Commander Crafter REST API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramonehamilton/commander-crafter/internal/api"
	"github.com/ramonehamilton/commander-crafter/internal/config"
	"github.com/ramonehamilton/commander-crafter/internal/engine"
	"github.com/ramonehamilton/commander-crafter/internal/reload"
	"github.com/ramonehamilton/commander-crafter/internal/storage"
)

var (
	port    = flag.Int("port", 0, "API server port (overrides config)")
	dbPath  = flag.String("db", "", "database path (overrides config)")
	cfgPath = flag.String("config", "", "config file path")
)

func main() {
	flag.Parse()

	fmt.Println("Commander Crafter - REST API Server")
	fmt.Println("===================================")
	fmt.Println()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	finalDBPath := cfg.Data.DBPath
	if *dbPath != "" {
		finalDBPath = *dbPath
	}
	if finalDBPath == "" {
		finalDBPath, err = config.DefaultDBPath()
		if err != nil {
			log.Fatalf("Failed to resolve database path: %v", err)
		}
	}
	fmt.Printf("Database: %s\n", finalDBPath)

	dbConfig := storage.DefaultConfig(finalDBPath)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := db.LoadCatalog(ctx)
	if err != nil {
		log.Fatalf("Failed to load card catalog: %v", err)
	}
	pairs, err := db.LoadPairs(ctx)
	if err != nil {
		log.Fatalf("Failed to load pair corpus: %v", err)
	}

	eng, err := engine.New(catalog, pairs, engine.Options{
		Weights:    cfg.Scoring,
		Thresholds: cfg.Consensus.Thresholds(),
	})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	if cfg.Data.Watch {
		watcher, err := reload.NewWatcher(finalDBPath, func(ctx context.Context) error {
			catalog, err := db.LoadCatalog(ctx)
			if err != nil {
				return err
			}
			pairs, err := db.LoadPairs(ctx)
			if err != nil {
				return err
			}
			return eng.Reload(catalog, pairs)
		})
		if err != nil {
			log.Fatalf("Failed to start data watcher: %v", err)
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Printf("Error closing watcher: %v", err)
			}
		}()
		go watcher.Run(ctx)
	}

	server := api.NewServer(&api.Config{
		Port:         cfg.Server.Port,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, eng)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
}
