package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/Bartabas/job-tracker/internal/config"
	"github.com/Bartabas/job-tracker/internal/events"
	"github.com/Bartabas/job-tracker/internal/httpapi"
	"github.com/Bartabas/job-tracker/internal/rules"
	"github.com/Bartabas/job-tracker/internal/scanner"
	"github.com/Bartabas/job-tracker/internal/scheduler"
	"github.com/Bartabas/job-tracker/internal/store"
)

func main() {
	// Engine data dir: use env if provided (the desktop shell passes one),
	// else local folder.
	dataDir := os.Getenv("JOBTRACKER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir; a second instance would race the sqlite file
	// and double-poll the mailbox.
	lock := flock.New(filepath.Join(dataDir, "jobtracker.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running for %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		// Load soft-fails to safe defaults; the engine still serves the API.
		log.Printf("[config] %s: %v (using defaults, mailbox disabled)", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	rulesPath := cfg.RulesFile
	if rulesPath == "" {
		rulesPath = filepath.Join(dataDir, "rules.yml")
	}
	ruleSet, err := rules.Load(rulesPath)
	if err != nil {
		log.Printf("[rules] %s: %v (using built-in rules)", rulesPath, err)
	}

	dbPath := filepath.Join(dataDir, "jobtracker.db")
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	sc := scanner.New(&cfgVal, ruleSet, st, hub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The cycle itself no-ops while the mailbox is disabled, so the ticker
	// can run unconditionally and pick up a config change on the next tick.
	go scheduler.Every(ctx, cfg.ScanInterval(), "scan", func(ctx context.Context) error {
		_, err := sc.RunCycle(ctx)
		return err
	})

	mux := httpapi.NewMux(httpapi.Deps{
		Store:       st,
		Hub:         hub,
		CfgVal:      &cfgVal,
		Scanner:     sc,
		UserCfgPath: userCfgPath,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}
}
