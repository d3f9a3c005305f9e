package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/civic-ballot/auth"
	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/db"
	"github.com/danielhkuo/civic-ballot/metrics"
	"github.com/danielhkuo/civic-ballot/middleware"
	"github.com/danielhkuo/civic-ballot/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error

	// Local .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Pick the ballot store
	var store ballot.Store
	var health router.HealthCheck
	if cfg.DatabaseType == db.TypeMemory {
		store = ballot.NewMemoryStore()
		slog.Warn("Using in-memory ballot store, votes are lost on restart")
	} else {
		dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		// Create schema (tables)
		if err := db.CreateSchema(dbConn); err != nil {
			slog.Error("schema creation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema ready", "type", cfg.DatabaseType)

		ledger := db.NewLedger(dbConn)
		store = ledger
		health = ledger.Ping
	}

	// Metrics
	reg, err := metrics.NewRegistry()
	if err != nil {
		slog.Error("metrics setup failed", "error", err)
		os.Exit(1)
	}
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		slog.Error("metrics setup failed", "error", err)
		os.Exit(1)
	}

	engine, err := ballot.NewEngine(store, auth.NewAnonymizer(cfg.FingerprintSalt), ballot.Options{
		Logger:         slog.Default(),
		Observer:       recorder,
		CastRetries:    disabledIfZero(cfg.CastRetries),
		VotedCacheSize: disabledIfZero(cfg.VotedCacheSize),
		Parties:        cfg.Parties,
	})
	if err != nil {
		slog.Error("engine setup failed", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(engine, cfg, health, reg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal, then let in-flight casts finish
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "store", cfg.DatabaseType)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// disabledIfZero maps an explicit 0 from the config to the engine's
// "disabled" value; the engine reads 0 as "use the default".
func disabledIfZero(n int) int {
	if n == 0 {
		return -1
	}
	return n
}
