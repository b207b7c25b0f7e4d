package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/graphnav/graph-navigator/internal/api"
	"github.com/graphnav/graph-navigator/internal/graph"
	"github.com/graphnav/graph-navigator/internal/metrics"
	"github.com/graphnav/graph-navigator/internal/storage"
)

// initLogger configures the global slog default with JSON output.
func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(h))
}

// envOrDefault resolves a configuration value with the priority:
//   flag (if explicitly set, i.e. differs from defaultVal) > env var > default.
func envOrDefault(envKey, flagVal, defaultVal string) string {
	if flagVal != defaultVal {
		return flagVal
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultVal
}

func main() {
	// ---- Flags -----------------------------------------------------------
	dbPathFlag := flag.String("db-path", "./graphnav.db", "Path to SQLite database file")
	portFlag := flag.Int("port", 8080, "HTTP server port")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	// Resolve config: flag > env var > default.
	dbPath := envOrDefault("GRAPHNAV_DB_PATH", *dbPathFlag, "./graphnav.db")
	portStr := envOrDefault("GRAPHNAV_PORT", strconv.Itoa(*portFlag), "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("invalid port value %q: %v", portStr, err)
	}

	initLogger(*logLevel)

	// ---- Storage ---------------------------------------------------------
	store, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("failed to initialise storage: %v", err)
	}

	// ---- Graph Index -----------------------------------------------------
	ctx := context.Background()
	index := graph.NewIndex()
	if err := index.LoadFromStorage(ctx, store); err != nil {
		log.Fatalf("failed to load graph index: %v", err)
	}
	nodeCount := index.NodeCount()
	edgeCount := index.EdgeCount()
	metrics.GraphNodes.Set(float64(nodeCount))
	metrics.GraphEdges.Set(float64(edgeCount))

	// ---- HTTP Server -----------------------------------------------------
	srv := api.NewServer(store, index)
	srv.RegisterRoutes()

	slog.Info("graph navigator starting",
		"db_path", dbPath,
		"port", port,
		"nodes", nodeCount,
		"edges", edgeCount,
	)

	addr := fmt.Sprintf(":%d", port)

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// ---- Graceful shutdown -----------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := store.Close(); err != nil {
		slog.Error("storage close error", "error", err)
	}

	slog.Info("graph navigator shutdown complete")
}
