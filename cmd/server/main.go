/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the flow engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (when present) and parse flags
  2. Initialize SQLite store
  3. Connect the Kafka event publisher (when brokers are configured)
  4. Create API handler and router
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags, with environment variable fallbacks (loaded via .env):
  -port     HTTP server port            (PORT, default 8080)
  -db       SQLite database path        (DB_PATH, default flows.db)
            Use ":memory:" for an in-memory database
  -brokers  Comma-separated Kafka brokers (KAFKA_BROKERS, default none:
            events are discarded)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the event publisher and database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/flows.db"

  # Run with events enabled
  ./server -brokers="localhost:9092"

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
  - events/kafka/publisher.go: Event publishing
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cashbook/flow-engine/api"
	"github.com/cashbook/flow-engine/events"
	"github.com/cashbook/flow-engine/events/kafka"
	"github.com/cashbook/flow-engine/store/sqlite"
)

func main() {
	// .env is optional; flags still win over the environment.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "flows.db"), "SQLite database path")
	brokers := flag.String("brokers", envStr("KAFKA_BROKERS", ""), "comma-separated Kafka brokers")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if !store.SummaryAvailable() {
		slog.Warn("group summary store unavailable, running degraded")
	}

	// Event publisher
	var publisher events.Publisher = events.Nop{}
	if *brokers != "" {
		publisher = kafka.NewPublisher(strings.Split(*brokers, ","))
		slog.Info("event publishing enabled", "brokers", *brokers, "topic", kafka.Topic)
	}
	defer publisher.Close()

	// Handler and router
	handler := api.NewHandler(store, publisher)
	router := api.NewRouter(handler, api.TokenUserID)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
