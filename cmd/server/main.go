/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the formula explorer server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and parse flags
  2. Connect to the payroll database
  3. Build the formula parser and dependency index
  4. Warm the index with a first build
  5. Start the refresh scheduler and HTTP server

CONFIGURATION:
  Environment variables (flags override):
    PORT                      HTTP server port (default: 8080)
    DATABASE_DRIVER           sqlite3 or postgres (default: sqlite3)
    DATABASE_URL              driver DSN (default: formu.db)
    CACHE_EXPIRATION_MINUTES  index refresh interval (default: 60)
    CORS_ALLOWED_ORIGINS      comma-separated (default: http://localhost:5173)
    LOG_LEVEL                 zerolog level name (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the refresh scheduler and close the database
  4. Exit

EXAMPLES:
  # Run against the bundled SQLite snapshot
  ./server -db="./data/formu.db"

  # Run against the production database
  DATABASE_DRIVER=postgres DATABASE_URL="postgres://..." ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Periodic index refresh
  - store/sqlstore/sqlstore.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/upcn/formu/api"
	"github.com/upcn/formu/concepts"
	"github.com/upcn/formu/deps"
	"github.com/upcn/formu/formula"
	"github.com/upcn/formu/payroll"
	"github.com/upcn/formu/store/sqlstore"
)

func main() {
	// .env is optional; deployments may set the environment directly.
	_ = godotenv.Load(".env")

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	driver := flag.String("driver", envString("DATABASE_DRIVER", "sqlite3"), "database driver (sqlite3 or postgres)")
	dsn := flag.String("db", envString("DATABASE_URL", "formu.db"), "database connection string")
	cacheMinutes := flag.Int("cache-minutes", envInt("CACHE_EXPIRATION_MINUTES", 60), "dependency index refresh interval in minutes")
	origins := flag.String("cors-origins", envString("CORS_ALLOWED_ORIGINS", "http://localhost:5173"), "comma-separated allowed CORS origins")
	logLevel := flag.String("log-level", envString("LOG_LEVEL", "info"), "log level (trace, debug, info, warn, error)")
	flag.Parse()

	log := newLogger(*logLevel)

	// Database
	store, err := sqlstore.Open(*driver, *dsn, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	// Core components
	parser := formula.NewParser(formula.NewRegistry())
	interval := time.Duration(*cacheMinutes) * time.Minute
	index := deps.New(store, parser, interval, log)

	conceptSvc := concepts.NewService(store, parser, index, log)
	payrollSvc := payroll.NewService(store, log)

	// Warm the index before serving. A failed build leaves it empty
	// until the scheduler or the refresh endpoint succeeds.
	if err := index.Build(context.Background()); err != nil {
		log.Error().Err(err).Msg("initial dependency index build failed")
	}

	scheduler := api.NewRefreshScheduler(index, interval, log)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	handler := api.NewHandler(conceptSvc, index, payrollSvc, log)
	router := api.NewRouter(handler, splitOrigins(*origins))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Str("driver", *driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newLogger builds the console logger. Unknown level names fall back
// to info.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	w := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })
	return zerolog.New(w).Level(lvl).With().Timestamp().Caller().Logger()
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
