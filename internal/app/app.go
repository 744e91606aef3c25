// Package app wires the room server's process: environment-driven
// configuration, the logging router, the room registry, and the HTTP
// server lifecycle.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"roomforge/internal/auth"
	"roomforge/internal/httpapi"
	"roomforge/internal/registry"
	"roomforge/logging"
	"roomforge/logging/sinks"
)

// Config captures every environment-driven knob the process reads at
// startup.
type Config struct {
	Addr             string
	DBDir            string
	ClerkSecretKey   string
	ClerkBaseURL     string
	SnapshotInterval int
	CatchupStepCap   int
	EventLogPath     string
}

// ConfigFromEnv reads Config from the process environment, falling back to
// built-in defaults when a variable is unset or unparsable.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:             getEnv("ADDR", ":8080"),
		DBDir:            getEnv("ROOM_DB_DIR", "./data"),
		ClerkSecretKey:   os.Getenv("CLERK_SECRET_KEY"),
		ClerkBaseURL:     getEnv("CLERK_BASE_URL", auth.DefaultProviderBaseURL),
		SnapshotInterval: getEnvInt("SNAPSHOT_EVERY_TICKS", 3),
		CatchupStepCap:   getEnvInt("CATCHUP_STEP_CAP", 8),
		EventLogPath:     os.Getenv("EVENT_LOG_PATH"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Run builds the process's dependency graph and serves HTTP until ctx is
// canceled.
func Run(ctx context.Context, cfg Config) error {
	if err := os.MkdirAll(cfg.DBDir, 0o755); err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	available := map[string]logging.Sink{
		"console": sinks.NewConsoleSink(os.Stdout, logging.ConsoleConfig{Color: false}),
	}
	if cfg.EventLogPath != "" {
		jsonSink, err := sinks.NewJSONSink(logging.JSONConfig{FilePath: cfg.EventLogPath})
		if err != nil {
			return err
		}
		available["json"] = jsonSink
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
	}
	router, err := logging.NewRouter(logCfg, logging.SystemClock{}, log.Default(), available)
	if err != nil {
		return err
	}
	defer router.Close(context.Background())

	reg := registry.New(registry.Config{
		DBDir:              cfg.DBDir,
		Publisher:          router,
		SnapshotEveryTicks: cfg.SnapshotInterval,
		CatchupStepCap:     cfg.CatchupStepCap,
	})

	handler := httpapi.Handler(httpapi.Config{
		Registry: reg,
		AuthConfig: auth.Config{
			SecretKey:       cfg.ClerkSecretKey,
			ProviderBaseURL: cfg.ClerkBaseURL,
		},
		Publisher: router,
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
