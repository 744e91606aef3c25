// Command server runs the room server: one process hosting every room's
// lazily-woken controller behind a single HTTP listener.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"roomforge/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.ConfigFromEnv()
	log.Printf("roomforge: listening on %s (db dir %s)", cfg.Addr, cfg.DBDir)
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("roomforge: %v", err)
	}
}
