package app

import (
	"os"
	"testing"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	os.Unsetenv("ADDR")
	os.Unsetenv("ROOM_DB_DIR")
	os.Unsetenv("CLERK_SECRET_KEY")
	os.Unsetenv("SNAPSHOT_EVERY_TICKS")

	cfg := ConfigFromEnv()
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.ClerkSecretKey != "" {
		t.Fatalf("ClerkSecretKey = %q, want empty", cfg.ClerkSecretKey)
	}
	if cfg.SnapshotInterval != 3 {
		t.Fatalf("SnapshotInterval = %d, want 3", cfg.SnapshotInterval)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("SNAPSHOT_EVERY_TICKS", "5")

	cfg := ConfigFromEnv()
	if cfg.Addr != ":9999" {
		t.Fatalf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.SnapshotInterval != 5 {
		t.Fatalf("SnapshotInterval = %d, want 5", cfg.SnapshotInterval)
	}
}
