package registry

import (
	"context"
	"testing"
)

func TestGetWakesAndCachesRoom(t *testing.T) {
	dir := t.TempDir()
	reg := New(Config{DBDir: dir})

	r1, err := reg.Get(context.Background(), "ABCD")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	r2, err := reg.Get(context.Background(), "ABCD")
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if r1 != r2 {
		t.Fatal("expected the same resident Room on repeated Get")
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
}

func TestGetKeepsDistinctRoomsIsolated(t *testing.T) {
	dir := t.TempDir()
	reg := New(Config{DBDir: dir})

	r1, err := reg.Get(context.Background(), "ROOMONE")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	r2, err := reg.Get(context.Background(), "ROOMTWO")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r1.Code() == r2.Code() {
		t.Fatalf("expected distinct room codes, got %q twice", r1.Code())
	}
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
}
