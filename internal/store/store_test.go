package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestRoomCodeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.LoadRoomCode(ctx); err != nil || ok {
		t.Fatalf("expected no room code yet, got ok=%v err=%v", ok, err)
	}
	if err := s.UpsertRoomCode(ctx, "abcd"); err != nil {
		t.Fatalf("UpsertRoomCode: %v", err)
	}
	code, ok, err := s.LoadRoomCode(ctx)
	if err != nil || !ok || code != "abcd" {
		t.Fatalf("LoadRoomCode = %q, %v, %v", code, ok, err)
	}
	if err := s.UpsertRoomCode(ctx, "wxyz"); err != nil {
		t.Fatalf("UpsertRoomCode overwrite: %v", err)
	}
	code, _, _ = s.LoadRoomCode(ctx)
	if code != "wxyz" {
		t.Fatalf("code = %q, want wxyz", code)
	}
}

func TestPresenceConnectDisconnect(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ConnectPlayer(ctx, "p1", 1000); err != nil {
		t.Fatalf("ConnectPlayer: %v", err)
	}
	ids, err := s.ConnectedPlayerIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("ConnectedPlayerIDs = %v, %v", ids, err)
	}

	mv, err := s.LoadMovement(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadMovement: %v", err)
	}
	if mv.X != 0 || mv.Y != 0 {
		t.Fatalf("seeded movement = %+v, want zeroed", mv)
	}

	if err := s.DisconnectPlayer(ctx, "p1", 2000); err != nil {
		t.Fatalf("DisconnectPlayer: %v", err)
	}
	ids, _ = s.ConnectedPlayerIDs(ctx)
	if len(ids) != 0 {
		t.Fatalf("ConnectedPlayerIDs after disconnect = %v, want empty", ids)
	}
}

func TestMovementAndInputUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertMovement(ctx, MovementRow{PlayerID: "p1", X: 1, Y: 2, VX: 3, VY: 4}, 100); err != nil {
		t.Fatalf("UpsertMovement: %v", err)
	}
	row, err := s.LoadMovement(ctx, "p1")
	if err != nil || row.X != 1 || row.Y != 2 || row.VX != 3 || row.VY != 4 {
		t.Fatalf("LoadMovement = %+v, %v", row, err)
	}

	if err := s.UpsertInput(ctx, InputRow{PlayerID: "p1", Up: true, LastInputSeq: 5}, 100); err != nil {
		t.Fatalf("UpsertInput: %v", err)
	}
	in, err := s.LoadInput(ctx, "p1")
	if err != nil || !in.Up || in.Down || in.LastInputSeq != 5 {
		t.Fatalf("LoadInput = %+v, %v", in, err)
	}

	acks, err := s.AllInputAcks(ctx)
	if err != nil || acks["p1"] != 5 {
		t.Fatalf("AllInputAcks = %v, %v", acks, err)
	}
}

func TestStructureLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertStructure(ctx, StructureRow{StructureID: "s1", OwnerID: "p1", Kind: "stone_furnace", X: 1, Y: 2}, 10); err != nil {
		t.Fatalf("InsertStructure: %v", err)
	}
	if err := s.InsertStructure(ctx, StructureRow{StructureID: "s1", OwnerID: "p1", Kind: "stone_furnace", X: 99, Y: 99}, 20); err != nil {
		t.Fatalf("InsertStructure duplicate: %v", err)
	}

	rows, err := s.RecentStructures(ctx, 10)
	if err != nil || len(rows) != 1 || rows[0].X != 1 {
		t.Fatalf("RecentStructures = %+v, %v (want original row preserved, insert ignored)", rows, err)
	}

	count, err := s.StructureCount(ctx)
	if err != nil || count != 1 {
		t.Fatalf("StructureCount = %d, %v", count, err)
	}

	if err := s.DeleteStructure(ctx, "s1"); err != nil {
		t.Fatalf("DeleteStructure: %v", err)
	}
	count, _ = s.StructureCount(ctx)
	if count != 0 {
		t.Fatalf("StructureCount after delete = %d, want 0", count)
	}
}

func TestProjectileEviction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := s.InsertProjectile(ctx, ProjectileRow{ProjectileID: id, OwnerID: "p1", ExpiresAt: 9999}, int64(i)); err != nil {
			t.Fatalf("InsertProjectile %s: %v", id, err)
		}
	}

	all, err := s.AllProjectiles(ctx)
	if err != nil || len(all) != 5 {
		t.Fatalf("AllProjectiles = %d rows, %v", len(all), err)
	}

	if err := s.EvictOldestProjectiles(ctx, 3); err != nil {
		t.Fatalf("EvictOldestProjectiles: %v", err)
	}
	all, _ = s.AllProjectiles(ctx)
	if len(all) != 3 {
		t.Fatalf("after eviction len = %d, want 3", len(all))
	}

	active, err := s.ActiveProjectiles(ctx, 0, 10)
	if err != nil || len(active) != 3 {
		t.Fatalf("ActiveProjectiles = %d, %v", len(active), err)
	}

	active, err = s.ActiveProjectiles(ctx, 10000, 10)
	if err != nil || len(active) != 0 {
		t.Fatalf("ActiveProjectiles past expiry = %d, %v, want 0", len(active), err)
	}

	if err := s.DeleteProjectile(ctx, all[0].ProjectileID); err != nil {
		t.Fatalf("DeleteProjectile: %v", err)
	}
	all, _ = s.AllProjectiles(ctx)
	if len(all) != 2 {
		t.Fatalf("after delete len = %d, want 2", len(all))
	}
}

func TestGameplayStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.LoadGameplayState(ctx); err != nil || ok {
		t.Fatalf("expected no gameplay state yet, got ok=%v err=%v", ok, err)
	}
	if err := s.UpsertGameplayState(ctx, `{"tick":1}`, 100); err != nil {
		t.Fatalf("UpsertGameplayState: %v", err)
	}
	value, ok, err := s.LoadGameplayState(ctx)
	if err != nil || !ok || value != `{"tick":1}` {
		t.Fatalf("LoadGameplayState = %q, %v, %v", value, ok, err)
	}
}
