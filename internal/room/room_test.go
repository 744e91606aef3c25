package room

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roomforge/internal/gameplay"
	"roomforge/internal/proto"
	"roomforge/internal/sim"
	"roomforge/internal/store"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	st, err := store.Open(context.Background(), "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r, err := New(context.Background(), "TESTROOM", st, Config{}, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

// dialTestConn spins up a throwaway websocket server and returns its
// server-side connection, for tests that exercise handlers writing real
// envelopes over a real socket.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		connCh <- conn
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[len("http"):]
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-connCh
	t.Cleanup(func() { serverConn.Close() })
	return serverConn
}

func command(t *testing.T, seq uint32, feature, action string, payload any) proto.ClientEnvelope {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		raw = data
	}
	return proto.ClientEnvelope{
		V: proto.Version, Kind: "command", Seq: seq, Feature: feature, Action: action,
		ClientTime: 1.0, Payload: raw,
	}
}

func TestHandleMovementInputBatchAlwaysReportsNotDirty(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}

	env := command(t, 1, "movement", "input_batch", inputBatchPayload{
		Inputs: []inputSample{{Seq: 1, Up: true}},
	})
	changed, err := r.handleMovementLocked(context.Background(), att, env, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("handleMovementLocked: %v", err)
	}
	if changed {
		t.Fatal("expected movement handler to never report dirty directly")
	}

	row, err := r.store.LoadInput(context.Background(), "player-1")
	if err != nil {
		t.Fatalf("LoadInput: %v", err)
	}
	if !row.Up || row.LastInputSeq != 1 {
		t.Fatalf("input not latched: %+v", row)
	}
}

func TestHandleBuildPlaceRejectsUnknownKind(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}

	env := command(t, 1, "build", "place", buildPlacePayload{Kind: "not-a-real-kind", X: 1, Y: 2})
	if _, err := r.handleBuildLocked(context.Background(), att, env, time.Unix(0, 0)); err == nil {
		t.Fatal("expected unknown structure kind to be rejected")
	}
}

func TestHandleBuildPlaceAndRemove(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}
	ctx := context.Background()

	env := command(t, 1, "build", "place", buildPlacePayload{Kind: "beacon", X: 5, Y: 6, ClientBuildID: "b1"})
	changed, err := r.handleBuildLocked(ctx, att, env, time.Unix(0, 0))
	if err != nil || !changed {
		t.Fatalf("place: changed=%v err=%v", changed, err)
	}

	rows, err := r.store.RecentStructures(ctx, 10)
	if err != nil || len(rows) != 1 || rows[0].StructureID != "b1" {
		t.Fatalf("RecentStructures = %+v, %v", rows, err)
	}

	env = command(t, 2, "build", "remove", buildRemovePayload{StructureID: "b1"})
	changed, err = r.handleBuildLocked(ctx, att, env, time.Unix(0, 0))
	if err != nil || !changed {
		t.Fatalf("remove: changed=%v err=%v", changed, err)
	}
	rows, err = r.store.RecentStructures(ctx, 10)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected structure removed, got %+v", rows)
	}
}

func TestHandleProjectileFireClampsVelocity(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}
	ctx := context.Background()

	env := command(t, 1, "projectile", "fire", projectileFirePayload{X: 0, Y: 0, VX: 2000, VY: 0})
	changed, err := r.handleProjectileLocked(ctx, att, env, time.Unix(0, 0))
	if err != nil || !changed {
		t.Fatalf("fire: changed=%v err=%v", changed, err)
	}

	rows, err := r.store.AllProjectiles(ctx)
	if err != nil || len(rows) != 1 {
		t.Fatalf("AllProjectiles = %+v, %v", rows, err)
	}
	if rows[0].VX > 900.01 {
		t.Fatalf("velocity not clamped: %v", rows[0].VX)
	}
}

func TestHandleGameplayGrantResourceRejectsUnknownResource(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}

	env := command(t, 1, "gameplay", "grant_resource", grantResourcePayload{Resource: "unobtainium", Amount: 1})
	if _, err := r.handleGameplayLocked(context.Background(), att, env, time.Unix(0, 0)); err == nil {
		t.Fatal("expected unknown resource kind to be rejected")
	}
}

func TestHandleGameplayGrantResourceEnqueuesAndAppliesOnTick(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}
	ctx := context.Background()

	env := command(t, 1, "gameplay", "grant_resource", grantResourcePayload{
		Resource: gameplay.ResourceIronOre, Amount: 5,
	})
	changed, err := r.handleGameplayLocked(ctx, att, env, time.Unix(0, 0))
	if err != nil || changed {
		t.Fatalf("grant_resource: changed=%v err=%v, want false,nil", changed, err)
	}
	if len(r.pendingGameplay) != 1 {
		t.Fatalf("expected one pending gameplay command, got %d", len(r.pendingGameplay))
	}

	gameplayChanged := r.tickGameplayLocked(ctx, 1, time.Unix(0, 0))
	if !gameplayChanged {
		t.Fatal("expected tickGameplayLocked to report changed after a granted resource event")
	}
	if r.gameplayState.Inventories["player-1"].Count(gameplay.ResourceIronOre) != 5 {
		t.Fatalf("resource not granted: %+v", r.gameplayState.Inventories["player-1"])
	}
}

// S6 — a latched input batch moves the player on the next tick.
func TestMovementTickIntegratesLatchedInput(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := r.store.ConnectPlayer(ctx, "player-1", now.UnixMilli()); err != nil {
		t.Fatalf("ConnectPlayer: %v", err)
	}

	env := command(t, 1, "movement", "input_batch", inputBatchPayload{
		Inputs: []inputSample{{Seq: 1}, {Seq: 2}, {Seq: 3, Right: true}},
	})
	if _, err := r.handleMovementLocked(ctx, att, env, now); err != nil {
		t.Fatalf("handleMovementLocked: %v", err)
	}

	if !r.tickMovementLocked(ctx, now) {
		t.Fatal("expected movement tick to report dirty while a player is connected")
	}

	row, err := r.store.LoadMovement(ctx, "player-1")
	if err != nil {
		t.Fatalf("LoadMovement: %v", err)
	}
	wantX := sim.MoveSpeed * sim.DTSeconds
	if row.VX <= 0 || row.X < wantX-1e-9 || row.X > wantX+1e-9 {
		t.Fatalf("movement not integrated: %+v, want x=%v", row, wantX)
	}

	input, err := r.store.LoadInput(ctx, "player-1")
	if err != nil || input.LastInputSeq != 3 {
		t.Fatalf("LoadInput = %+v, %v, want last_input_seq 3", input, err)
	}
}

func TestMovementInputBatchRejectsOversizedBatch(t *testing.T) {
	r := newTestRoom(t)
	att := &attachment{playerID: "player-1"}

	samples := make([]inputSample, maxInputBatch+1)
	for i := range samples {
		samples[i] = inputSample{Seq: uint32(i + 1)}
	}
	env := command(t, 1, "movement", "input_batch", inputBatchPayload{Inputs: samples})
	if _, err := r.handleMovementLocked(context.Background(), att, env, time.Unix(0, 0)); err == nil {
		t.Fatal("expected oversized input batch to be rejected")
	}
}

func TestProjectileTickReportsDirtyWhenLastProjectileExpires(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if r.tickProjectilesLocked(ctx, now) {
		t.Fatal("expected empty projectile table to report not dirty")
	}

	row := store.ProjectileRow{ProjectileID: "p1", OwnerID: "player-1", ExpiresAt: now.UnixMilli() - 1}
	if err := r.store.InsertProjectile(ctx, row, now.UnixMilli()-100); err != nil {
		t.Fatalf("InsertProjectile: %v", err)
	}

	if !r.tickProjectilesLocked(ctx, now) {
		t.Fatal("expected tick that expires the last projectile to report dirty")
	}

	rows, err := r.store.AllProjectiles(ctx)
	if err != nil || len(rows) != 0 {
		t.Fatalf("AllProjectiles = %+v, %v, want expired projectile deleted", rows, err)
	}
}

func TestDispatchDuplicateSeqIsAcknowledgedWithoutReapplying(t *testing.T) {
	r := newTestRoom(t)
	conn := dialTestConn(t)
	att := &attachment{playerID: "player-1", lastSeq: 5}
	r.sockets[conn] = att

	raw, err := json.Marshal(command(t, 5, "core", "ping", nil))
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	r.HandleMessage(context.Background(), conn, raw, time.Unix(1700000000, 0))

	if att.lastSeq != 5 {
		t.Fatalf("lastSeq mutated unexpectedly: %d", att.lastSeq)
	}
}
