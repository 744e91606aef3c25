// Package room implements the authoritative per-room object: socket
// lifecycle, command dispatch, the fixed-step tick loop, and snapshot
// broadcast. A Room is single-threaded cooperative: every exported method
// that touches room state takes the room-wide mutex, so handlers for a given
// room are fully serialized regardless of how many sockets are attached to it.
package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomforge/internal/gameplay"
	"roomforge/internal/scheduler"
	"roomforge/internal/sim"
	"roomforge/internal/store"
	"roomforge/logging"
	gameplaylog "roomforge/logging/gameplay"
	"roomforge/logging/lifecycle"
)

// maxPendingGameplayCommands bounds the per-tick gameplay command buffer;
// overflow drops the oldest entry, mirroring the bounded-collection policy
// applied to structures, projectiles, and input batches.
const maxPendingGameplayCommands = 256

// maxSnapshotGameplayEvents bounds how many gameplay events ride along with
// a single broadcast snapshot.
const maxSnapshotGameplayEvents = 32

// attachment is the per-socket state the room controller tracks: the
// authenticated player id and the last accepted command sequence.
type attachment struct {
	playerID string
	lastSeq  uint32
}

// Room is the authoritative state for one room code: its socket set, its
// persisted world state, and its fixed-step scheduler.
type Room struct {
	mu sync.Mutex

	code      string
	store     *store.Store
	publisher logging.Publisher

	tick          uint64
	dirty         bool
	snapshotEvery uint64
	sched         *scheduler.Scheduler

	overrunStreak    uint64
	budgetAlarmFired bool

	sockets map[*websocket.Conn]*attachment

	gameplayState   *gameplay.State
	pendingGameplay []gameplay.Command
	gameplayEvents  []gameplay.Event
}

// Config parameterizes a Room beyond its store and room code.
type Config struct {
	Publisher logging.Publisher

	// SnapshotEveryTicks is the broadcast cadence in ticks; 0 means the
	// default of 3 (60 Hz sim, 20 Hz snapshots).
	SnapshotEveryTicks int
	// CatchupStepCap bounds how many ticks a single catch-up pass may run;
	// 0 means the default of 8.
	CatchupStepCap int
}

// New constructs a Room over an already-open store, loading persisted
// gameplay state (if any) and seeding the room's tick counter from the
// persisted gameplay tick, so a restarted room's tick never goes backwards.
func New(ctx context.Context, code string, st *store.Store, cfg Config, now time.Time) (*Room, error) {
	if err := st.UpsertRoomCode(ctx, code); err != nil {
		return nil, fmt.Errorf("room %s: persist room code: %w", code, err)
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	snapshotEvery := cfg.SnapshotEveryTicks
	if snapshotEvery <= 0 {
		snapshotEvery = sim.RateHz / sim.SnapshotRateHz
	}
	catchupCap := cfg.CatchupStepCap
	if catchupCap <= 0 {
		catchupCap = 8
	}

	state, err := loadOrNewGameplayState(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("room %s: load gameplay state: %w", code, err)
	}

	r := &Room{
		code:          code,
		store:         st,
		publisher:     publisher,
		tick:          state.Tick,
		snapshotEvery: uint64(snapshotEvery),
		sched: scheduler.New(scheduler.Config{
			RateHz:          sim.RateHz,
			MaxCatchupSteps: catchupCap,
			MaxElapsed:      250 * time.Millisecond,
		}, now),
		sockets:       make(map[*websocket.Conn]*attachment),
		gameplayState: state,
	}

	if err := r.restorePresenceFromActiveSocketsLocked(ctx, now); err != nil {
		return nil, fmt.Errorf("room %s: restore presence: %w", code, err)
	}

	return r, nil
}

func loadOrNewGameplayState(ctx context.Context, st *store.Store) (*gameplay.State, error) {
	raw, ok, err := st.LoadGameplayState(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return gameplay.NewState(), nil
	}
	state, err := decodeGameplayState(raw)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// restorePresenceFromActiveSocketsLocked reconciles persisted presence
// against sockets already attached at wake time. A freshly constructed Room
// has no sockets yet, so this is currently a no-op hook.
func (r *Room) restorePresenceFromActiveSocketsLocked(ctx context.Context, now time.Time) error {
	return nil
}

// Code returns the room's sanitized code.
func (r *Room) Code() string {
	return r.code
}

// Attach registers a newly accepted socket for playerID, persists presence,
// sends the welcome envelope and a private snapshot over conn, and then
// broadcasts a snapshot to every attached socket (including this one).
func (r *Room) Attach(ctx context.Context, conn *websocket.Conn, playerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sockets[conn] = &attachment{playerID: playerID}

	if err := r.store.ConnectPlayer(ctx, playerID, now.UnixMilli()); err != nil {
		delete(r.sockets, conn)
		return fmt.Errorf("room %s: connect player %s: %w", r.code, playerID, err)
	}

	welcome := welcomePayload{
		RoomCode:       r.code,
		PlayerID:       playerID,
		SimRateHz:      sim.RateHz,
		SnapshotRateHz: sim.SnapshotRateHz,
	}
	if err := r.sendWelcomeLocked(conn, now, welcome); err != nil {
		return err
	}

	snapshot, err := r.buildSnapshotLocked(ctx, now)
	if err != nil {
		return fmt.Errorf("room %s: build snapshot for %s: %w", r.code, playerID, err)
	}
	if err := r.sendSnapshotLocked(conn, now, snapshot); err != nil {
		return err
	}

	lifecycle.PlayerJoined(ctx, r.publisher, r.tick, logging.EntityRef{ID: playerID, Kind: "player"}, lifecycle.PlayerJoinedPayload{}, nil)
	r.broadcastSnapshotLocked(ctx, now)
	return nil
}

// Detach removes a socket. If no other socket attributes to the same
// player, presence is marked disconnected and a snapshot is broadcast.
func (r *Room) Detach(ctx context.Context, conn *websocket.Conn, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	att, ok := r.sockets[conn]
	if !ok {
		return
	}
	delete(r.sockets, conn)

	if r.playerHasOtherSocketLocked(att.playerID) {
		return
	}
	if err := r.store.DisconnectPlayer(ctx, att.playerID, now.UnixMilli()); err != nil {
		r.logError(ctx, now, "disconnect player", err)
		return
	}
	lifecycle.PlayerDisconnected(ctx, r.publisher, r.tick, logging.EntityRef{ID: att.playerID, Kind: "player"}, lifecycle.PlayerDisconnectedPayload{Reason: "socket_closed"}, nil)
	r.broadcastSnapshotLocked(ctx, now)
}

func (r *Room) playerHasOtherSocketLocked(playerID string) bool {
	for _, att := range r.sockets {
		if att.playerID == playerID {
			return true
		}
	}
	return false
}

func (r *Room) logError(ctx context.Context, now time.Time, msg string, err error) {
	r.publisher.Publish(ctx, logging.Event{
		Tick:     r.tick,
		Time:     now,
		Severity: logging.SeverityError,
		Category: "room",
		Payload:  map[string]any{"message": msg, "error": err.Error(), "roomCode": r.code},
	})
}

func (r *Room) enqueueGameplayCommand(ctx context.Context, now time.Time, cmd gameplay.Command) {
	if len(r.pendingGameplay) >= maxPendingGameplayCommands {
		dropped := r.pendingGameplay[0]
		r.pendingGameplay = r.pendingGameplay[1:]
		gameplaylog.CommandRejected(ctx, r.publisher, r.tick, logging.EntityRef{ID: dropped.ActorID, Kind: "actor"}, gameplaylog.RejectedPayload{
			Reason: "pending_gameplay_buffer_overflow",
		}, nil)
	}
	r.pendingGameplay = append(r.pendingGameplay, cmd)
}
