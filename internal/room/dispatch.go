package room

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"roomforge/internal/proto"
	"roomforge/logging"
	netlog "roomforge/logging/network"
)

// HandleMessage advances the room's simulation to now, then parses and
// dispatches a single client message received over conn. Scheduling runs
// first so that a burst of commands arriving after a period of inactivity
// is always processed against freshly caught-up state.
func (r *Room) HandleMessage(ctx context.Context, conn *websocket.Conn, raw []byte, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runUntilNowLocked(ctx, now)

	att, ok := r.sockets[conn]
	if !ok {
		return
	}

	envelope, err := proto.ParseClientMessage(raw)
	if err != nil {
		r.sendEnvelopeLocked(conn, proto.ErrorEnvelope(r.tick, now.UnixMilli(), "core", "invalid_message", err.Error()))
		return
	}

	if envelope.Seq <= att.lastSeq {
		netlog.AckRegression(ctx, r.publisher, r.tick, logging.EntityRef{ID: att.playerID, Kind: "player"}, netlog.AckPayload{
			Previous: uint64(att.lastSeq), Ack: uint64(envelope.Seq),
		}, nil)
		r.sendEnvelopeLocked(conn, proto.Ack(r.tick, now.UnixMilli(), "core", "duplicate", envelope.Seq))
		return
	}
	previousSeq := att.lastSeq
	att.lastSeq = envelope.Seq
	netlog.AckAdvanced(ctx, r.publisher, r.tick, logging.EntityRef{ID: att.playerID, Kind: "player"}, netlog.AckPayload{
		Previous: uint64(previousSeq), Ack: uint64(envelope.Seq),
	}, nil)

	changed, handlerErr := r.applyCommandLocked(ctx, conn, att, envelope, now)
	if handlerErr != nil {
		r.sendEnvelopeLocked(conn, proto.ErrorEnvelope(r.tick, now.UnixMilli(), "core", "command_rejected", handlerErr.Error()))
	}
	r.sendEnvelopeLocked(conn, proto.Ack(r.tick, now.UnixMilli(), "core", "command", envelope.Seq))

	if changed {
		r.broadcastSnapshotLocked(ctx, now)
	}
}

// applyCommandLocked dispatches a validated client envelope to its
// feature/action handler.
func (r *Room) applyCommandLocked(ctx context.Context, conn *websocket.Conn, att *attachment, envelope proto.ClientEnvelope, now time.Time) (bool, error) {
	switch envelope.Feature {
	case "core":
		return r.handleCoreLocked(ctx, conn, att, envelope, now)
	case "movement":
		return r.handleMovementLocked(ctx, att, envelope, now)
	case "build":
		return r.handleBuildLocked(ctx, att, envelope, now)
	case "projectile":
		return r.handleProjectileLocked(ctx, att, envelope, now)
	case "gameplay":
		return r.handleGameplayLocked(ctx, att, envelope, now)
	default:
		return false, errUnknownFeature(envelope.Feature)
	}
}

type unknownFeatureError struct{ feature string }

func (e unknownFeatureError) Error() string {
	return "unknown feature: " + e.feature
}

func errUnknownFeature(feature string) error {
	return unknownFeatureError{feature: feature}
}
