package room

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"roomforge/internal/proto"
)

// welcomePayload is sent once, immediately after a socket is accepted.
type welcomePayload struct {
	RoomCode       string `json:"roomCode"`
	PlayerID       string `json:"playerId"`
	SimRateHz      int    `json:"simRateHz"`
	SnapshotRateHz int    `json:"snapshotRateHz"`
}

func (r *Room) sendWelcomeLocked(conn *websocket.Conn, now time.Time, payload welcomePayload) error {
	env := proto.NewEnvelope("welcome", r.tick, now.UnixMilli(), "core", "connected", nil, payload)
	return writeEnvelope(conn, env)
}

func (r *Room) sendSnapshotLocked(conn *websocket.Conn, now time.Time, payload Snapshot) error {
	env := proto.NewEnvelope("snapshot", r.tick, now.UnixMilli(), "core", "state", nil, payload)
	return writeEnvelope(conn, env)
}

func (r *Room) sendEnvelopeLocked(conn *websocket.Conn, env proto.ServerEnvelope) {
	_ = writeEnvelope(conn, env)
}

// broadcastSnapshotLocked rebuilds and sends the current snapshot to every
// attached socket; write failures are tolerated here (the read loop for
// that socket will observe the error and detach it).
func (r *Room) broadcastSnapshotLocked(ctx context.Context, now time.Time) {
	snapshot, err := r.buildSnapshotLocked(ctx, now)
	if err != nil {
		r.logError(ctx, now, "build snapshot", err)
		return
	}
	env := proto.NewEnvelope("snapshot", r.tick, now.UnixMilli(), "core", "state", nil, snapshot)
	for conn := range r.sockets {
		r.sendEnvelopeLocked(conn, env)
	}
	r.gameplayEvents = nil
}

func writeEnvelope(conn *websocket.Conn, env proto.ServerEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
