package room

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"roomforge/internal/proto"
)

func (r *Room) handleCoreLocked(ctx context.Context, conn *websocket.Conn, att *attachment, envelope proto.ClientEnvelope, now time.Time) (bool, error) {
	switch envelope.Action {
	case "ping":
		seq := envelope.Seq
		pong := proto.NewEnvelope("pong", r.tick, now.UnixMilli(), "core", "pong", &seq, map[string]any{
			"clientTime": envelope.ClientTime,
		})
		r.sendEnvelopeLocked(conn, pong)
		return false, nil
	default:
		return false, errUnknownAction(envelope.Action)
	}
}

type unknownActionError struct{ action string }

func (e unknownActionError) Error() string {
	return "unknown action: " + e.action
}

func errUnknownAction(action string) error {
	return unknownActionError{action: action}
}
