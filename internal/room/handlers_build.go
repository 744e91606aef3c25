package room

import (
	"context"
	"encoding/json"
	"time"

	"roomforge/internal/ids"
	"roomforge/internal/proto"
	"roomforge/internal/store"
)

var validStructureKinds = map[string]struct{}{
	"beacon":    {},
	"miner":     {},
	"assembler": {},
}

type buildPlacePayload struct {
	Kind          string  `json:"kind"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	ClientBuildID string  `json:"clientBuildId,omitempty"`
}

type buildRemovePayload struct {
	StructureID string `json:"id"`
}

func (r *Room) handleBuildLocked(ctx context.Context, att *attachment, envelope proto.ClientEnvelope, now time.Time) (bool, error) {
	switch envelope.Action {
	case "place":
		var payload buildPlacePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		if _, ok := validStructureKinds[payload.Kind]; !ok {
			return false, errInvalidStructureKind(payload.Kind)
		}
		structureID := payload.ClientBuildID
		if structureID == "" {
			structureID = ids.NewStructureID()
		}
		row := store.StructureRow{StructureID: structureID, OwnerID: att.playerID, Kind: payload.Kind, X: payload.X, Y: payload.Y}
		if err := r.store.InsertStructure(ctx, row, now.UnixMilli()); err != nil {
			return false, err
		}
		return true, nil

	case "remove":
		var payload buildRemovePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		if err := r.store.DeleteStructure(ctx, payload.StructureID); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, errUnknownAction(envelope.Action)
	}
}

type invalidStructureKindError struct{ kind string }

func (e invalidStructureKindError) Error() string { return "invalid structure kind: " + e.kind }

func errInvalidStructureKind(kind string) error {
	return invalidStructureKindError{kind: kind}
}
