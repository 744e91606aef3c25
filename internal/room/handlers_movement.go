package room

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roomforge/internal/proto"
)

// maxInputBatch bounds how many input samples a single input_batch command
// may carry.
const maxInputBatch = 128

type inputSample struct {
	Seq   uint32 `json:"seq"`
	Up    bool   `json:"up"`
	Down  bool   `json:"down"`
	Left  bool   `json:"left"`
	Right bool   `json:"right"`
}

type inputBatchPayload struct {
	Inputs []inputSample `json:"inputs"`
}

// handleMovementLocked applies a movement/input_batch command: the highest
// newly accepted sample (by seq) is latched as the player's current input.
// It always reports changed=false; latched input is invisible to the
// snapshot-dirty check and only surfaces through the next movement tick.
func (r *Room) handleMovementLocked(ctx context.Context, att *attachment, envelope proto.ClientEnvelope, now time.Time) (bool, error) {
	switch envelope.Action {
	case "input_batch":
		var payload inputBatchPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		samples := payload.Inputs
		if len(samples) > maxInputBatch {
			return false, errInputBatchTooLarge
		}
		if len(samples) == 0 {
			return false, nil
		}

		current, err := r.store.LoadInput(ctx, att.playerID)
		if err != nil {
			return false, err
		}
		highest := current.LastInputSeq
		for _, sample := range samples {
			if sample.Seq <= highest {
				continue
			}
			current.Up, current.Down, current.Left, current.Right = sample.Up, sample.Down, sample.Left, sample.Right
			current.LastInputSeq = sample.Seq
			highest = sample.Seq
		}
		current.PlayerID = att.playerID
		if err := r.store.UpsertInput(ctx, current, now.UnixMilli()); err != nil {
			return false, err
		}
		return false, nil
	default:
		return false, errUnknownAction(envelope.Action)
	}
}

var errInputBatchTooLarge = errors.New("input batch too large")

func errMalformedPayload(err error) error {
	return malformedPayloadError{err: err}
}

type malformedPayloadError struct{ err error }

func (e malformedPayloadError) Error() string { return "malformed payload: " + e.err.Error() }
func (e malformedPayloadError) Unwrap() error { return e.err }
