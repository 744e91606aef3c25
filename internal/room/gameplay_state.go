package room

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roomforge/internal/gameplay"
)

func decodeGameplayState(raw string) (*gameplay.State, error) {
	state := gameplay.NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode gameplay state: %w", err)
	}
	return state, nil
}

func (r *Room) persistGameplayStateLocked(ctx context.Context, now time.Time) error {
	data, err := json.Marshal(r.gameplayState)
	if err != nil {
		return fmt.Errorf("encode gameplay state: %w", err)
	}
	if err := r.store.UpsertGameplayState(ctx, string(data), now.UnixMilli()); err != nil {
		return fmt.Errorf("persist gameplay state: %w", err)
	}
	return nil
}
