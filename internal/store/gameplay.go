package store

import (
	"context"
	"database/sql"
	"errors"
)

const gameplayStateKey = "gameplay_state"

// LoadGameplayState returns the persisted gameplay state JSON blob, or
// ("", false, nil) if none has been written yet.
func (s *Store) LoadGameplayState(ctx context.Context) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM gameplay_state WHERE key = ? LIMIT 1`, gameplayStateKey)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// UpsertGameplayState persists the gameplay state as a JSON blob.
func (s *Store) UpsertGameplayState(ctx context.Context, value string, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gameplay_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		gameplayStateKey, value, nowMS,
	)
	return err
}
