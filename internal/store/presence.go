package store

import (
	"context"
	"database/sql"
	"errors"
)

// UpsertRoomCode records the room's own code in room_meta, tolerating
// repeated calls across restarts.
func (s *Store) UpsertRoomCode(ctx context.Context, roomCode string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_meta (key, value) VALUES ('room_code', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		roomCode,
	)
	return err
}

// LoadRoomCode returns the persisted room code, if any.
func (s *Store) LoadRoomCode(ctx context.Context) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM room_meta WHERE key = 'room_code' LIMIT 1`)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// ConnectPlayer marks a player connected as of nowMS, seeding zeroed
// movement and input rows on first connect.
func (s *Store) ConnectPlayer(ctx context.Context, playerID string, nowMS int64) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO presence_players (player_id, connected, last_seen) VALUES (?, 1, ?)
		 ON CONFLICT(player_id) DO UPDATE SET connected = 1, last_seen = excluded.last_seen`,
		playerID, nowMS,
	); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO movement_state (player_id, x, y, vx, vy, updated_at) VALUES (?, 0, 0, 0, 0, ?)
		 ON CONFLICT(player_id) DO UPDATE SET updated_at = excluded.updated_at`,
		playerID, nowMS,
	); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO movement_input_state (player_id, up, down, left, right, last_input_seq, updated_at)
		 VALUES (?, 0, 0, 0, 0, 0, ?)
		 ON CONFLICT(player_id) DO UPDATE SET updated_at = excluded.updated_at`,
		playerID, nowMS,
	)
	return err
}

// DisconnectPlayer marks a player disconnected as of nowMS.
func (s *Store) DisconnectPlayer(ctx context.Context, playerID string, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE presence_players SET connected = 0, last_seen = ? WHERE player_id = ?`,
		nowMS, playerID,
	)
	return err
}

// ConnectedPlayerIDs returns player ids currently marked connected, ordered
// by most-recently-seen first.
func (s *Store) ConnectedPlayerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id FROM presence_players WHERE connected = 1 ORDER BY last_seen DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
