package store

import (
	"context"
	"database/sql"
	"errors"
)

// MovementRow is one player's position and velocity.
type MovementRow struct {
	PlayerID string
	X, Y     float64
	VX, VY   float64
}

// InputRow is one player's latched directional input and last accepted
// input sequence.
type InputRow struct {
	PlayerID              string
	Up, Down, Left, Right bool
	LastInputSeq          uint32
}

// LoadInput returns the latched input state for a player, or the zero value
// if the player has no input row yet.
func (s *Store) LoadInput(ctx context.Context, playerID string) (InputRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT up, down, left, right, last_input_seq FROM movement_input_state WHERE player_id = ? LIMIT 1`,
		playerID,
	)
	var up, down, left, right int
	var lastSeq int64
	result := InputRow{PlayerID: playerID}
	if err := row.Scan(&up, &down, &left, &right, &lastSeq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return result, err
	}
	result.Up, result.Down, result.Left, result.Right = up != 0, down != 0, left != 0, right != 0
	if lastSeq > 0 {
		result.LastInputSeq = uint32(lastSeq)
	}
	return result, nil
}

// UpsertInput writes the latched input state and last accepted sequence for
// a player.
func (s *Store) UpsertInput(ctx context.Context, row InputRow, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO movement_input_state (player_id, up, down, left, right, last_input_seq, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
		   up = excluded.up, down = excluded.down, left = excluded.left, right = excluded.right,
		   last_input_seq = excluded.last_input_seq, updated_at = excluded.updated_at`,
		row.PlayerID, boolToInt(row.Up), boolToInt(row.Down), boolToInt(row.Left), boolToInt(row.Right),
		row.LastInputSeq, nowMS,
	)
	return err
}

// LoadMovement returns a player's position and velocity, or the zero value
// (0,0,0,0) if the player has no movement row yet.
func (s *Store) LoadMovement(ctx context.Context, playerID string) (MovementRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT player_id, x, y, vx, vy FROM movement_state WHERE player_id = ? LIMIT 1`, playerID)
	result := MovementRow{PlayerID: playerID}
	var id string
	if err := row.Scan(&id, &result.X, &result.Y, &result.VX, &result.VY); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// UpsertMovement writes a player's position and velocity.
func (s *Store) UpsertMovement(ctx context.Context, row MovementRow, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO movement_state (player_id, x, y, vx, vy, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
		   x = excluded.x, y = excluded.y, vx = excluded.vx, vy = excluded.vy, updated_at = excluded.updated_at`,
		row.PlayerID, row.X, row.Y, row.VX, row.VY, nowMS,
	)
	return err
}

// AllMovement returns every player's movement row, ordered by player id for
// deterministic snapshot construction.
func (s *Store) AllMovement(ctx context.Context) ([]MovementRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player_id, x, y, vx, vy FROM movement_state ORDER BY player_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MovementRow
	for rows.Next() {
		var r MovementRow
		if err := rows.Scan(&r.PlayerID, &r.X, &r.Y, &r.VX, &r.VY); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllInputAcks returns every player's last accepted input sequence, ordered
// by player id.
func (s *Store) AllInputAcks(ctx context.Context) (map[string]uint32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player_id, last_input_seq FROM movement_input_state ORDER BY player_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	acks := make(map[string]uint32)
	for rows.Next() {
		var id string
		var seq int64
		if err := rows.Scan(&id, &seq); err != nil {
			return nil, err
		}
		if seq > 0 {
			acks[id] = uint32(seq)
		} else {
			acks[id] = 0
		}
	}
	return acks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
