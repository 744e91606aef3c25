package store

import "context"

// ProjectileRow is one in-flight projectile.
type ProjectileRow struct {
	ProjectileID       string
	OwnerID            string
	X, Y               float64
	VX, VY             float64
	ExpiresAt          int64
	ClientProjectileID string
}

// InsertProjectile records a newly fired projectile.
func (s *Store) InsertProjectile(ctx context.Context, row ProjectileRow, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projectile_state (projectile_id, owner_id, x, y, vx, vy, expires_at, updated_at, client_projectile_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(projectile_id) DO UPDATE SET
		   x = excluded.x, y = excluded.y, vx = excluded.vx, vy = excluded.vy,
		   expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		row.ProjectileID, row.OwnerID, row.X, row.Y, row.VX, row.VY, row.ExpiresAt, nowMS, row.ClientProjectileID,
	)
	return err
}

// UpdateProjectilePosition writes a projectile's position after a tick step.
func (s *Store) UpdateProjectilePosition(ctx context.Context, projectileID string, x, y float64, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE projectile_state SET x = ?, y = ?, updated_at = ? WHERE projectile_id = ?`,
		x, y, nowMS, projectileID,
	)
	return err
}

// DeleteProjectile removes a projectile by id, e.g. on expiry or impact.
func (s *Store) DeleteProjectile(ctx context.Context, projectileID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projectile_state WHERE projectile_id = ?`, projectileID)
	return err
}

// AllProjectiles returns every stored projectile, for per-tick stepping.
func (s *Store) AllProjectiles(ctx context.Context) ([]ProjectileRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT projectile_id, owner_id, x, y, vx, vy, expires_at, client_projectile_id FROM projectile_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectileRow
	for rows.Next() {
		var r ProjectileRow
		var clientID *string
		if err := rows.Scan(&r.ProjectileID, &r.OwnerID, &r.X, &r.Y, &r.VX, &r.VY, &r.ExpiresAt, &clientID); err != nil {
			return nil, err
		}
		if clientID != nil {
			r.ClientProjectileID = *clientID
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActiveProjectiles returns up to limit not-yet-expired projectiles, most
// recently updated first, for snapshot assembly.
func (s *Store) ActiveProjectiles(ctx context.Context, nowMS int64, limit int) ([]ProjectileRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT projectile_id, owner_id, x, y, vx, vy, expires_at, client_projectile_id
		 FROM projectile_state WHERE expires_at > ? ORDER BY updated_at DESC LIMIT ?`,
		nowMS, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectileRow
	for rows.Next() {
		var r ProjectileRow
		var clientID *string
		if err := rows.Scan(&r.ProjectileID, &r.OwnerID, &r.X, &r.Y, &r.VX, &r.VY, &r.ExpiresAt, &clientID); err != nil {
			return nil, err
		}
		if clientID != nil {
			r.ClientProjectileID = *clientID
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EvictOldestProjectiles deletes the oldest-updated projectiles so that at
// most keep remain, bounding unbounded projectile accumulation.
func (s *Store) EvictOldestProjectiles(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM projectile_state WHERE projectile_id IN (
			SELECT projectile_id FROM projectile_state ORDER BY updated_at ASC
			LIMIT MAX(0, (SELECT COUNT(*) FROM projectile_state) - ?)
		)`,
		keep,
	)
	return err
}
