package store

import "context"

// StructureRow is one placed build structure.
type StructureRow struct {
	StructureID string
	OwnerID     string
	Kind        string
	X, Y        float64
}

// InsertStructure records a newly placed structure, ignoring the insert if
// the structure id already exists.
func (s *Store) InsertStructure(ctx context.Context, row StructureRow, nowMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_structures (structure_id, owner_id, kind, x, y, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(structure_id) DO NOTHING`,
		row.StructureID, row.OwnerID, row.Kind, row.X, row.Y, nowMS,
	)
	return err
}

// DeleteStructure removes a structure by id.
func (s *Store) DeleteStructure(ctx context.Context, structureID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM build_structures WHERE structure_id = ?`, structureID)
	return err
}

// RecentStructures returns up to limit structures, most recently created
// first.
func (s *Store) RecentStructures(ctx context.Context, limit int) ([]StructureRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT structure_id, owner_id, kind, x, y FROM build_structures ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StructureRow
	for rows.Next() {
		var r StructureRow
		if err := rows.Scan(&r.StructureID, &r.OwnerID, &r.Kind, &r.X, &r.Y); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StructureCount returns the true number of stored structures, independent
// of any page size a caller may use when listing them.
func (s *Store) StructureCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM build_structures`).Scan(&n)
	return n, err
}
