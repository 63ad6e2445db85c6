package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Snapshot is one exported timetable, kept verbatim.
type Snapshot struct {
	ID        int64
	Reason    string
	Days      int
	Body      string
	CreatedAt time.Time
}

// SaveSnapshot stores an exported snapshot and returns its id.
func (db *DB) SaveSnapshot(reason string, days int, body string) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO snapshots (reason, days, body, created_at) VALUES (?, ?, ?, ?)`,
		reason, days, body, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	return result.LastInsertId()
}

// LatestSnapshot returns the newest snapshot, or nil if none was saved.
func (db *DB) LatestSnapshot() (*Snapshot, error) {
	snaps, err := db.querySnapshots(
		`SELECT id, reason, days, body, created_at FROM snapshots ORDER BY id DESC LIMIT 1`,
	)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// GetSnapshot returns the snapshot with the given id, or nil.
func (db *DB) GetSnapshot(id int64) (*Snapshot, error) {
	snaps, err := db.querySnapshots(
		`SELECT id, reason, days, body, created_at FROM snapshots WHERE id = ?`, id,
	)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first, without bodies.
func (db *DB) ListSnapshots(limit int) ([]Snapshot, error) {
	return db.querySnapshots(
		`SELECT id, reason, days, '', created_at FROM snapshots ORDER BY id DESC LIMIT ?`, limit,
	)
}

// PruneSnapshots deletes all but the newest keep snapshots.
func (db *DB) PruneSnapshots(keep int) (int64, error) {
	result, err := db.Exec(
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) querySnapshots(query string, args ...any) ([]Snapshot, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		var created sql.NullString
		if err := rows.Scan(&s.ID, &s.Reason, &s.Days, &s.Body, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created.String); err == nil {
			s.CreatedAt = t
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
