package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/leafdash/core/model"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS snapshots (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        seq INTEGER,
        origin TEXT,
        received INTEGER,
        snapshot TEXT
    );
    CREATE INDEX IF NOT EXISTS snapshots_received ON snapshots (received);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (seq, origin, received, snapshot) VALUES (?, ?, ?, ?)`,
		rec.Seq, string(rec.Origin), rec.Received.UnixNano(), string(rec.Snapshot))
	return err
}

// Query returns records matching q ordered by receive time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT seq, origin, received, snapshot FROM snapshots WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND received >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND received <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Origin != "" {
		query += ` AND origin = ?`
		args = append(args, string(q.Origin))
	}
	query += ` ORDER BY received, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var (
			r        Record
			origin   string
			received int64
			snapshot string
		)
		if err := rows.Scan(&r.Seq, &origin, &received, &snapshot); err != nil {
			return nil, err
		}
		r.Origin = model.Origin(origin)
		r.Received = time.Unix(0, received).UTC()
		r.Snapshot = []byte(snapshot)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
