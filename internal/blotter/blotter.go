package blotter

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one executed trade: a fill against a resting order or a hedge
// command sent in response to it.
type Entry struct {
	Time     time.Time
	OrderID  int64
	Kind     string // "fill" or "hedge"
	Side     string
	Price    int64
	Volume   int64
	Position int64 // signed position after the fill was applied
}

const (
	KindFill  = "fill"
	KindHedge = "hedge"
)

// Store is an append-only trade journal backed by sqlite. It is written for
// inspection and never read back by the trading engine.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		order_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		side TEXT NOT NULL,
		price INTEGER NOT NULL,
		volume INTEGER NOT NULL,
		position INTEGER NOT NULL
	)`)
	return err
}

func (s *Store) Append(ctx context.Context, entry Entry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (ts, order_id, kind, side, price, volume, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Time.UnixMilli(), entry.OrderID, entry.Kind, entry.Side, entry.Price, entry.Volume, entry.Position,
	)
	return err
}

// Recent returns up to limit of the newest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, order_id, kind, side, price, volume, position FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var ts int64
		if err := rows.Scan(&ts, &entry.OrderID, &entry.Kind, &entry.Side, &entry.Price, &entry.Volume, &entry.Position); err != nil {
			return nil, err
		}
		entry.Time = time.UnixMilli(ts).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
