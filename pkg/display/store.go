// Package display persists the user-maintained display overlay: per-SKU facts
// about when a unit went on the showroom shelf and in what condition. The
// overlay survives between planning runs so a fact entered once keeps aging
// until the unit comes off the shelf.
package display

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starlogistic/replen/pkg/replen"
	"github.com/starlogistic/replen/pkg/tabular"
)

// Store is a SQLite-backed overlay store. One row per SKU code; an upsert for
// a code already present replaces the fact.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the data directory if needed and opens (or creates) the
// overlay database inside it.
func Open(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataPath, "display.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS display_records (
		code TEXT PRIMARY KEY,
		start_date INTEGER NOT NULL,
		condition TEXT NOT NULL,
		raw_condition TEXT,
		updated_at INTEGER DEFAULT (strftime('%s', 'now'))
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the full overlay keyed by normalized SKU code, in the shape
// Input.Overlay expects.
func (s *Store) Load(ctx context.Context) (map[string]replen.DisplayRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, start_date, condition, raw_condition FROM display_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query display records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]replen.DisplayRecord)
	for rows.Next() {
		var (
			code    string
			startTS int64
			cond    string
			raw     sql.NullString
		)
		if err := rows.Scan(&code, &startTS, &cond, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan display record: %w", err)
		}
		out[code] = replen.DisplayRecord{
			StartDate:    time.Unix(startTS, 0).UTC(),
			Condition:    replen.Condition(cond),
			RawCondition: raw.String,
		}
	}
	return out, rows.Err()
}

// Upsert stores one display fact, replacing any previous fact for the code.
func (s *Store) Upsert(ctx context.Context, code string, rec replen.DisplayRecord) error {
	code = tabular.NormalizeCode(code)
	if code == "" {
		return fmt.Errorf("empty code")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO display_records (code, start_date, condition, raw_condition, updated_at)
		VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(code) DO UPDATE SET
			start_date = excluded.start_date,
			condition = excluded.condition,
			raw_condition = excluded.raw_condition,
			updated_at = excluded.updated_at`,
		code, rec.StartDate.Unix(), string(rec.Condition), rec.RawCondition)
	if err != nil {
		return fmt.Errorf("failed to upsert display record: %w", err)
	}
	return nil
}

// Remove deletes the fact for a code, typically when the unit leaves the
// shelf. Removing an absent code is not an error.
func (s *Store) Remove(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM display_records WHERE code = ?`, tabular.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("failed to delete display record: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
