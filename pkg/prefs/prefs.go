// Package prefs persists user preferences as a single JSON blob under a
// fixed key, mirroring the one-blob localStorage record the web client kept.
package prefs

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"
)

const blobKey = "swapfeed_settings"

// Preferences is the flat record of everything the user can configure.
type Preferences struct {
	Targets         []string `json:"targets"`
	Sources         []string `json:"sources"`
	Sort            string   `json:"sort"`
	TimeFilter      string   `json:"time_filter"`
	ViewMode        string   `json:"view_mode"`
	Autoscroll      bool     `json:"autoscroll"`
	AutoscrollSpeed int      `json:"autoscroll_speed"`
}

// Default returns the out-of-the-box preferences.
func Default() Preferences {
	return Preferences{
		Sort:            "hot",
		TimeFilter:      "day",
		ViewMode:        "list",
		AutoscrollSpeed: 5,
	}
}

type Store struct {
	sql *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS prefs (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
	`); err != nil {
		return nil, err
	}
	return &Store{sql: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Load returns the saved preferences, falling back to defaults when nothing
// was saved yet or the stored blob is unreadable. A corrupt blob must never
// leave the caller without working settings.
func (s *Store) Load(ctx context.Context) Preferences {
	var value string
	err := s.sql.QueryRowContext(ctx, "SELECT value FROM prefs WHERE key = ?", blobKey).Scan(&value)
	if err != nil {
		return Default()
	}

	p := Default()
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return Default()
	}
	return p
}

// Save rewrites the whole blob.
func (s *Store) Save(ctx context.Context, p Preferences) error {
	value, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.sql.ExecContext(ctx, `
INSERT INTO prefs(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, blobKey, string(value))
	return err
}
