// Package persistence provides SQLite-based session storage. The whole
// snapshot is stored as one compressed JSON blob so a partially written
// save can never produce a half-updated session.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/dealfloor/internal/engine"
	"github.com/talgya/dealfloor/internal/state"
)

// ErrNotFound is returned when a session id has no saved snapshot.
var ErrNotFound = errors.New("session not found")

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL,
		week INTEGER NOT NULL,
		phase INTEGER NOT NULL,
		updated_tick INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_session_tick ON events(session_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot writes a session's full state as one compressed blob.
func (db *DB) SaveSnapshot(snap *state.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	blob := db.enc.EncodeAll(raw, nil)

	week := 0
	if snap.Player != nil {
		week = snap.Player.GameTime.Week
	}
	_, err = db.conn.Exec(`INSERT OR REPLACE INTO sessions
		(id, snapshot, week, phase, updated_tick) VALUES (?, ?, ?, ?, ?)`,
		snap.SessionID, blob, week, snap.Phase, snap.Cursor,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", snap.SessionID, err)
	}
	return nil
}

// LoadSnapshot reads, decompresses, and hydrates a session. Hydration is
// forgiving: a blob from an older schema still loads with defaults filled.
func (db *DB) LoadSnapshot(sessionID string) (*state.Snapshot, error) {
	var blob []byte
	err := db.conn.Get(&blob, "SELECT snapshot FROM sessions WHERE id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	raw, err := db.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress session %s: %w", sessionID, err)
	}

	snap := state.HydrateSnapshot(raw)
	snap.SessionID = sessionID
	return snap, nil
}

// ListSessions returns summaries of every saved session.
func (db *DB) ListSessions() ([]SessionSummary, error) {
	var out []SessionSummary
	err := db.conn.Select(&out,
		"SELECT id, week, phase, updated_tick FROM sessions ORDER BY updated_tick DESC")
	return out, err
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	ID          string          `db:"id" json:"id"`
	Week        int             `db:"week" json:"week"`
	Phase       state.GamePhase `db:"phase" json:"phase"`
	UpdatedTick uint64          `db:"updated_tick" json:"updated_tick"`
}

// DeleteSession removes a session and its event history.
func (db *DB) DeleteSession(sessionID string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM events WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveEvents appends journal events for a session.
func (db *DB) SaveEvents(sessionID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (session_id, tick, description, category) VALUES (?, ?, ?, ?)",
			sessionID, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events for a session.
func (db *DB) RecentEvents(sessionID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE session_id = ? ORDER BY id DESC LIMIT ?",
		sessionID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// SaveSession performs a full save of a running simulation: snapshot blob
// plus any journal entries accumulated since the last save.
func (db *DB) SaveSession(sim *engine.Simulation) error {
	if err := db.SaveSnapshot(sim.Snap); err != nil {
		return err
	}
	if err := db.SaveEvents(sim.Snap.SessionID, sim.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_session", sim.Snap.SessionID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	sim.Events = sim.Events[:0]

	slog.Info("session saved", "session", sim.Snap.SessionID, "tick", sim.CurrentTick())
	return nil
}
