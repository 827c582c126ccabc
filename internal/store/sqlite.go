package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the SQLite backend. Unlike the file backend, writes
// are real transactions, so two processes sharing one database do not
// lose updates to each other.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) a SQLite-backed store at path.
// The database runs in WAL mode with a busy timeout. The caller must
// Close it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bindings (
		note_id             TEXT PRIMARY KEY,
		remote_doc_id       TEXT NOT NULL DEFAULT '',
		remote_tab_id       TEXT NOT NULL DEFAULT '',
		last_known_revision TEXT NOT NULL DEFAULT '',
		last_sync_at        TEXT NOT NULL DEFAULT '',
		access_lost         INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_bindings_remote_doc ON bindings(remote_doc_id);

	CREATE TABLE IF NOT EXISTS checkpoint (
		id     INTEGER PRIMARY KEY CHECK (id = 1),
		cursor TEXT NOT NULL
	);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return nil
}

// Bind implements Store.Bind.
func (s *SQLiteStore) Bind(noteID string, fields Fields) (*Binding, error) {
	var bound *Binding
	err := s.withTx(func(tx *sql.Tx) error {
		b, _, err := getTx(tx, noteID)
		if err != nil {
			return err
		}
		fields.apply(&b)
		if err := putTx(tx, noteID, b); err != nil {
			return err
		}
		bound = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bound, nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(noteID string) (*Binding, error) {
	row := s.conn.QueryRow(`
		SELECT remote_doc_id, remote_tab_id, last_known_revision, last_sync_at, access_lost
		FROM bindings WHERE note_id = ?`, noteID)
	b, err := scanBinding(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load binding: %w", err)
	}
	return &b, nil
}

// Update implements Store.Update.
func (s *SQLiteStore) Update(noteID string, fields Fields) error {
	return s.withTx(func(tx *sql.Tx) error {
		b, ok, err := getTx(tx, noteID)
		if err != nil || !ok {
			return err
		}
		fields.apply(&b)
		return putTx(tx, noteID, b)
	})
}

// MarkAccessLost implements Store.MarkAccessLost.
func (s *SQLiteStore) MarkAccessLost(noteID string) error {
	return s.Update(noteID, Fields{AccessLost: Bool(true)})
}

// ResolveRemote implements Store.ResolveRemote.
func (s *SQLiteStore) ResolveRemote(remoteDocID string) ([]string, error) {
	rows, err := s.conn.Query(
		`SELECT note_id FROM bindings WHERE remote_doc_id = ? ORDER BY note_id`, remoteDocID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve remote id: %w", err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan note id: %w", err)
		}
		notes = append(notes, id)
	}
	return notes, rows.Err()
}

// All implements Store.All.
func (s *SQLiteStore) All() (map[string]Binding, error) {
	rows, err := s.conn.Query(`
		SELECT note_id, remote_doc_id, remote_tab_id, last_known_revision, last_sync_at, access_lost
		FROM bindings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Binding)
	for rows.Next() {
		var id, syncAt string
		var b Binding
		var lost int
		if err := rows.Scan(&id, &b.RemoteDocID, &b.RemoteTabID,
			&b.LastKnownRevision, &syncAt, &lost); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		b.AccessLost = lost != 0
		if syncAt != "" {
			b.LastSyncAt, _ = time.Parse(time.RFC3339Nano, syncAt)
		}
		out[id] = b
	}
	return out, rows.Err()
}

// Checkpoint implements Store.Checkpoint.
func (s *SQLiteStore) Checkpoint() (string, error) {
	var cursor string
	err := s.conn.QueryRow(`SELECT cursor FROM checkpoint WHERE id = 1`).Scan(&cursor)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cursor, nil
}

// SetCheckpoint implements Store.SetCheckpoint.
func (s *SQLiteStore) SetCheckpoint(cursor string) error {
	_, err := s.conn.Exec(`
		INSERT INTO checkpoint (id, cursor) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET cursor = excluded.cursor`, cursor)
	if err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return nil
}

// Close implements Store.Close.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SQLiteStore) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func getTx(tx *sql.Tx, noteID string) (Binding, bool, error) {
	row := tx.QueryRow(`
		SELECT remote_doc_id, remote_tab_id, last_known_revision, last_sync_at, access_lost
		FROM bindings WHERE note_id = ?`, noteID)
	b, err := scanBinding(row)
	if err == sql.ErrNoRows {
		return Binding{}, false, nil
	}
	if err != nil {
		return Binding{}, false, fmt.Errorf("failed to load binding: %w", err)
	}
	return b, true, nil
}

func putTx(tx *sql.Tx, noteID string, b Binding) error {
	syncAt := ""
	if !b.LastSyncAt.IsZero() {
		syncAt = b.LastSyncAt.Format(time.RFC3339Nano)
	}
	lost := 0
	if b.AccessLost {
		lost = 1
	}
	_, err := tx.Exec(`
		INSERT INTO bindings (note_id, remote_doc_id, remote_tab_id, last_known_revision, last_sync_at, access_lost)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET
			remote_doc_id = excluded.remote_doc_id,
			remote_tab_id = excluded.remote_tab_id,
			last_known_revision = excluded.last_known_revision,
			last_sync_at = excluded.last_sync_at,
			access_lost = excluded.access_lost`,
		noteID, b.RemoteDocID, b.RemoteTabID, b.LastKnownRevision, syncAt, lost)
	if err != nil {
		return fmt.Errorf("failed to upsert binding: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (Binding, error) {
	var b Binding
	var syncAt string
	var lost int
	if err := row.Scan(&b.RemoteDocID, &b.RemoteTabID, &b.LastKnownRevision, &syncAt, &lost); err != nil {
		return Binding{}, err
	}
	b.AccessLost = lost != 0
	if syncAt != "" {
		b.LastSyncAt, _ = time.Parse(time.RFC3339Nano, syncAt)
	}
	return b, nil
}
