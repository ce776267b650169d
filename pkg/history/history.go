// Package history keeps the payloads of recent copies in a local sqlite
// database so a later paste can use the markup even when the system
// clipboard only holds plain text.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gfmclip/pkg/clipboard"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
)

const selectCopies = `SELECT
		id,
		event_id,
		mode,
		plain_text,
		markup,
		html,
		created_at
	FROM copies`

type Config struct {
	// TTL drops entries older than this. Zero keeps them forever.
	TTL time.Duration
	// Limit caps the number of entries kept. Zero keeps all.
	Limit int
}

var DefaultConfig = Config{
	TTL:   7 * 24 * time.Hour,
	Limit: 100,
}

// Entry is one recorded copy.
type Entry struct {
	ID        int64     `json:"id" yaml:"id"`
	EventID   string    `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Mode      string    `json:"mode,omitempty" yaml:"mode,omitempty"`
	PlainText string    `json:"plain_text" yaml:"plain_text"`
	Markup    string    `json:"markup" yaml:"markup"`
	HTML      string    `json:"html" yaml:"html"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func NewEntry(eventID, mode string, p clipboard.Payload) Entry {
	return Entry{EventID: eventID, Mode: mode, PlainText: p.PlainText, Markup: p.Markup, HTML: p.HTML}
}

// Payload returns the clipboard representations of e.
func (e Entry) Payload() clipboard.Payload {
	return clipboard.Payload{PlainText: e.PlainText, Markup: e.Markup, HTML: e.HTML}
}

type Manager struct {
	db     *sql.DB
	config Config
}

func NewManager(dbPath string) (*Manager, error) {
	return NewManagerWithConfig(dbPath, DefaultConfig)
}

func NewManagerWithConfig(dbPath string, config Config) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := &Manager{db: db, config: config}
	if err := m.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return m, nil
}

func (m *Manager) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS copies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT,
			mode TEXT,
			plain_text TEXT NOT NULL,
			markup TEXT NOT NULL,
			html TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_copies_created_at ON copies(created_at)`,
	}

	for _, query := range queries {
		if _, err := m.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Save records a copy and prunes entries past the TTL or the limit.
func (m *Manager) Save(e Entry) (int64, error) {
	tx, err := m.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO copies (event_id, mode, plain_text, markup, html)
		VALUES (?, ?, ?, ?, ?)
	`, e.EventID, e.Mode, e.PlainText, e.Markup, e.HTML)
	if err != nil {
		return 0, fmt.Errorf("failed to insert copy: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read copy id: %w", err)
	}

	if m.config.TTL > 0 {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM copies
			WHERE datetime(created_at) <= datetime('now', '-%d seconds')`, int(m.config.TTL.Seconds()))); err != nil {
			return 0, fmt.Errorf("failed to prune expired copies: %w", err)
		}
	}
	if m.config.Limit > 0 {
		if _, err := tx.Exec(`DELETE FROM copies
			WHERE id NOT IN (SELECT id FROM copies ORDER BY id DESC LIMIT ?)`, m.config.Limit); err != nil {
			return 0, fmt.Errorf("failed to prune old copies: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (m *Manager) List(limit int) ([]Entry, error) {
	query := selectCopies + m.where() + " ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query copies: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := e.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan copy: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Last returns the newest entry, or nil when there is none.
func (m *Manager) Last() (*Entry, error) {
	entries, err := m.List(1)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// Get returns the entry with id, or nil when it does not exist or expired.
func (m *Manager) Get(id int64) (*Entry, error) {
	query := selectCopies + m.where() + " AND id = ?"
	rows, err := m.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query copy: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var e Entry
	if err := e.scan(rows); err != nil {
		return nil, fmt.Errorf("failed to scan copy: %w", err)
	}
	return &e, nil
}

// Clear removes every entry.
func (m *Manager) Clear() error {
	if _, err := m.db.Exec("DELETE FROM copies"); err != nil {
		return fmt.Errorf("failed to clear copies: %w", err)
	}
	return nil
}

func (m *Manager) Info() (map[string]any, error) {
	var count int
	var oldest sql.NullString

	if err := m.db.QueryRow("SELECT COUNT(*) FROM copies").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to query copy count: %w", err)
	}
	if err := m.db.QueryRow("SELECT MIN(created_at) FROM copies").Scan(&oldest); err != nil {
		return nil, fmt.Errorf("failed to query oldest copy: %w", err)
	}

	return map[string]any{
		"copies_count": count,
		"oldest_copy":  oldest.String,
		"ttl":          m.config.TTL.String(),
		"limit":        m.config.Limit,
	}, nil
}

func (m *Manager) where() string {
	if m.config.TTL <= 0 {
		return " WHERE 1=1"
	}
	return fmt.Sprintf(" WHERE datetime(created_at) > datetime('now', '-%d seconds')", int(m.config.TTL.Seconds()))
}

func (e *Entry) scan(rows *sql.Rows) error {
	var eventID, mode sql.NullString
	if err := rows.Scan(&e.ID, &eventID, &mode, &e.PlainText, &e.Markup, &e.HTML, &e.CreatedAt); err != nil {
		return err
	}
	e.EventID = eventID.String
	e.Mode = mode.String
	return nil
}

// GetDBPath returns GFMCLIP_HISTORY_DB, or history.db under the XDG data
// directory.
func GetDBPath() string {
	if p := os.Getenv("GFMCLIP_HISTORY_DB"); p != "" {
		return p
	}
	return filepath.Join(xdg.DataHome, "gfmclip", "history.db")
}

func NewManagerFromEnv() (*Manager, error) {
	return NewManagerWithConfig(GetDBPath(), LoadConfig())
}

// LoadConfig applies GFMCLIP_HISTORY_TTL and GFMCLIP_HISTORY_LIMIT to the
// defaults. Unparseable values are ignored.
func LoadConfig() Config {
	config := DefaultConfig

	if ttlStr := os.Getenv("GFMCLIP_HISTORY_TTL"); ttlStr != "" {
		if d, err := time.ParseDuration(ttlStr); err == nil {
			config.TTL = d
		}
	}

	if limitStr := os.Getenv("GFMCLIP_HISTORY_LIMIT"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			config.Limit = n
		}
	}

	return config
}
