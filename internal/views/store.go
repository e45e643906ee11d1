// Package views persists named dashboard presets: a collection, an optional
// dataset and the chart panels to show. Only selections are stored, never
// inventory data.
package views

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"go-bil-inventory-report/internal/config"
)

var (
	// ErrNotFound is returned when a view id does not exist.
	ErrNotFound = errors.New("view not found")
	// ErrInvalid wraps rejected view input.
	ErrInvalid = errors.New("invalid view")
)

var collectionCode = regexp.MustCompile(`^[a-f0-9]{2}$`)

// View is one saved dashboard preset.
type View struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Collection string     `json:"collection"`
	BildID     string     `json:"bildid"`
	Panels     []string   `json:"panels"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Store manages saved views in SQLite or MySQL.
type Store struct {
	db      *sql.DB
	dialect string
	target  string
}

// Open returns the store selected by cfg.ViewsDriver, or nil when saved views
// are disabled.
func Open(cfg config.Config) (*Store, error) {
	switch cfg.ViewsDriver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLiteStore(cfg.ViewsSQLitePath)
	case "mysql":
		return NewMySQLStore(cfg.ViewsMySQLDSN(), fmt.Sprintf("%s:%d/%s", cfg.ViewsDBHost, cfg.ViewsDBPort, cfg.ViewsDBName))
	default:
		return nil, fmt.Errorf("unsupported views driver: %s", cfg.ViewsDriver)
	}
}

func NewSQLiteStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return initStore(db, "sqlite", path, `
CREATE TABLE IF NOT EXISTS saved_views (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  collection TEXT NOT NULL DEFAULT '',
  bildid TEXT NOT NULL DEFAULT '',
  panels_json TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
}

// NewMySQLStore opens the store on a MySQL server. target is a password-free
// label used in status output.
func NewMySQLStore(dsn, target string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return initStore(db, "mysql", target, `
CREATE TABLE IF NOT EXISTS saved_views (
  id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(190) NOT NULL UNIQUE,
  collection VARCHAR(8) NOT NULL DEFAULT '',
  bildid VARCHAR(128) NOT NULL DEFAULT '',
  panels_json TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
) CHARACTER SET utf8mb4;
`)
}

func initStore(db *sql.DB, dialect, target, schema string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, dialect: dialect, target: target}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect is "sqlite" or "mysql".
func (s *Store) Dialect() string { return s.dialect }

// Target names the database file or server without credentials.
func (s *Store) Target() string { return s.target }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) List(ctx context.Context, limit int) ([]View, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, collection, bildid, panels_json, created_at, updated_at
FROM saved_views
ORDER BY name ASC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]View, 0, limit)
	for rows.Next() {
		item, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*View, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, collection, bildid, panels_json, created_at, updated_at
FROM saved_views
WHERE id = ?;
`, id)
	item, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// Upsert creates the view or replaces the one with the same name, returning
// its id.
func (s *Store) Upsert(ctx context.Context, v View) (int64, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Collection = strings.ToLower(strings.TrimSpace(v.Collection))
	v.BildID = strings.TrimSpace(v.BildID)
	if v.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if v.Collection != "" && !collectionCode.MatchString(v.Collection) {
		return 0, fmt.Errorf("%w: invalid collection code %q", ErrInvalid, v.Collection)
	}
	panels, err := json.Marshal(normalizePanels(v.Panels))
	if err != nil {
		return 0, err
	}

	query := `
INSERT INTO saved_views (name, collection, bildid, panels_json, created_at, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET
  collection = excluded.collection,
  bildid = excluded.bildid,
  panels_json = excluded.panels_json,
  updated_at = CURRENT_TIMESTAMP;
`
	if s.dialect == "mysql" {
		query = `
INSERT INTO saved_views (name, collection, bildid, panels_json, created_at, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON DUPLICATE KEY UPDATE
  collection = VALUES(collection),
  bildid = VALUES(bildid),
  panels_json = VALUES(panels_json),
  updated_at = CURRENT_TIMESTAMP;
`
	}
	if _, err := s.db.ExecContext(ctx, query, v.Name, v.Collection, v.BildID, string(panels)); err != nil {
		return 0, err
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM saved_views WHERE name = ?`, v.Name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(sc scanner) (*View, error) {
	var (
		item      View
		panels    string
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)
	if err := sc.Scan(&item.ID, &item.Name, &item.Collection, &item.BildID, &panels, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(panels), &item.Panels); err != nil {
		return nil, fmt.Errorf("view %d: decode panels: %w", item.ID, err)
	}
	if createdAt.Valid {
		t := createdAt.Time.UTC()
		item.CreatedAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		item.UpdatedAt = &t
	}
	return &item, nil
}

func normalizePanels(panels []string) []string {
	seen := make(map[string]struct{}, len(panels))
	out := make([]string, 0, len(panels))
	for _, p := range panels {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
