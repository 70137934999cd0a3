package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// Store persists Settings.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Close() error
}

// Open returns a Postgres store when databaseURL is set, otherwise SQLite at sqlitePath
// (default ~/.go_anvato/settings.db).
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		return OpenPostgres(ctx, databaseURL)
	}
	if sqlitePath == "" {
		sqlitePath = filepath.Join(os.Getenv("HOME"), ".go_anvato", "settings.db")
	}
	return OpenSQLite(ctx, sqlitePath)
}

// --- SQLite ---

// SQLiteStore keeps options as name/value rows in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("settings: mkdir %s: %w", filepath.Dir(path), err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS options (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: init schema: %w", err)
	}
	slog.Info("settings: sqlite store ready", slog.String("path", path))
	return &SQLiteStore{db: db}, nil
}

// Load reads every stored option. A fresh database yields zero Settings.
func (s *SQLiteStore) Load(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM options`)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Settings{}, fmt.Errorf("settings: scan: %w", err)
		}
		m[name] = value
	}
	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	return fromMap(m), nil
}

// Save writes all options in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	m := st.toMap()
	for _, k := range Keys {
		v, ok := m[k]
		if !ok {
			// unset option: drop the stored row so it reads back as unset
			if _, err := tx.ExecContext(ctx, `DELETE FROM options WHERE name = ?`, k); err != nil {
				return fmt.Errorf("settings: clear %s: %w", k, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO options (name, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now); err != nil {
			return fmt.Errorf("settings: save %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("settings: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// --- Postgres ---

// PGStore keeps options in a Postgres table, for deployments with several replicas.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and creates the options table.
func OpenPostgres(ctx context.Context, databaseURL string) (*PGStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS anvato_options (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("settings: init schema: %w", err)
	}
	slog.Info("settings: postgres store ready", slog.String("addr", config.ConnConfig.Host))
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Load(ctx context.Context) (Settings, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, value FROM anvato_options`)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Settings{}, fmt.Errorf("settings: scan: %w", err)
		}
		m[name] = value
	}
	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	return fromMap(m), nil
}

func (s *PGStore) Save(ctx context.Context, st Settings) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	m := st.toMap()
	for _, k := range Keys {
		v, ok := m[k]
		if !ok {
			if _, err := tx.Exec(ctx, `DELETE FROM anvato_options WHERE name = $1`, k); err != nil {
				return fmt.Errorf("settings: clear %s: %w", k, err)
			}
			continue
		}
		if _, err := tx.Exec(ctx, `INSERT INTO anvato_options (name, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, k, v); err != nil {
			return fmt.Errorf("settings: save %s: %w", k, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("settings: commit: %w", err)
	}
	return nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// --- YAML seed ---

// LoadFile reads a YAML settings file. Keys match the stored option names.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return s, nil
}

// Seed merges the non-empty values of seed over what store holds and saves the result.
func Seed(ctx context.Context, store Store, seed Settings) (Settings, error) {
	cur, err := store.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	merged := cur.Merge(seed).Sanitize()
	if err := store.Save(ctx, merged); err != nil {
		return Settings{}, err
	}
	return merged, nil
}
