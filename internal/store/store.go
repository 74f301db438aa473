package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 2

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db      *sql.DB
	changes *notifier
	logger  *log.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for migration messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, changes: newNotifier(), logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("v1: %w", err)
		}
		s.logger.Printf("store: applied schema v1")
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("v2: %w", err)
		}
		s.logger.Printf("store: applied schema v2")
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS babies (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		gender      INTEGER NOT NULL DEFAULT 0,
		birthday    TEXT NOT NULL,
		avatar      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS feeding_records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		baby_id     INTEGER NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		start_time  TEXT NOT NULL,
		end_time    TEXT CHECK (end_time IS NULL OR end_time >= start_time),
		type        INTEGER NOT NULL DEFAULT 0,
		amount      INTEGER CHECK (amount IS NULL OR amount >= 0),
		side        INTEGER,
		note        TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS sleep_records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		baby_id     INTEGER NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		start_time  TEXT NOT NULL,
		end_time    TEXT CHECK (end_time IS NULL OR end_time >= start_time),
		quality     INTEGER,
		note        TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS diaper_records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		baby_id     INTEGER NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		time        TEXT NOT NULL,
		type        INTEGER NOT NULL DEFAULT 0,
		color       INTEGER,
		amount      INTEGER CHECK (amount IS NULL OR amount >= 0),
		note        TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS medicine_records (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		baby_id        INTEGER NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		time           TEXT NOT NULL,
		name           TEXT NOT NULL,
		dosage         REAL NOT NULL DEFAULT 0 CHECK (dosage >= 0),
		unit           TEXT NOT NULL,
		reminder_time  TEXT,
		note           TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS water_records (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		baby_id      INTEGER NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		time         TEXT NOT NULL,
		amount       INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0),
		temperature  INTEGER NOT NULL DEFAULT 0,
		note         TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS growth_records (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		baby_id             INTEGER NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		time                TEXT NOT NULL,
		height              REAL CHECK (height IS NULL OR height >= 0),
		weight              REAL CHECK (weight IS NULL OR weight >= 0),
		head_circumference  REAL CHECK (head_circumference IS NULL OR head_circumference >= 0),
		milestone           TEXT NOT NULL DEFAULT '',
		note                TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_feeding_baby_start  ON feeding_records(baby_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_sleep_baby_start    ON sleep_records(baby_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_diaper_baby_time    ON diaper_records(baby_id, time);
	CREATE INDEX IF NOT EXISTS idx_medicine_baby_time  ON medicine_records(baby_id, time);
	CREATE INDEX IF NOT EXISTS idx_medicine_reminder   ON medicine_records(reminder_time);
	CREATE INDEX IF NOT EXISTS idx_water_baby_time     ON water_records(baby_id, time);
	CREATE INDEX IF NOT EXISTS idx_growth_baby_time    ON growth_records(baby_id, time);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('dark_mode',                'false'),
		('notifications_enabled',    'true'),
		('feeding_interval',         '180'),
		('feeding_reminder_enabled', 'true'),
		('sleep_reminder_enabled',   'true'),
		('diaper_reminder_enabled',  'true'),
		('medicine_reminder_enabled','true'),
		('quiet_hours_enabled',      'true'),
		('quiet_hours_start',        '22:00'),
		('quiet_hours_end',          '06:00');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// migrateV2 adds the "currently selected" flag to babies.
func (s *Store) migrateV2() error {
	_, err := s.db.Exec(`ALTER TABLE babies ADD COLUMN is_selected INTEGER NOT NULL DEFAULT 0`)
	return err
}

// DefaultDBPath returns ~/.config/babylog/babylog.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "babylog", "babylog.db"), nil
}
