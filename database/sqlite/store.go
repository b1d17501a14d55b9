// Package sqlite stores sessions in an embedded SQLite database for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	_ "modernc.org/sqlite"

	"ai-market-coach/apperrors"
	models "ai-market-coach/database/models_pkg"
)

// Store persists sessions to SQLite
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, apperrors.NewValidationError("database_url", "sqlite path is empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.WrapStorageError("open sqlite", err)
	}

	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, apperrors.WrapStorageError("set WAL mode", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, apperrors.WrapStorageError("migrate", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			ticker      TEXT NOT NULL,
			period      TEXT NOT NULL,
			interval    TEXT NOT NULL,
			user_level  TEXT NOT NULL,
			start_date  INTEGER NOT NULL,
			end_date    INTEGER NOT NULL,
			metrics     TEXT NOT NULL,
			commentary  TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ticker ON sessions(ticker)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Create persists a new session
func (s *Store) Create(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions
		(id, ticker, period, interval, user_level, start_date, end_date, metrics, commentary, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, sess.Ticker, sess.Period, sess.Interval, sess.UserLevel,
		sess.StartDate.UnixMilli(), sess.EndDate.UnixMilli(),
		string(sess.Metrics), sess.Commentary, sess.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return apperrors.WrapStorageError("create session", err)
	}
	return nil
}

const selectColumns = `SELECT id, ticker, period, interval, user_level, start_date, end_date, metrics, commentary, created_at FROM sessions`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		sess                models.Session
		start, end, created int64
		metrics             string
	)
	if err := row.Scan(&sess.ID, &sess.Ticker, &sess.Period, &sess.Interval, &sess.UserLevel,
		&start, &end, &metrics, &sess.Commentary, &created); err != nil {
		return nil, err
	}
	sess.StartDate = time.UnixMilli(start).UTC()
	sess.EndDate = time.UnixMilli(end).UTC()
	sess.CreatedAt = time.UnixMilli(created).UTC()
	sess.Metrics = datatypes.JSON(metrics)
	return &sess, nil
}

// Get retrieves a session by id
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundErrorWithID("session", id)
	}
	if err != nil {
		return nil, apperrors.WrapStorageError("get session", err)
	}
	return sess, nil
}

// List returns sessions newest first, optionally filtered by ticker
func (s *Store) List(ctx context.Context, opts models.ListOptions) ([]models.Session, error) {
	opts = opts.Normalize()

	query := selectColumns
	args := []interface{}{}
	if opts.Ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, opts.Ticker)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapStorageError("list sessions", err)
	}
	defer rows.Close()

	out := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, apperrors.WrapStorageError("scan session", err)
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorageError("list sessions", err)
	}
	return out, nil
}

// Ping checks if the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.WrapStorageError("ping", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
