package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "ai-market-coach/database/models_pkg"
	"ai-market-coach/database/sessions"
	"ai-market-coach/database/sqlite"
	"ai-market-coach/logging"
)

// SessionStore persists analysis sessions. Sessions are insert-only.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, opts models.ListOptions) ([]models.Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewStore opens the backend selected by the URL scheme and prepares its schema
func NewStore(ctx context.Context, databaseURL string, log *logging.Logger) (SessionStore, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("SQLite session store opened")
		return store, nil

	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := Connect(databaseURL)
		if err != nil {
			return nil, err
		}
		repo := sessions.NewRepository(db)
		if err := repo.InitSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		log.Info().Msg("Postgres session store connected")
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme (want postgres://, postgresql:// or sqlite://)")
	}
}

// Connect establishes a Postgres connection using GORM.
// URL forms are converted to a key/value DSN by lib/pq.
func Connect(databaseURL string) (*gorm.DB, error) {
	dsn, err := pq.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}
