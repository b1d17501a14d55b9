package sessions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ai-market-coach/apperrors"
	models "ai-market-coach/database/models_pkg"
)

// Repository handles database operations for sessions on Postgres
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InitSchema creates the sessions table and its indexes
func (r *Repository) InitSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.Session{}); err != nil {
		return apperrors.WrapStorageError("migrate sessions", err)
	}
	return nil
}

// Create persists a new session
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return apperrors.WrapStorageError("create session", err)
	}
	return nil
}

// Get retrieves a session by id
func (r *Repository) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundErrorWithID("session", id)
	}
	if err != nil {
		return nil, apperrors.WrapStorageError("get session", err)
	}
	return &s, nil
}

// List returns sessions newest first, optionally filtered by ticker
func (r *Repository) List(ctx context.Context, opts models.ListOptions) ([]models.Session, error) {
	opts = opts.Normalize()

	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id")
	if opts.Ticker != "" {
		query = query.Where("ticker = ?", opts.Ticker)
	}

	var out []models.Session
	if err := query.Limit(opts.Limit).Offset(opts.Offset).Find(&out).Error; err != nil {
		return nil, apperrors.WrapStorageError("list sessions", err)
	}
	return out, nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.WrapStorageError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.WrapStorageError("ping", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
