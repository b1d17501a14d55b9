package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session is one completed analysis. It is written once and never updated.
//
// Key Fields:
//   - ID: UUID string assigned at creation
//   - StartDate/EndDate: first and last bar of the analysed series
//   - Metrics: the metrics report serialized as JSON (jsonb on Postgres)
//   - Commentary: optional LLM prose, empty when unavailable
type Session struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Ticker     string         `gorm:"size:16;index;not null" json:"ticker"`
	Period     string         `gorm:"size:8;not null" json:"period"`
	Interval   string         `gorm:"size:8;not null" json:"interval"`
	UserLevel  string         `gorm:"size:16;not null" json:"user_level"`
	StartDate  time.Time      `gorm:"not null" json:"start_date"`
	EndDate    time.Time      `gorm:"not null" json:"end_date"`
	Metrics    datatypes.JSON `gorm:"type:jsonb;not null" json:"metrics"`
	Commentary string         `gorm:"type:text" json:"commentary"`
	CreatedAt  time.Time      `gorm:"index;not null" json:"created_at"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// NewSession returns a session with a fresh ID and creation time.
// Times are kept at millisecond precision so every backend round-trips them.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC().Truncate(time.Millisecond),
	}
}

// ListOptions filters and pages session listings
type ListOptions struct {
	Ticker string
	Limit  int
	Offset int
}

// Paging bounds for session listings
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalize clamps Limit to [1, MaxListLimit] and Offset to >= 0
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
