package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"ai-market-coach/apperrors"
	models "ai-market-coach/database/models_pkg"
)

func newSession(ticker string, created time.Time) *models.Session {
	s := models.NewSession(created)
	s.Ticker = ticker
	s.Period = "1y"
	s.Interval = "1d"
	s.UserLevel = "Beginner"
	s.StartDate = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	s.EndDate = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	s.Metrics = datatypes.JSON(`{"period_return_pct":20}`)
	return s
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	sess := newSession("AAPL", time.Date(2026, 10, 15, 9, 30, 0, 123_000_000, time.UTC))
	sess.Commentary = "Prices rose."
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, sess.StartDate, got.StartDate)
	assert.Equal(t, sess.EndDate, got.EndDate)
	assert.Equal(t, sess.CreatedAt, got.CreatedAt)
	assert.JSONEq(t, `{"period_return_pct":20}`, string(got.Metrics))
	assert.Equal(t, "Prices rose.", got.Commentary)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	store := openMemory(t)

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateDuplicateIsStorageError(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	sess := newSession("AAPL", time.Now())
	require.NoError(t, store.Create(ctx, sess))
	err := store.Create(ctx, sess)
	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))
}

func TestListOrdersFiltersAndPages(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, ticker := range []string{"AAPL", "MSFT", "AAPL", "AAPL"} {
		require.NoError(t, store.Create(ctx, newSession(ticker, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := store.List(ctx, models.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	aapl, err := store.List(ctx, models.ListOptions{Ticker: "AAPL"})
	require.NoError(t, err)
	assert.Len(t, aapl, 3)

	page, err := store.List(ctx, models.ListOptions{Ticker: "AAPL", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, base, page[0].CreatedAt)

	none, err := store.List(ctx, models.ListOptions{Ticker: "TSLA"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	sess := newSession("NVDA", time.Now())
	require.NoError(t, store.Create(ctx, sess))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", got.Ticker)
	assert.NoError(t, reopened.Ping(ctx))
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
