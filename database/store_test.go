package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "ai-market-coach/database/models_pkg"
	"ai-market-coach/logging"
)

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(context.Background(), "sqlite://:memory:", logging.NewSilent())
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStoreUnsupportedScheme(t *testing.T) {
	_, err := NewStore(context.Background(), "mysql://localhost/coach", logging.NewSilent())
	assert.Error(t, err)
}

func TestConnectRejectsMalformedURL(t *testing.T) {
	_, err := Connect("postgres://%zz")
	assert.Error(t, err)
}

func TestListOptionsNormalize(t *testing.T) {
	tests := []struct {
		in   models.ListOptions
		want models.ListOptions
	}{
		{models.ListOptions{}, models.ListOptions{Limit: 20}},
		{models.ListOptions{Limit: 500, Offset: -3}, models.ListOptions{Limit: 100}},
		{models.ListOptions{Ticker: "AAPL", Limit: 5, Offset: 10}, models.ListOptions{Ticker: "AAPL", Limit: 5, Offset: 10}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}
