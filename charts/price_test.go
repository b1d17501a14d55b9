package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-market-coach/apperrors"
	"ai-market-coach/market"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func series(closes ...float64) *market.PriceSeries {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: start.AddDate(0, 0, 7*i), Close: c}
	}
	return &market.PriceSeries{Ticker: "AAPL", Period: "6mo", Interval: "1wk", Currency: "USD", Bars: bars}
}

func TestRenderPriceChart(t *testing.T) {
	png, err := RenderPriceChart(series(100, 110, 90, 120, 115))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestRenderPriceChartFlatSeries(t *testing.T) {
	png, err := RenderPriceChart(series(50, 50, 50))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestRenderPriceChartNeedsTwoBars(t *testing.T) {
	_, err := RenderPriceChart(series(100))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = RenderPriceChart(nil)
	assert.Error(t, err)
}
