// Package market fetches historical price series and company snapshots from
// the market data provider.
package market

import (
	"time"

	"ai-market-coach/apperrors"
)

// Bar represents a single OHLCV candlestick bar.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the bars for one ticker over a requested range, oldest first.
// It is not modified after the provider returns it.
type PriceSeries struct {
	Ticker   string    `json:"ticker"`
	Period   string    `json:"period"`
	Interval string    `json:"interval"`
	Currency string    `json:"currency,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Bars     []Bar     `json:"bars"`
}

// Closes returns the close prices in order
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// CompanySnapshot is the basic identification and fundamentals for a ticker.
// Fields the provider does not report stay nil.
type CompanySnapshot struct {
	Ticker        string   `json:"ticker"`
	ShortName     string   `json:"short_name,omitempty"`
	LongName      string   `json:"long_name,omitempty"`
	Exchange      string   `json:"exchange,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	TrailingPE    *float64 `json:"trailing_pe,omitempty"`
	ForwardPE     *float64 `json:"forward_pe,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
}

// DisplayName returns the best available company name
func (c *CompanySnapshot) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.ShortName != "" {
		return c.ShortName
	}
	if c.LongName != "" {
		return c.LongName
	}
	return c.Ticker
}

// Supported history periods and bar intervals
var (
	Periods   = []string{"6mo", "1y", "2y", "5y"}
	Intervals = []string{"1d", "1wk", "1mo"}
)

// PeriodRange converts a history period into a [start, end] window ending at now.
func PeriodRange(period string, now time.Time) (time.Time, time.Time, error) {
	var start time.Time
	switch period {
	case "6mo":
		start = now.AddDate(0, -6, 0)
	case "1y":
		start = now.AddDate(-1, 0, 0)
	case "2y":
		start = now.AddDate(-2, 0, 0)
	case "5y":
		start = now.AddDate(-5, 0, 0)
	default:
		return time.Time{}, time.Time{}, apperrors.NewValidationErrorWithValue("period", "must be one of 6mo, 1y, 2y, 5y", period)
	}
	return start, now, nil
}

// PeriodsPerYear returns the annualization factor for an interval.
// Unknown intervals are treated as daily.
func PeriodsPerYear(interval string) float64 {
	switch interval {
	case "1wk":
		return 52
	case "1mo":
		return 12
	default:
		return 252
	}
}

// ValidInterval reports whether interval is supported
func ValidInterval(interval string) bool {
	for _, i := range Intervals {
		if i == interval {
			return true
		}
	}
	return false
}
