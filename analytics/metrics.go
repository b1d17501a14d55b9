// Package analytics computes descriptive statistics for a price series.
// Every function here is pure: same input, same output, no I/O.
package analytics

import (
	"math"
	"time"

	"ai-market-coach/apperrors"
	"ai-market-coach/market"
)

// Risk buckets by annualized volatility (percent)
const (
	lowRiskBelow      = 15.0
	moderateRiskBelow = 30.0
)

// MetricsReport holds the price and risk metrics derived from one PriceSeries.
// Percent values are already multiplied by 100.
type MetricsReport struct {
	PeriodReturnPct         float64 `json:"period_return_pct"`
	DailyVolatilityPct      float64 `json:"daily_volatility_pct"`
	AnnualizedVolatilityPct float64 `json:"annualized_volatility_pct"`
	MaxDrawdownPct          float64 `json:"max_drawdown_pct"`

	StartPrice         float64   `json:"start_price"`
	LastPrice          float64   `json:"last_price"`
	MinPrice           float64   `json:"min_price"`
	MaxPrice           float64   `json:"max_price"`
	MeanDailyReturnPct float64   `json:"mean_daily_return_pct"`
	AverageVolume      float64   `json:"average_volume"`
	Observations       int       `json:"observations"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	RiskLevel          string    `json:"risk_level"`
}

// Direction describes the sign of the period return
func (m *MetricsReport) Direction() string {
	if m.PeriodReturnPct >= 0 {
		return "increased"
	}
	return "decreased"
}

// Compute derives the MetricsReport for series.
func Compute(series *market.PriceSeries) (*MetricsReport, error) {
	if series == nil || len(series.Bars) < 2 {
		n := 0
		if series != nil {
			n = len(series.Bars)
		}
		return nil, apperrors.NewValidationErrorWithValue("series", "at least 2 price points are required", n)
	}

	closes := series.Closes()
	for i, c := range closes {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, apperrors.NewValidationErrorWithValue("series", "close prices must be positive and finite", i)
		}
	}

	first, last := closes[0], closes[len(closes)-1]
	logReturns := LogReturns(closes)
	dailyVol := StdDev(logReturns)
	minPrice, maxPrice := Range(closes)

	var volume float64
	for _, b := range series.Bars {
		volume += b.Volume
	}

	annualized := dailyVol * math.Sqrt(market.PeriodsPerYear(series.Interval)) * 100

	return &MetricsReport{
		PeriodReturnPct:         (last/first - 1) * 100,
		DailyVolatilityPct:      dailyVol * 100,
		AnnualizedVolatilityPct: annualized,
		MaxDrawdownPct:          MaxDrawdown(closes) * 100,
		StartPrice:              first,
		LastPrice:               last,
		MinPrice:                minPrice,
		MaxPrice:                maxPrice,
		MeanDailyReturnPct:      Mean(SimpleReturns(closes)) * 100,
		AverageVolume:           volume / float64(len(series.Bars)),
		Observations:            len(closes),
		StartDate:               series.Bars[0].Date,
		EndDate:                 series.Bars[len(series.Bars)-1].Date,
		RiskLevel:               RiskLevel(annualized),
	}, nil
}

// LogReturns returns ln(p[i]/p[i-1]) for consecutive prices
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out
}

// SimpleReturns returns p[i]/p[i-1] - 1 for consecutive prices
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 denominator).
// Fewer than two values have no dispersion and yield 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction in [-1, 0]
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	worst := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if dd := (p - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// Range returns the min and max of prices
func Range(prices []float64) (float64, float64) {
	if len(prices) == 0 {
		return 0, 0
	}
	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi
}

// RiskLevel buckets an annualized volatility percentage into low, moderate or high
func RiskLevel(annualizedVolPct float64) string {
	switch {
	case annualizedVolPct < lowRiskBelow:
		return "low"
	case annualizedVolPct < moderateRiskBelow:
		return "moderate"
	default:
		return "high"
	}
}
