package market

import "context"

// Provider fetches market data for a ticker.
type Provider interface {
	// FetchSeries returns the bars for ticker over period at the given interval.
	// Returns a NotFoundError for unknown tickers and an UpstreamError when the
	// provider fails or times out.
	FetchSeries(ctx context.Context, ticker, period, interval string) (*PriceSeries, error)

	// FetchSnapshot returns basic company information for ticker.
	FetchSnapshot(ctx context.Context, ticker string) (*CompanySnapshot, error)

	// Name identifies the provider in health output
	Name() string
}
