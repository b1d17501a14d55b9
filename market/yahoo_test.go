package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"ai-market-coach/apperrors"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func chartBar(ts time.Time, open, high, low, close float64, volume int) *finance.ChartBar {
	return &finance.ChartBar{
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(close),
		Volume:    volume,
		Timestamp: int(ts.Unix()),
	}
}

func newTestProvider(cf chartFunc, ef equityFunc) *YahooProvider {
	p := NewYahooProvider(WithClock(func() time.Time { return fixedNow }), WithRateLimit(1000))
	if cf != nil {
		p.fetchChart = cf
	}
	if ef != nil {
		p.fetchEquity = ef
	}
	return p
}

func TestFetchSeriesConvertsAndSorts(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC) }

	var gotParams *chart.Params
	p := newTestProvider(func(params *chart.Params) ([]*finance.ChartBar, string, error) {
		gotParams = params
		return []*finance.ChartBar{
			chartBar(day(3), 111, 112, 109, 110, 2000),
			chartBar(day(2), 0, 0, 0, 0, 0), // holiday
			chartBar(day(1), 99, 101, 98, 100, 1000),
			nil,
		}, "USD", nil
	}, nil)

	series, err := p.FetchSeries(context.Background(), " aapl ", "1y", "1d")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", gotParams.Symbol)
	assert.Equal(t, 2025, gotParams.Start.Year)
	assert.Equal(t, 2026, gotParams.End.Year)
	assert.Equal(t, "1d", string(gotParams.Interval))

	assert.Equal(t, "AAPL", series.Ticker)
	assert.Equal(t, "USD", series.Currency)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, []float64{100, 110}, series.Closes())
	assert.Equal(t, day(1), series.Start)
	assert.Equal(t, day(3), series.End)
	assert.Equal(t, 2000.0, series.Bars[1].Volume)
}

func TestFetchSeriesEmptyIsNotFound(t *testing.T) {
	p := newTestProvider(func(*chart.Params) ([]*finance.ChartBar, string, error) {
		return nil, "", nil
	}, nil)

	_, err := p.FetchSeries(context.Background(), "ZZZZZZ", "1y", "1d")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

const validChart = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"MSFT"},` +
	`"timestamp":[1767571200,1767657600,1767744000],` +
	`"indicators":{"quote":[{"open":[100,110,90],"high":[101,111,91],"low":[99,109,89],"close":[100,110,90],"volume":[10,20,30]}]}}],"error":null}}`

// yahooStub serves status and body for every chart request
func yahooStub(t *testing.T, status int, body string) *YahooProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewYahooProvider(
		WithEndpoint(srv.URL),
		WithClock(func() time.Time { return fixedNow }),
		WithRateLimit(1000),
	)
}

func TestFetchSeriesAgainstYahooResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.Kind
		code   int
	}{
		{"unknown symbol", http.StatusNotFound,
			`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			apperrors.KindNotFound, http.StatusNotFound},
		{"error payload with 200", http.StatusOK,
			`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`,
			apperrors.KindNotFound, http.StatusNotFound},
		{"empty result list", http.StatusOK, `{"chart":{"result":[],"error":null}}`,
			apperrors.KindUpstream, http.StatusBadGateway},
		{"provider down", http.StatusServiceUnavailable, `oops`,
			apperrors.KindUpstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := yahooStub(t, tt.status, tt.body)

			_, err := p.FetchSeries(context.Background(), "ZZZZZZ", "1y", "1d")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.KindOf(err))
			assert.Equal(t, tt.code, apperrors.HTTPStatus(err))
		})
	}
}

func TestFetchSeriesParsesYahooChart(t *testing.T) {
	p := yahooStub(t, http.StatusOK, validChart)

	series, err := p.FetchSeries(context.Background(), "msft", "6mo", "1d")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", series.Ticker)
	assert.Equal(t, "USD", series.Currency)
	assert.Equal(t, []float64{100, 110, 90}, series.Closes())
	assert.Equal(t, 30.0, series.Bars[2].Volume)
}

func TestFetchSeriesRecoversLibraryPanic(t *testing.T) {
	p := newTestProvider(func(*chart.Params) ([]*finance.ChartBar, string, error) {
		var results []*finance.ChartBar
		return []*finance.ChartBar{results[0]}, "", nil
	}, nil)

	_, err := p.FetchSeries(context.Background(), "MSFT", "1y", "1d")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "panicked")
}

func TestRateLimitWaitPastDeadlineIsTimeout(t *testing.T) {
	p := newTestProvider(func(*chart.Params) ([]*finance.ChartBar, string, error) {
		return nil, "", nil
	}, nil)
	p.limiter = rate.NewLimiter(rate.Every(time.Minute), 1)
	require.True(t, p.limiter.Allow())
	p.timeout = 50 * time.Millisecond

	_, err := p.FetchSeries(context.Background(), "MSFT", "1y", "1d")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatus(err))
}

func TestSymbolTransportOnlyRewritesChart404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	hc := &http.Client{Transport: symbolTransport{base: http.DefaultTransport}}

	_, err := hc.Get(srv.URL + "/v8/finance/chart/ZZZZ")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	resp, err := hc.Get(srv.URL + "/v6/finance/quote")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchSeriesTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	p := newTestProvider(func(*chart.Params) ([]*finance.ChartBar, string, error) {
		<-release
		return nil, "", nil
	}, nil)
	p.timeout = 20 * time.Millisecond

	_, err := p.FetchSeries(context.Background(), "MSFT", "1y", "1d")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchSeriesRejectsBadInput(t *testing.T) {
	p := newTestProvider(nil, nil)

	_, err := p.FetchSeries(context.Background(), "MSFT", "3y", "1d")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = p.FetchSeries(context.Background(), "MSFT", "1y", "1h")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestFetchSnapshot(t *testing.T) {
	p := newTestProvider(nil, func(_ context.Context, symbol string) (*finance.Equity, error) {
		eq := &finance.Equity{}
		eq.Symbol = symbol
		eq.ShortName = "Apple Inc."
		eq.FullExchangeName = "NasdaqGS"
		eq.TrailingPE = 31.5
		return eq, nil
	})

	snap, err := p.FetchSnapshot(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Ticker)
	assert.Equal(t, "Apple Inc.", snap.DisplayName())
	assert.Equal(t, "NasdaqGS", snap.Exchange)
	require.NotNil(t, snap.TrailingPE)
	assert.Equal(t, 31.5, *snap.TrailingPE)
	assert.Nil(t, snap.ForwardPE)
	assert.Nil(t, snap.MarketCap)
}

func TestFetchSnapshotNil(t *testing.T) {
	p := newTestProvider(nil, func(context.Context, string) (*finance.Equity, error) { return nil, nil })

	_, err := p.FetchSnapshot(context.Background(), "ZZZZ")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPeriodRange(t *testing.T) {
	start, end, err := PeriodRange("6mo", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC), start)
	assert.Equal(t, fixedNow, end)

	_, _, err = PeriodRange("10y", fixedNow)
	assert.Error(t, err)
}

func TestPeriodsPerYear(t *testing.T) {
	assert.Equal(t, 252.0, PeriodsPerYear("1d"))
	assert.Equal(t, 52.0, PeriodsPerYear("1wk"))
	assert.Equal(t, 12.0, PeriodsPerYear("1mo"))
}
