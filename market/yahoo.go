package market

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"ai-market-coach/apperrors"
	"ai-market-coach/logging"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	providerName = "yahoo"
)

// chartFunc and equityFunc isolate the blocking library calls
type chartFunc func(params *chart.Params) (bars []*finance.ChartBar, currency string, err error)
type equityFunc func(ctx context.Context, symbol string) (*finance.Equity, error)

// YahooProvider implements Provider on top of the finance-go Yahoo Finance library.
type YahooProvider struct {
	endpoint    string
	httpClient  *http.Client
	fetchChart  chartFunc
	fetchEquity equityFunc
	limiter     *rate.Limiter
	timeout     time.Duration
	now         func() time.Time
	logger      *logging.Logger
}

// YahooOption configures the provider
type YahooOption func(*YahooProvider)

// WithTimeout bounds each provider call
func WithTimeout(timeout time.Duration) YahooOption {
	return func(p *YahooProvider) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithRateLimit sets the rate limit in requests per second
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(p *YahooProvider) {
		if requestsPerSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) YahooOption {
	return func(p *YahooProvider) {
		p.logger = logger
	}
}

// WithEndpoint points the provider at another Yahoo-compatible host
func WithEndpoint(endpoint string) YahooOption {
	return func(p *YahooProvider) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client used for Yahoo requests
func WithHTTPClient(hc *http.Client) YahooOption {
	return func(p *YahooProvider) {
		if hc != nil {
			p.httpClient = hc
		}
	}
}

// WithClock overrides the time source used to resolve periods
func WithClock(now func() time.Time) YahooOption {
	return func(p *YahooProvider) {
		p.now = now
	}
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(opts ...YahooOption) *YahooProvider {
	p := &YahooProvider{
		endpoint:   finance.YFinURL,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		timeout:    DefaultTimeout,
		now:        time.Now,
		logger:     logging.NewSilent(),
	}
	for _, opt := range opts {
		opt(p)
	}

	backend := newBackend(p.endpoint, p.httpClient)
	p.fetchChart = libraryChart(chart.Client{B: backend})
	p.fetchEquity = libraryEquity(equity.Client{B: backend})
	return p
}

// Name identifies the provider in health output
func (p *YahooProvider) Name() string { return providerName }

func libraryChart(c chart.Client) chartFunc {
	return func(params *chart.Params) ([]*finance.ChartBar, string, error) {
		iter := c.Get(params)

		var bars []*finance.ChartBar
		for iter.Next() {
			bars = append(bars, iter.Bar())
		}
		if err := iter.Err(); err != nil {
			return nil, "", err
		}
		return bars, iter.Meta().Currency, nil
	}
}

func libraryEquity(c equity.Client) equityFunc {
	return func(ctx context.Context, symbol string) (*finance.Equity, error) {
		params := &equity.Params{Symbols: []string{symbol}}
		params.Context = &ctx

		iter := c.ListP(params)
		if !iter.Next() {
			return nil, iter.Err()
		}
		return iter.Equity(), nil
	}
}

func toDatetime(t time.Time) *datetime.Datetime {
	return &datetime.Datetime{Month: int(t.Month()), Day: t.Day(), Year: t.Year()}
}

// FetchSeries downloads the bars for ticker over period
func (p *YahooProvider) FetchSeries(ctx context.Context, ticker, period, interval string) (*PriceSeries, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !ValidInterval(interval) {
		return nil, apperrors.NewValidationErrorWithValue("interval", "must be one of 1d, 1wk, 1mo", interval)
	}
	start, end, err := PeriodRange(period, p.now().UTC())
	if err != nil {
		return nil, err
	}

	params := &chart.Params{
		Symbol:   ticker,
		Start:    toDatetime(start),
		End:      toDatetime(end),
		Interval: datetime.Interval(interval),
	}

	type chartResult struct {
		bars     []*finance.ChartBar
		currency string
	}
	res, err := p.call(ctx, "chart", func(ctx context.Context) (interface{}, error) {
		params.Context = &ctx
		bars, currency, err := p.fetchChart(params)
		return chartResult{bars: bars, currency: currency}, err
	})
	if err != nil {
		return nil, classifyError(ticker, err)
	}

	result := res.(chartResult)
	bars := convertBars(result.bars)
	if len(bars) == 0 {
		return nil, apperrors.NewNotFoundErrorWithID("price data for ticker", ticker)
	}

	p.logger.Debug().
		Str("ticker", ticker).
		Str("period", period).
		Str("interval", interval).
		Int("bars", len(bars)).
		Msg("Fetched price series")

	return &PriceSeries{
		Ticker:   ticker,
		Period:   period,
		Interval: interval,
		Currency: result.currency,
		Start:    bars[0].Date,
		End:      bars[len(bars)-1].Date,
		Bars:     bars,
	}, nil
}

// FetchSnapshot loads company identification and fundamentals
func (p *YahooProvider) FetchSnapshot(ctx context.Context, ticker string) (*CompanySnapshot, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	res, err := p.call(ctx, "equity", func(ctx context.Context) (interface{}, error) {
		return p.fetchEquity(ctx, ticker)
	})
	if err != nil {
		return nil, classifyError(ticker, err)
	}

	eq, _ := res.(*finance.Equity)
	if eq == nil {
		return nil, apperrors.NewNotFoundErrorWithID("company snapshot", ticker)
	}

	return &CompanySnapshot{
		Ticker:        ticker,
		ShortName:     eq.ShortName,
		LongName:      eq.LongName,
		Exchange:      eq.FullExchangeName,
		MarketCap:     optional(float64(eq.MarketCap)),
		TrailingPE:    optional(eq.TrailingPE),
		ForwardPE:     optional(eq.ForwardPE),
		DividendYield: optional(eq.TrailingAnnualDividendYield),
	}, nil
}

// call waits for the rate limiter, then runs fn in a goroutine so the
// library's blocking call can be abandoned when the deadline passes.
// A panic inside the library is reported as an error.
func (p *YahooProvider) call(ctx context.Context, op string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		// Wait fails early when the next token lies past the deadline
		cause := ctx.Err()
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		return nil, errors.Wrapf(cause, "%s rate limit wait: %v", op, err)
	}

	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Errorf("%s request panicked: %v", op, r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "%s request", op)
	case out := <-done:
		if out.err != nil {
			return nil, errors.Wrapf(out.err, "%s request", op)
		}
		return out.value, nil
	}
}

// classifyError separates unknown tickers from provider failures
func classifyError(ticker string, err error) error {
	if errors.Is(err, ErrUnknownSymbol) {
		return apperrors.NewNotFoundErrorWithID("ticker", ticker)
	}
	var yerr *finance.YfinError
	if errors.As(err, &yerr) && strings.EqualFold(yerr.Code, "Not Found") {
		return apperrors.NewNotFoundErrorWithID("ticker", ticker)
	}
	return apperrors.NewUpstreamError(providerName, err)
}

// convertBars maps library bars to Bars, dropping null bars (holidays etc.)
// and sorting by date.
func convertBars(raw []*finance.ChartBar) []Bar {
	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		if b == nil {
			continue
		}
		o, _ := b.Open.Float64()
		h, _ := b.High.Float64()
		l, _ := b.Low.Float64()
		c, _ := b.Close.Float64()
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue
		}
		bars = append(bars, Bar{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: float64(b.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
