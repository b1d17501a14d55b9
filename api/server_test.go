package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-market-coach/apperrors"
	"ai-market-coach/coach"
	models "ai-market-coach/database/models_pkg"
	"ai-market-coach/database/sqlite"
	"ai-market-coach/logging"
	"ai-market-coach/market"
)

type stubProvider struct {
	err error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) FetchSeries(_ context.Context, ticker, period, interval string) (*market.PriceSeries, error) {
	if p.err != nil {
		return nil, p.err
	}
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []market.Bar{}
	for i, c := range []float64{100, 110, 90, 120} {
		bars = append(bars, market.Bar{Date: start.AddDate(0, 0, i), Close: c})
	}
	return &market.PriceSeries{Ticker: ticker, Period: period, Interval: interval, Currency: "USD", Bars: bars}, nil
}

func (p stubProvider) FetchSnapshot(_ context.Context, ticker string) (*market.CompanySnapshot, error) {
	return &market.CompanySnapshot{Ticker: ticker, ShortName: "Test Corp"}, nil
}

func newTestServer(t *testing.T, provider market.Provider) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := coach.NewService(provider, store)
	srv := httptest.NewServer(NewServer(svc, logging.NewSilent(), WithVersion("test")).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{})

	for _, path := range []string{"/api/analyze", "/analyze"} {
		resp := postJSON(t, srv.URL+path, `{"ticker":"aapl","period":"6mo","interval":"1wk","user_level":"Intermediate"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		var body map[string]interface{}
		decode(t, resp, &body)

		assert.NotEmpty(t, body["session_id"])
		assert.Equal(t, "AAPL", body["ticker"])
		assert.Len(t, body["quiz"], 4)
		assert.Len(t, body["flashcards"], 5)
		assert.Contains(t, body["disclaimer"], "not financial advice")
		assert.Contains(t, body["report_markdown"], "Test Corp")

		analysis := body["analysis"].(map[string]interface{})
		assert.Equal(t, "6mo", analysis["period"])
		metrics := analysis["price_metrics"].(map[string]interface{})
		assert.InDelta(t, 20.0, metrics["period_return_pct"].(float64), 1e-9)
	}
}

func TestAnalyzeValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"ticker":`},
		{"missing ticker", `{}`},
		{"bad period", `{"ticker":"AAPL","period":"3y"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorResponse
			decode(t, resp, &body)
			assert.Equal(t, "validation", body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAnalyzeUnknownTicker(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{err: apperrors.NewNotFoundErrorWithID("ticker", "ZZZZZZ")})

	resp := postJSON(t, srv.URL+"/api/analyze", `{"ticker":"ZZZZZZ"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorResponse
	decode(t, resp, &body)
	assert.Equal(t, "not_found", body.Kind)
}

func TestAnalyzeUpstreamTimeout(t *testing.T) {
	timeout := apperrors.NewUpstreamError("yahoo", errors.Wrap(context.DeadlineExceeded, "fetch chart"))
	srv, _ := newTestServer(t, stubProvider{err: timeout})

	resp := postJSON(t, srv.URL+"/api/analyze", `{"ticker":"AAPL"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestSessionsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{})

	var created map[string]interface{}
	decode(t, postJSON(t, srv.URL+"/api/analyze", `{"ticker":"MSFT"}`), &created)
	decode(t, postJSON(t, srv.URL+"/api/analyze", `{"ticker":"AAPL"}`), &map[string]interface{}{})
	id := created["session_id"].(string)

	resp, err := http.Get(srv.URL + "/api/sessions?ticker=msft")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list sessionList
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 20, list.Limit)
	assert.Equal(t, id, list.Sessions[0].ID)

	resp, err = http.Get(srv.URL + "/api/sessions?limit=500")
	require.NoError(t, err)
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 100, list.Limit)

	resp, err = http.Get(srv.URL + "/api/sessions?limit=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session models.Session
	decode(t, resp, &session)
	assert.Equal(t, "MSFT", session.Ticker)
	assert.Contains(t, string(session.Metrics), "period_return_pct")

	resp, err = http.Get(srv.URL + "/api/sessions/unknown-id")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChartEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{})

	resp, err := http.Get(srv.URL + "/api/chart?ticker=AAPL&period=1y&interval=1d")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestHealthAndRoot(t *testing.T) {
	srv, store := newTestServer(t, stubProvider{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health map[string]string
	decode(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "ok", health["database"])
	assert.NotEmpty(t, health["timestamp"])
	assert.Equal(t, "stub", health["market"])

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	var root map[string]string
	decode(t, resp, &root)
	assert.Equal(t, ServiceName, root["name"])
	assert.Equal(t, "test", root["version"])

	// still 200 with the database gone
	require.NoError(t, store.Close())
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &health)
	assert.Equal(t, "unavailable", health["database"])
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{})

	resp, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorResponse
	decode(t, resp, &body)
	assert.Equal(t, "not_found", body.Kind)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, stubProvider{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
