package market

import (
	"net/http"
	"strings"

	finance "github.com/piquette/finance-go"
	"github.com/pkg/errors"
)

// ErrUnknownSymbol is returned when Yahoo answers the chart endpoint with 404.
// The library discards error bodies, so the status is the only signal left.
var ErrUnknownSymbol = errors.New("unknown symbol")

const chartPathPrefix = "/v8/finance/chart/"

// symbolTransport turns a chart 404 into ErrUnknownSymbol before the library sees it
type symbolTransport struct {
	base http.RoundTripper
}

func (t symbolTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(req.URL.Path, chartPathPrefix) {
		resp.Body.Close()
		return nil, ErrUnknownSymbol
	}
	return resp, nil
}

// newBackend builds a Yahoo backend owned by one provider, leaving the
// library's package-level backend untouched.
func newBackend(endpoint string, hc *http.Client) finance.Backend {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client := *hc
	client.Transport = symbolTransport{base: base}

	return &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        strings.TrimRight(endpoint, "/"),
		HTTPClient: &client,
	}
}
