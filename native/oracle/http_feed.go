package oracle

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
)

// HTTPDoer abstracts http.Client for ease of testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFeed fetches the latest price from a JSON endpoint of the form
// {"price":"200000000","decimals":8}.
type HTTPFeed struct {
	client   HTTPDoer
	endpoint string
	apiKey   string
}

// NewHTTPFeed constructs an HTTP feed adapter. When the client is nil
// http.DefaultClient is used. The API key is optional and only added to the
// request headers when supplied.
func NewHTTPFeed(client HTTPDoer, endpoint, apiKey string) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{
		client:   client,
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
	}
}

func (f *HTTPFeed) LatestPrice() (*big.Int, uint8, error) {
	if f == nil || f.endpoint == "" {
		return nil, 0, fmt.Errorf("oracle: http feed not configured")
	}
	req, err := http.NewRequest(http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("oracle: http feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		Price    string `json:"price"`
		Decimals uint8  `json:"decimals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("oracle: http feed decode: %w", err)
	}
	price := strings.TrimSpace(payload.Price)
	if price == "" {
		return nil, 0, fmt.Errorf("oracle: http feed returned empty price")
	}
	value, ok := new(big.Int).SetString(price, 10)
	if !ok || value.Sign() <= 0 {
		return nil, 0, fmt.Errorf("oracle: http feed returned invalid price %q", payload.Price)
	}
	return value, payload.Decimals, nil
}
