package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-pos/internal/resilience"
)

// DefaultExchangeRateBaseURL is the open tier of the ExchangeRate-API.
// See https://www.exchangerate-api.com/docs/free.
const DefaultExchangeRateBaseURL = "https://open.er-api.com/v6"

// ExchangeRateClient fetches a full rate table per base currency from the
// ExchangeRate-API. The API publishes a single reference rate per pair, which
// serves directly as the mid rate.
type ExchangeRateClient struct {
	HTTP    resilience.HTTPClient
	BaseURL string
}

type exchangeRateResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// MidRate fetches the rate table for FROM and looks up TO.
func (c ExchangeRateClient) MidRate(ctx context.Context, from, to string) (float64, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultExchangeRateBaseURL
	}
	url := fmt.Sprintf("%s/latest/%s", strings.TrimRight(base, "/"), from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionRequestFailed, err)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrConversionRequestFailed, resp.Status)
	}

	var payload exchangeRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionRequestFailed, err)
	}
	if payload.Result != "success" {
		return 0, fmt.Errorf("%w: result %q", ErrConversionRequestFailed, payload.Result)
	}
	rate, ok := payload.Rates[to]
	if !ok {
		return 0, fmt.Errorf("%w: %s not listed against %s", ErrConversionFailed, to, from)
	}
	return rate, nil
}
