package currency_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/currency"
	"github.com/noah-isme/backend-pos/internal/resilience"
)

// tableServer serves ExchangeRate-API-shaped rate tables keyed by base
// currency.
func tableServer(t *testing.T, tables map[string]map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for base, rates := range tables {
			if r.URL.Path == "/latest/"+base {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"result":    "success",
					"base_code": base,
					"rates":     rates,
				})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "error"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTableClient(srv *httptest.Server) currency.ExchangeRateClient {
	return currency.ExchangeRateClient{
		HTTP:    resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1},
		BaseURL: srv.URL,
	}
}

func TestExchangeRateClientLooksUpRate(t *testing.T) {
	srv := tableServer(t, map[string]map[string]float64{
		"USD": {"GEL": 2.75, "EUR": 0.92},
	})

	rate, err := newTableClient(srv).MidRate(context.Background(), "USD", "GEL")
	require.NoError(t, err)
	require.InDelta(t, 2.75, rate, 1e-9)
}

func TestExchangeRateClientUnknownBase(t *testing.T) {
	srv := tableServer(t, map[string]map[string]float64{})

	_, err := newTableClient(srv).MidRate(context.Background(), "XXX", "GEL")
	require.ErrorIs(t, err, currency.ErrConversionRequestFailed)
}

func TestExchangeRateClientUnlistedCurrency(t *testing.T) {
	srv := tableServer(t, map[string]map[string]float64{
		"USD": {"GEL": 2.75},
	})

	_, err := newTableClient(srv).MidRate(context.Background(), "USD", "XXX")
	require.ErrorIs(t, err, currency.ErrConversionFailed)
}

func TestServiceConvertsWithExchangeRateSource(t *testing.T) {
	srv := tableServer(t, map[string]map[string]float64{
		"USD": {"GEL": 2.75, "EUR": 0.92},
	})

	svc := currency.Service{Source: newTableClient(srv)}
	converted, err := svc.Convert(context.Background(), 100, "GEL", "EUR")
	require.NoError(t, err)
	require.InDelta(t, 100*0.92/2.75, converted, 1e-9)
}
