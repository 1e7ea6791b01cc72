package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/resilience"
)

// DefaultAwesomeAPIBaseURL is the public exchange rate API the service quotes
// rates from. See https://docs.awesomeapi.com.br/api-de-moedas.
const DefaultAwesomeAPIBaseURL = "https://economia.awesomeapi.com.br"

// DefaultMediatorCurrency bridges pairs the upstream API does not quote
// directly. The API lists USD against most currencies (GEL included) but not
// arbitrary cross pairs, so a cross rate is derived through USD.
const DefaultMediatorCurrency = "USD"

// RateSource produces a mid exchange rate between two distinct currencies.
type RateSource interface {
	MidRate(ctx context.Context, from, to string) (float64, error)
}

// AwesomeClient fetches quotes from the AwesomeAPI currency endpoint. The mid
// rate is the average of the quoted bid and ask.
type AwesomeClient struct {
	HTTP    resilience.HTTPClient
	BaseURL string
}

type awesomeQuote struct {
	Bid string `json:"bid"`
	Ask string `json:"ask"`
}

// MidRate fetches the FROM-TO quote and averages bid and ask.
func (c AwesomeClient) MidRate(ctx context.Context, from, to string) (float64, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultAwesomeAPIBaseURL
	}
	url := fmt.Sprintf("%s/json/last/%s-%s", strings.TrimRight(base, "/"), from, to)
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

	// The API keys each quote by the concatenated pair, e.g. "USDGEL".
	var payload map[string]awesomeQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionRequestFailed, err)
	}
	quote, ok := payload[from+to]
	if !ok {
		return 0, fmt.Errorf("%w: pair %s-%s not quoted", ErrConversionFailed, from, to)
	}
	bid, err := strconv.ParseFloat(quote.Bid, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad bid %q", ErrConversionFailed, quote.Bid)
	}
	ask, err := strconv.ParseFloat(quote.Ask, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad ask %q", ErrConversionFailed, quote.Ask)
	}
	return (bid + ask) / 2, nil
}

// Service is the production Converter. Rates are derived through the mediator
// currency, cached in Redis, and fetched through a resilient HTTP client.
type Service struct {
	Source   RateSource
	Mediator string
	Cache    *redis.Client
	CacheTTL time.Duration
	Log      zerolog.Logger
}

// Convert converts amount from one currency to another using the current mid
// rate for the pair.
func (s Service) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	rate, err := s.rate(ctx, from, to)
	if err != nil {
		if obs.CurrencyConversionTotal != nil {
			obs.CurrencyConversionTotal.WithLabelValues(to, "error").Inc()
		}
		return 0, err
	}
	if obs.CurrencyConversionTotal != nil {
		obs.CurrencyConversionTotal.WithLabelValues(to, "ok").Inc()
	}
	return amount * rate, nil
}

func (s Service) rate(ctx context.Context, from, to string) (float64, error) {
	cacheKey := "fx:" + from + ":" + to
	if cached, ok := s.cachedRate(ctx, cacheKey); ok {
		return cached, nil
	}

	rate, err := s.crossRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	s.storeRate(ctx, cacheKey, rate)
	return rate, nil
}

// crossRate derives from→to through the mediator:
// rate = mid(mediator, to) / mid(mediator, from). A leg against the mediator
// itself is 1 and skips the network call.
func (s Service) crossRate(ctx context.Context, from, to string) (float64, error) {
	mediator := s.Mediator
	if mediator == "" {
		mediator = DefaultMediatorCurrency
	}
	num, err := s.midRate(ctx, mediator, to)
	if err != nil {
		return 0, err
	}
	den, err := s.midRate(ctx, mediator, from)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("%w: zero %s/%s rate", ErrConversionFailed, mediator, from)
	}
	return num / den, nil
}

func (s Service) midRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	return s.Source.MidRate(ctx, from, to)
}

func (s Service) cachedRate(ctx context.Context, key string) (float64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	raw, err := s.Cache.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return rate, true
}

func (s Service) storeRate(ctx context.Context, key string, rate float64) {
	if s.Cache == nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.Cache.Set(ctx, key, strconv.FormatFloat(rate, 'f', -1, 64), ttl).Err(); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("currency rate cache write failed")
	}
}
