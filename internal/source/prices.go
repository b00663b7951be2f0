// Package source holds the external data-source clients: the price source
// and the financial-metric (fundamentals) source. Both are black-box
// collaborators; the pipeline only sees their returned series.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/seamark-project/backend/pkg/config"
	"github.com/seamark-project/backend/pkg/httputil"
	"github.com/seamark-project/backend/pkg/logger"
)

// PricePoint is one (date, price) pair from the price source.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSource fetches ordered daily close prices for a symbol. Calls are
// paced to respect the provider's quota and retried with bounded backoff by
// the underlying client.
type PriceSource struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewPriceSource creates a price source from config.
func NewPriceSource(cfg *config.Config, log *logger.Logger) *PriceSource {
	client := httputil.New(log).WithPacing(cfg.Sources.PaceEvery)
	return &PriceSource{
		client:  client,
		baseURL: cfg.Sources.PriceBaseURL,
		logger:  log,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns the symbol's (date, close) pairs from start up to now, in
// ascending date order. An empty result is not an error.
func (s *PriceSource) Fetch(ctx context.Context, symbol string, start time.Time) ([]PricePoint, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		s.baseURL, url.PathEscape(symbol), start.Unix(), time.Now().Unix())

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("price fetch for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price fetch for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read price response: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode price response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("price source error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	var points []PricePoint
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC()
		points = append(points, PricePoint{
			Date:  time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Price: *closes[i],
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(points),
	}).Debug("Fetched prices")
	return points, nil
}
