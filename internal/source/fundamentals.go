package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seamark-project/backend/pkg/config"
	"github.com/seamark-project/backend/pkg/httputil"
	"github.com/seamark-project/backend/pkg/logger"
)

// FieldPoint is one (date, value) pair of a fundamentals field series.
type FieldPoint struct {
	Date  time.Time
	Value float64
}

// FundamentalSource fetches financial-metric field series for a symbol. The
// provider caps the number of fields per request, so large field lists are
// chunked across calls.
type FundamentalSource struct {
	client           *httputil.Client
	baseURL          string
	apiKey           string
	fieldsPerRequest int
	logger           *logger.Logger
}

// NewFundamentalSource creates a fundamentals source from config.
func NewFundamentalSource(cfg *config.Config, log *logger.Logger) *FundamentalSource {
	client := httputil.New(log).WithPacing(cfg.Sources.PaceEvery)
	return &FundamentalSource{
		client:           client,
		baseURL:          cfg.Sources.FundamentalBaseURL,
		apiKey:           cfg.Sources.FundamentalAPIKey,
		fieldsPerRequest: cfg.Sources.FieldsPerRequest,
		logger:           log,
	}
}

type fieldSeriesResponse struct {
	Series map[string][]struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	} `json:"series"`
}

// Fetch returns one series per requested field name for the symbol over the
// date range. Fields the provider has no data for are absent from the result.
func (s *FundamentalSource) Fetch(ctx context.Context, symbol string, fields []string, periodicity string, from, to time.Time) (map[string][]FieldPoint, error) {
	out := make(map[string][]FieldPoint)

	for start := 0; start < len(fields); start += s.fieldsPerRequest {
		end := min(start+s.fieldsPerRequest, len(fields))
		chunk, err := s.fetchChunk(ctx, symbol, fields[start:end], periodicity, from, to)
		if err != nil {
			return nil, err
		}
		for field, points := range chunk {
			out[field] = points
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"fields": len(fields),
		"series": len(out),
	}).Debug("Fetched fundamentals")
	return out, nil
}

func (s *FundamentalSource) fetchChunk(ctx context.Context, symbol string, fields []string, periodicity string, from, to time.Time) (map[string][]FieldPoint, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("fields", strings.Join(fields, ","))
	query.Set("periodicity", periodicity)
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))
	query.Set("apikey", s.apiKey)

	endpoint := fmt.Sprintf("%s/v1/fundamentals?%s", s.baseURL, query.Encode())
	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fundamentals fetch for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fundamentals fetch for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fundamentals response: %w", err)
	}

	var parsed fieldSeriesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode fundamentals response: %w", err)
	}

	out := make(map[string][]FieldPoint, len(parsed.Series))
	for field, raw := range parsed.Series {
		points := make([]FieldPoint, 0, len(raw))
		for _, p := range raw {
			date, err := time.Parse("2006-01-02", p.Date)
			if err != nil {
				continue
			}
			points = append(points, FieldPoint{Date: date, Value: p.Value})
		}
		out[field] = points
	}
	return out, nil
}
