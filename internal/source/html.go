package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seamark-project/backend/pkg/httputil"
	"github.com/seamark-project/backend/pkg/logger"
)

// QuoteScraper is the HTML fallback for symbols the JSON price API does not
// carry. It parses a daily-quote table of (date, close) rows.
type QuoteScraper struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewQuoteScraper creates a scraper against the given quote-page base URL.
func NewQuoteScraper(client *httputil.Client, baseURL string, log *logger.Logger) *QuoteScraper {
	return &QuoteScraper{client: client, baseURL: baseURL, logger: log}
}

// Fetch scrapes the symbol's daily quote page and returns (date, close)
// pairs in ascending date order, dropping rows older than start.
func (s *QuoteScraper) Fetch(ctx context.Context, symbol string, start time.Time) ([]PricePoint, error) {
	endpoint := fmt.Sprintf("%s/quote/%s/history", s.baseURL, symbol)

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("quote page fetch for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote page fetch for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page: %w", err)
	}

	points := ParseQuoteTable(doc, start)

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(points),
	}).Debug("Scraped quote history")
	return points, nil
}

// ParseQuoteTable extracts (date, close) rows from the page's history table.
// Rows with unparseable cells are skipped.
func ParseQuoteTable(doc *goquery.Document, start time.Time) []PricePoint {
	var points []PricePoint

	doc.Find("table.history tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return
		}
		if !date.After(start) {
			return
		}

		raw := strings.ReplaceAll(strings.TrimSpace(cells.Eq(1).Text()), ",", "")
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return
		}

		points = append(points, PricePoint{Date: date, Price: price})
	})

	// Quote pages list newest first.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
