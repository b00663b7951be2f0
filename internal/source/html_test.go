package source

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotePage = `
<html><body>
<table class="history">
<tbody>
<tr><td>2024-01-05</td><td>1,234.50</td></tr>
<tr><td>2024-01-04</td><td>1230.00</td></tr>
<tr><td>2024-01-03</td><td>n/a</td></tr>
<tr><td>2024-01-02</td><td>1225.00</td></tr>
</tbody>
</table>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseQuoteTable_AscendingOrder(t *testing.T) {
	points := ParseQuoteTable(parseDoc(t, quotePage), time.Time{})

	// The unparseable price row is skipped; the rest come back oldest first.
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-02", points[0].Date.Format("2006-01-02"))
	assert.InDelta(t, 1225.0, points[0].Price, 1e-9)
	assert.Equal(t, "2024-01-05", points[2].Date.Format("2006-01-02"))
	assert.InDelta(t, 1234.5, points[2].Price, 1e-9, "thousands separators are stripped")
}

func TestParseQuoteTable_StartCutoff(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2024-01-04")
	points := ParseQuoteTable(parseDoc(t, quotePage), start)

	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-05", points[0].Date.Format("2006-01-02"))
}

func TestParseQuoteTable_NoTable(t *testing.T) {
	points := ParseQuoteTable(parseDoc(t, "<html><body><p>gone</p></body></html>"), time.Time{})
	assert.Empty(t, points)
}

func TestParseQuoteTable_ShortRowsSkipped(t *testing.T) {
	page := `<table class="history"><tbody><tr><td>2024-01-05</td></tr></tbody></table>`
	points := ParseQuoteTable(parseDoc(t, page), time.Time{})
	assert.Empty(t, points)
}
