package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
)

const (
	shareholderURL    = "https://ipocentral.in/upcoming-ipos-with-shareholders-quota/"
	shareholderRowCap = 100
	shareholderHeader = "parent company"
)

// ShareholderResult is the output of one shareholder-quota fetch.
type ShareholderResult struct {
	Source  string
	Entries []models.ShareholderIntel
	Rows    []RowResult
}

// SkipCounts aggregates skipped rows by reason.
func (r *ShareholderResult) SkipCounts() shared.SkipCounter {
	counts := shared.SkipCounter{}
	for _, row := range r.Rows {
		if row.Skipped() {
			counts.Add(row.Reason)
		}
	}
	return counts
}

// ShareholderAdapter reads subsidiaries whose parent company holders get a
// reserved quota. It feeds shareholder_intel, not the merged ipos table.
type ShareholderAdapter struct {
	client  *resty.Client
	limiter *shared.HTTPRequestRateLimiter
	url     string
}

func NewShareholderAdapter(client *resty.Client, limiter *shared.HTTPRequestRateLimiter) *ShareholderAdapter {
	return &ShareholderAdapter{client: client, limiter: limiter, url: shareholderURL}
}

func (a *ShareholderAdapter) Name() string { return "ipocentral_shareholder" }

func (a *ShareholderAdapter) Fetch(ctx context.Context) (*ShareholderResult, error) {
	doc, err := fetchDocument(ctx, a.client, a.limiter, a.Name(), a.url)
	if err != nil {
		return nil, err
	}
	return a.parse(doc)
}

func (a *ShareholderAdapter) parse(doc *goquery.Document) (*ShareholderResult, error) {
	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, candidate *goquery.Selection) bool {
		header := candidate.Find("tr").First().Find("th, td")
		found := false
		header.Each(func(_ int, cell *goquery.Selection) {
			if strings.EqualFold(parsers.CleanText(cell.Text()), shareholderHeader) {
				found = true
			}
		})
		if found {
			table = candidate
		}
		return !found
	})
	if table == nil {
		return nil, tableNotFound(a.Name(), "table with a Parent Company header")
	}

	result := &ShareholderResult{Source: a.Name()}
	seen := make(map[string]int)
	for i, row := range dataRows(table, shareholderRowCap) {
		cells := cellTexts(row)
		if len(cells) < 3 {
			result.Rows = append(result.Rows, RowResult{Index: i, Reason: ReasonMissingColumns})
			continue
		}

		name, parent, status := cells[0], cells[1], cells[2]
		if name == "" || parent == "" {
			result.Rows = append(result.Rows, RowResult{Index: i, Name: name, Reason: ReasonEmptyName})
			continue
		}

		action, active := ShareholderAction(parent, status)
		if !active {
			result.Rows = append(result.Rows, RowResult{Index: i, Name: name, Reason: ReasonInactive})
			continue
		}

		entry := models.ShareholderIntel{
			IPOName:       name,
			ParentCompany: parent,
			SEBIStatus:    status,
			ActionText:    action,
			IsActive:      true,
		}
		if existing, ok := seen[name]; ok {
			result.Entries[existing] = entry
		} else {
			seen[name] = len(result.Entries)
			result.Entries = append(result.Entries, entry)
		}
		result.Rows = append(result.Rows, RowResult{Index: i, Name: name, Slug: parsers.Slugify(name)})
	}
	return result, nil
}

// ShareholderAction turns a regulator status into advice for parent-company
// holders. Returned and rejected filings are not worth tracking.
func ShareholderAction(parent, status string) (string, bool) {
	switch {
	case strings.Contains(status, "Approved"), strings.Contains(status, "Filed"):
		return fmt.Sprintf("Buy 1 share of %s ASAP (RHP likely soon)", parent), true
	case strings.Contains(status, "Awaited"):
		return fmt.Sprintf("Track %s (Early Stage)", parent), true
	case strings.Contains(status, "Returned"), strings.Contains(status, "Rejected"):
		return "", false
	default:
		return "Watchlist", true
	}
}
