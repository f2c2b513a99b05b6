package sources

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
)

const (
	dashboardURL    = "https://www.chittorgarh.com/ipo/ipo_dashboard.asp"
	dashboardRowCap = 100
)

// DashboardAdapter reads the chittorgarh IPO calendar: name, open date, close
// date, price band, lot size, issue size (crore).
type DashboardAdapter struct {
	client  *resty.Client
	limiter *shared.HTTPRequestRateLimiter
	url     string
}

func NewDashboardAdapter(client *resty.Client, limiter *shared.HTTPRequestRateLimiter) *DashboardAdapter {
	return &DashboardAdapter{client: client, limiter: limiter, url: dashboardURL}
}

func (a *DashboardAdapter) Name() string { return "chittorgarh_dashboard" }

func (a *DashboardAdapter) Kind() models.SourceKind { return models.SourceKindDates }

func (a *DashboardAdapter) Fetch(ctx context.Context) (*Batch, error) {
	doc, err := fetchDocument(ctx, a.client, a.limiter, a.Name(), a.url)
	if err != nil {
		return nil, err
	}
	return a.parse(doc)
}

func (a *DashboardAdapter) parse(doc *goquery.Document) (*Batch, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, tableNotFound(a.Name(), "table")
	}

	batch := NewBatch(a.Name(), a.Kind())
	for i, row := range dataRows(table, dashboardRowCap) {
		cells := cellTexts(row)
		if len(cells) < 3 {
			batch.Skip(i, "", ReasonMissingColumns)
			continue
		}

		partial, reason := newPartial(cells[0])
		if reason != "" {
			batch.Skip(i, cells[0], reason)
			continue
		}

		open, openOK := parsers.ParseDate(cells[1])
		closeDate, closeOK := parsers.ParseDate(cells[2])
		if !openOK || !closeOK {
			batch.Skip(i, cells[0], ReasonMissingDateRange)
			continue
		}
		partial.OpenDate = models.TimePtr(open)
		partial.CloseDate = models.TimePtr(closeDate)

		if len(cells) > 3 {
			partial.MinPrice, partial.MaxPrice = parsers.ParsePriceRange(cells[3])
		}
		if len(cells) > 4 {
			partial.LotSize = intValue(cells[4])
		}
		if len(cells) > 5 {
			partial.IssueSizeCr = floatValue(cells[5])
		}

		batch.Accept(i, partial)
	}
	return batch, nil
}
