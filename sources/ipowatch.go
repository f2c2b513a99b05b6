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
	ipoWatchURL    = "https://ipowatch.in/ipo-grey-market-premium-latest-ipo-gmp/"
	ipoWatchRowCap = 20
)

// IPOWatchAdapter reads the premium table on ipowatch.in. Columns are name,
// premium, price and, when present, kostak and subject-to-sauda rates.
type IPOWatchAdapter struct {
	client  *resty.Client
	limiter *shared.HTTPRequestRateLimiter
	url     string
}

func NewIPOWatchAdapter(client *resty.Client, limiter *shared.HTTPRequestRateLimiter) *IPOWatchAdapter {
	return &IPOWatchAdapter{client: client, limiter: limiter, url: ipoWatchURL}
}

func (a *IPOWatchAdapter) Name() string { return "ipowatch" }

func (a *IPOWatchAdapter) Kind() models.SourceKind { return models.SourceKindGMP }

func (a *IPOWatchAdapter) Fetch(ctx context.Context) (*Batch, error) {
	doc, err := fetchDocument(ctx, a.client, a.limiter, a.Name(), a.url)
	if err != nil {
		return nil, err
	}
	return a.parse(doc)
}

func (a *IPOWatchAdapter) parse(doc *goquery.Document) (*Batch, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, tableNotFound(a.Name(), "table")
	}

	batch := NewBatch(a.Name(), a.Kind())
	for i, row := range dataRows(table, ipoWatchRowCap) {
		cells := cellTexts(row)
		if len(cells) < 2 {
			batch.Skip(i, "", ReasonMissingColumns)
			continue
		}

		partial, reason := newPartial(cells[0])
		if reason != "" {
			batch.Skip(i, cells[0], reason)
			continue
		}

		if amount, ok := parsers.ParseNumber(cells[1]); ok {
			_, pct := parsers.ParseGMP(cells[1])
			partial.CurrentGMP = models.IntPtr(int(amount))
			partial.GMPPercentage = pct
		}
		if len(cells) > 2 {
			partial.MaxPrice = intValue(cells[2])
		}
		if len(cells) > 3 {
			partial.KostakRate = intValue(cells[3])
		}
		if len(cells) > 4 {
			partial.SubjectToSauda = intValue(cells[4])
		}

		batch.Accept(i, partial)
	}
	return batch, nil
}
