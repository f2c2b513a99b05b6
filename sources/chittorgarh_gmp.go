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
	chittorgarhGMPURL    = "https://www.chittorgarh.com/report/ipo-grey-market-premium-gmp-current-rate/83/"
	chittorgarhGMPRowCap = 100
)

// ChittorgarhGMPAdapter reads the chittorgarh premium report: name, issue
// price, premium.
type ChittorgarhGMPAdapter struct {
	client  *resty.Client
	limiter *shared.HTTPRequestRateLimiter
	url     string
}

func NewChittorgarhGMPAdapter(client *resty.Client, limiter *shared.HTTPRequestRateLimiter) *ChittorgarhGMPAdapter {
	return &ChittorgarhGMPAdapter{client: client, limiter: limiter, url: chittorgarhGMPURL}
}

func (a *ChittorgarhGMPAdapter) Name() string { return "chittorgarh_gmp" }

func (a *ChittorgarhGMPAdapter) Kind() models.SourceKind { return models.SourceKindGMP }

func (a *ChittorgarhGMPAdapter) Fetch(ctx context.Context) (*Batch, error) {
	doc, err := fetchDocument(ctx, a.client, a.limiter, a.Name(), a.url)
	if err != nil {
		return nil, err
	}
	return a.parse(doc)
}

func (a *ChittorgarhGMPAdapter) parse(doc *goquery.Document) (*Batch, error) {
	table := tableContaining(doc, "ipo", "gmp")
	if table == nil {
		return nil, tableNotFound(a.Name(), "table with ipo and gmp")
	}

	batch := NewBatch(a.Name(), a.Kind())
	for i, row := range dataRows(table, chittorgarhGMPRowCap) {
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

		partial.MaxPrice = intValue(cells[1])
		if amount, ok := parsers.ParseNumber(cells[2]); ok {
			_, pct := parsers.ParseGMP(cells[2])
			partial.CurrentGMP = models.IntPtr(int(amount))
			partial.GMPPercentage = pct
		}

		batch.Accept(i, partial)
	}
	return batch, nil
}
