package sources

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
)

const (
	subscriptionURL    = "https://www.chittorgarh.com/ipo/ipo_subscription_status_live.asp"
	subscriptionRowCap = 50
	subscriptionTable  = "table.table"
)

// SubscriptionAdapter reads live bidding multiples from chittorgarh. Rows are
// name, retail, NII, QIB, total; a sixth column splits out big-ticket NII as
// name, retail, NII, bNII, QIB, total.
type SubscriptionAdapter struct {
	timeout time.Duration
	delay   time.Duration
	url     string
}

func NewSubscriptionAdapter(timeout, politenessDelay time.Duration) *SubscriptionAdapter {
	return &SubscriptionAdapter{timeout: timeout, delay: politenessDelay, url: subscriptionURL}
}

func (a *SubscriptionAdapter) Name() string { return "chittorgarh_subscription" }

func (a *SubscriptionAdapter) Kind() models.SourceKind { return models.SourceKindSubscription }

func (a *SubscriptionAdapter) Fetch(ctx context.Context) (*Batch, error) {
	collector := colly.NewCollector(
		colly.UserAgent(shared.BrowserUserAgent),
		colly.StdlibContext(ctx),
	)
	collector.SetRequestTimeout(a.timeout)
	if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: a.delay}); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, shared.CodeFetchFailed,
			"invalid politeness rule", a.Name(), "Fetch", false, err)
	}

	batch := NewBatch(a.Name(), a.Kind())
	var fetchErr error
	tableSeen := false

	collector.OnRequest(func(r *colly.Request) {
		shared.SetBrowserLikeHeaders(*r.Headers, shared.AcceptHTML)
	})

	collector.OnHTML(subscriptionTable, func(e *colly.HTMLElement) {
		if tableSeen {
			return
		}
		tableSeen = true

		for i, row := range dataRows(e.DOM, subscriptionRowCap) {
			cells := cellTexts(row)
			if len(cells) < 5 {
				batch.Skip(i, "", ReasonMissingColumns)
				continue
			}

			partial, reason := newPartial(cells[0])
			if reason != "" {
				batch.Skip(i, cells[0], reason)
				continue
			}

			partial.SubscriptionRetail = floatValue(cells[1])
			partial.SubscriptionNII = floatValue(cells[2])
			if len(cells) >= 6 {
				partial.SubscriptionBNII = floatValue(cells[3])
				partial.SubscriptionQIB = floatValue(cells[4])
				partial.SubscriptionTotal = floatValue(cells[5])
			} else {
				partial.SubscriptionQIB = floatValue(cells[3])
				partial.SubscriptionTotal = floatValue(cells[4])
			}

			batch.Accept(i, partial)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeFetchFailed,
			"subscription page request failed", a.Name(), "Fetch", true, err).
			WithDetails(map[string]interface{}{"status_code": r.StatusCode})
	})

	if err := collector.Visit(a.url); err != nil && fetchErr == nil {
		fetchErr = shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeFetchFailed,
			"subscription page request failed", a.Name(), "Fetch", true, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if !tableSeen {
		return nil, tableNotFound(a.Name(), subscriptionTable)
	}
	return batch, nil
}
