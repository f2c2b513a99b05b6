package sources

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
)

const (
	rapidAPIHost    = "indian-ipos1.p.rapidapi.com"
	rapidAPIBaseURL = "https://" + rapidAPIHost
	rapidAPIRowCap  = 100
)

var rapidAPIEndpoints = []string{"/upcoming-ipos", "/closed-ipos"}

type rapidAPIItem struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	IPODate     string `json:"ipoDate"`
	PriceRange  string `json:"priceRange"`
	ListingDate string `json:"listingDate"`
}

// RapidAPIAdapter pulls the upcoming and closed issue lists from the Indian
// IPOs API on RapidAPI.
type RapidAPIAdapter struct {
	client  *resty.Client
	limiter *shared.HTTPRequestRateLimiter
	baseURL string
}

func NewRapidAPIAdapter(client *resty.Client, limiter *shared.HTTPRequestRateLimiter, apiKey string) *RapidAPIAdapter {
	client.SetHeaders(map[string]string{
		"x-rapidapi-key":  apiKey,
		"x-rapidapi-host": rapidAPIHost,
	})
	return &RapidAPIAdapter{client: client, limiter: limiter, baseURL: rapidAPIBaseURL}
}

func (a *RapidAPIAdapter) Name() string { return "rapidapi" }

func (a *RapidAPIAdapter) Kind() models.SourceKind { return models.SourceKindDates }

func (a *RapidAPIAdapter) Fetch(ctx context.Context) (*Batch, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "RapidAPIAdapter",
		"method":    "Fetch",
	})

	batch := NewBatch(a.Name(), a.Kind())
	var failures []error
	index := 0

	for _, endpoint := range rapidAPIEndpoints {
		body, err := fetchBody(ctx, a.client, a.limiter, a.Name(), a.baseURL+endpoint)
		if err != nil {
			logger.WithError(err).WithField("endpoint", endpoint).Warn("Endpoint failed, continuing with the rest")
			failures = append(failures, err)
			continue
		}

		items, err := decodeRapidAPIItems(body)
		if err != nil {
			failures = append(failures, shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeFetchFailed,
				"unexpected response shape from "+endpoint, a.Name(), "Fetch", false, err))
			continue
		}

		for i, item := range items {
			if i >= rapidAPIRowCap {
				break
			}
			a.parseItem(batch, index, item)
			index++
		}
	}

	if len(failures) == len(rapidAPIEndpoints) {
		return nil, failures[0]
	}
	return batch, nil
}

func (a *RapidAPIAdapter) parseItem(batch *Batch, index int, item rapidAPIItem) {
	partial, reason := newPartial(item.Name)
	if reason != "" {
		batch.Skip(index, item.Name, reason)
		return
	}

	open, closeDate, ok := parsers.ParseDateRange(item.IPODate)
	if !ok {
		batch.Skip(index, item.Name, ReasonMissingDateRange)
		return
	}
	partial.OpenDate = models.TimePtr(open)
	partial.CloseDate = models.TimePtr(closeDate)
	partial.MinPrice, partial.MaxPrice = parsers.ParsePriceRange(item.PriceRange)

	if listing, ok := parsers.ParseDate(item.ListingDate); ok {
		partial.ListingDate = models.TimePtr(listing)
	}
	if strings.Contains(strings.ToLower(item.Symbol), "sme") {
		partial.Category = models.CategorySME
	}

	batch.Accept(index, partial)
}

// decodeRapidAPIItems accepts either a bare list or an object wrapping the list in "data".
func decodeRapidAPIItems(body []byte) ([]rapidAPIItem, error) {
	var items []rapidAPIItem
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Data []rapidAPIItem `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Data, nil
}
