package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"strings"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
)

const (
	nseBaseURL     = "https://www.nseindia.com"
	nseCurrentPath = "/api/ipo-current-issues"
	nseRowCap      = 100
)

// NSE encodes numbers as either strings or JSON numbers depending on the field.
type nseValue string

func (v *nseValue) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = nseValue(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*v = nseValue(number.String())
	return nil
}

type nseIssue struct {
	CompanyName    string   `json:"companyName"`
	Symbol         string   `json:"symbol"`
	Series         string   `json:"series"`
	IssueSize      nseValue `json:"issueSize"`
	PriceRangeMin  nseValue `json:"priceRangeMin"`
	PriceRangeMax  nseValue `json:"priceRangeMax"`
	LotSize        nseValue `json:"lotSize"`
	IssueStartDate string   `json:"issueStartDate"`
	IssueEndDate   string   `json:"issueEndDate"`
	ListingDate    string   `json:"listingDate"`
	Status         string   `json:"status"`
}

// NSEAdapter reads current issues from the exchange API. The API only answers
// sessions that already hold the cookies set by the home page.
type NSEAdapter struct {
	client  *resty.Client
	limiter *shared.HTTPRequestRateLimiter
	baseURL string
}

// NewNSEAdapter wraps the client transport for the exchange's bot protection
// and gives it a cookie jar for the warm-up request.
func NewNSEAdapter(client *resty.Client, limiter *shared.HTTPRequestRateLimiter) *NSEAdapter {
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("Referer", nseBaseURL+"/market-data/all-upcoming-issues-ipo")

	return &NSEAdapter{client: client, limiter: limiter, baseURL: nseBaseURL}
}

func (a *NSEAdapter) Name() string { return "nse" }

func (a *NSEAdapter) Kind() models.SourceKind { return models.SourceKindDates }

func (a *NSEAdapter) Fetch(ctx context.Context) (*Batch, error) {
	if _, err := fetchBody(ctx, a.client, a.limiter, a.Name(), a.baseURL); err != nil {
		return nil, err
	}

	body, err := fetchBody(ctx, a.client, a.limiter, a.Name(), a.baseURL+nseCurrentPath)
	if err != nil {
		return nil, err
	}

	issues, err := decodeNSEIssues(body)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeFetchFailed,
			"unexpected response shape", a.Name(), "Fetch", false, err)
	}

	batch := NewBatch(a.Name(), a.Kind())
	for i, issue := range issues {
		if i >= nseRowCap {
			break
		}
		a.parseIssue(batch, i, issue)
	}
	return batch, nil
}

func (a *NSEAdapter) parseIssue(batch *Batch, index int, issue nseIssue) {
	partial, reason := newPartial(issue.CompanyName)
	if reason != "" {
		batch.Skip(index, issue.CompanyName, reason)
		return
	}
	partial.IPOName = fmt.Sprintf("%s IPO", partial.IPOName)

	open, openOK := parsers.ParseDate(issue.IssueStartDate)
	closeDate, closeOK := parsers.ParseDate(issue.IssueEndDate)
	if !openOK || !closeOK {
		batch.Skip(index, issue.CompanyName, ReasonMissingDateRange)
		return
	}
	partial.OpenDate = models.TimePtr(open)
	partial.CloseDate = models.TimePtr(closeDate)

	if listing, ok := parsers.ParseDate(issue.ListingDate); ok {
		partial.ListingDate = models.TimePtr(listing)
	}
	partial.MinPrice = intValue(string(issue.PriceRangeMin))
	partial.MaxPrice = intValue(string(issue.PriceRangeMax))
	partial.LotSize = intValue(string(issue.LotSize))
	partial.IssueSizeCr = floatValue(string(issue.IssueSize))
	if strings.EqualFold(issue.Series, "SME") {
		partial.Category = models.CategorySME
	}

	batch.Accept(index, partial)
}

func decodeNSEIssues(body []byte) ([]nseIssue, error) {
	var issues []nseIssue
	if err := json.Unmarshal(body, &issues); err == nil {
		return issues, nil
	}

	var wrapped struct {
		Data []nseIssue `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Data, nil
}
