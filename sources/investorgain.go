package sources

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
)

const (
	investorGainURL    = "https://www.investorgain.com/report/live-ipo-gmp/331/all/"
	investorGainRowCap = 50
	investorGainTable  = "#report_table"
)

// Name cells carry exchange and lifecycle markers after the company name,
// e.g. "Acme Solar IPO BSE SME O".
var investorGainMarkers = regexp.MustCompile(`(?i)\s+(BSE|NSE)(\s+SME)?(\s+[UOC])?$`)

// renderFunc returns the outer HTML of the report table once scripts have run.
type renderFunc func(ctx context.Context, url string) (string, error)

// InvestorGainAdapter reads the live premium table on investorgain.com, which
// is filled in by JavaScript and so is rendered in headless Chrome.
type InvestorGainAdapter struct {
	limiter *shared.HTTPRequestRateLimiter
	url     string
	render  renderFunc
}

func NewInvestorGainAdapter(limiter *shared.HTTPRequestRateLimiter, timeout time.Duration) *InvestorGainAdapter {
	return &InvestorGainAdapter{
		limiter: limiter,
		url:     investorGainURL,
		render:  chromeRenderer(timeout),
	}
}

func (a *InvestorGainAdapter) Name() string { return "investorgain" }

func (a *InvestorGainAdapter) Kind() models.SourceKind { return models.SourceKindGMP }

func (a *InvestorGainAdapter) Fetch(ctx context.Context) (*Batch, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	html, err := a.render(ctx, a.url)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeFetchFailed,
			"headless render failed", a.Name(), "Fetch", true, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeFetchFailed,
			"rendered table is not parseable", a.Name(), "Fetch", false, err)
	}
	return a.parse(doc)
}

func (a *InvestorGainAdapter) parse(doc *goquery.Document) (*Batch, error) {
	table := doc.Find(investorGainTable)
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, tableNotFound(a.Name(), investorGainTable)
	}

	batch := NewBatch(a.Name(), a.Kind())
	index := 0
	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if index >= investorGainRowCap {
			return false
		}
		defer func() { index++ }()

		cells := cellTexts(row)
		if len(cells) < 2 {
			batch.Skip(index, "", ReasonMissingColumns)
			return true
		}

		rawName := cells[0]
		partial, reason := newPartial(investorGainMarkers.ReplaceAllString(rawName, ""))
		if reason != "" {
			batch.Skip(index, rawName, reason)
			return true
		}
		if strings.Contains(strings.ToUpper(rawName), "SME") {
			partial.Category = models.CategorySME
		}

		amount, ok := parsers.ParseNumber(cells[1])
		if !ok {
			batch.Skip(index, rawName, ReasonUnparseableValue)
			return true
		}
		_, pct := parsers.ParseGMP(cells[1])
		partial.CurrentGMP = models.IntPtr(int(amount))
		partial.GMPPercentage = pct

		batch.Accept(index, partial)
		return true
	})
	return batch, nil
}

func chromeRenderer(timeout time.Duration) renderFunc {
	return func(ctx context.Context, url string) (string, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-images", true),
			chromedp.Flag("mute-audio", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.UserAgent(shared.BrowserUserAgent),
		)

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
		defer cancelAlloc()

		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 2*timeout)
		defer cancelTimeout()

		var html string
		err := chromedp.Run(browserCtx,
			chromedp.EmulateViewport(1920, 1080),
			chromedp.Navigate(url),
			chromedp.WaitVisible(investorGainTable+" tbody tr", chromedp.ByQuery),
			chromedp.OuterHTML(investorGainTable, &html, chromedp.ByQuery),
		)
		if err != nil {
			return "", err
		}

		logrus.WithFields(logrus.Fields{
			"component": "InvestorGainAdapter",
			"bytes":     len(html),
		}).Debug("Rendered report table")
		return html, nil
	}
}
