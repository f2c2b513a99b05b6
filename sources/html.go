package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// fetchBody issues a politeness-delayed GET and returns the body of a 2xx response.
func fetchBody(ctx context.Context, client *resty.Client, limiter *shared.HTTPRequestRateLimiter, source, url string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, shared.NewServiceError(shared.ErrorCategoryTimeout, shared.CodeFetchFailed,
				"politeness wait interrupted", source, "Fetch", true, err)
		}
	}

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeFetchFailed,
			fmt.Sprintf("request to %s failed", url), source, "Fetch", true, err)
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeBadStatus,
			fmt.Sprintf("%s answered HTTP %d", url, resp.StatusCode()), source, "Fetch", resp.StatusCode() >= 500, nil).
			WithDetails(map[string]interface{}{"status_code": resp.StatusCode()})
	}
	return resp.Body(), nil
}

func fetchDocument(ctx context.Context, client *resty.Client, limiter *shared.HTTPRequestRateLimiter, source, url string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, client, limiter, source, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeFetchFailed,
			"response is not parseable HTML", source, "Fetch", false, err)
	}
	return doc, nil
}

func tableNotFound(source, selector string) error {
	return shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeTableNotFound,
		fmt.Sprintf("no table matching %q", selector), source, "Fetch", false, nil)
}

// tableContaining returns the first table whose text holds every keyword.
func tableContaining(doc *goquery.Document, keywords ...string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		text := strings.ToLower(table.Text())
		for _, keyword := range keywords {
			if !strings.Contains(text, keyword) {
				return true
			}
		}
		found = table
		return false
	})
	return found
}

// dataRows returns the rows after the header, capped at limit.
func dataRows(table *goquery.Selection, limit int) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 || len(rows) >= limit {
			return
		}
		rows = append(rows, row)
	})
	return rows
}

func cellTexts(row *goquery.Selection) []string {
	cells := row.Find("td")
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, parsers.CleanText(cell.Text()))
	})
	return texts
}

// newPartial derives the slug from a display name. The returned reason is
// non-empty when the name cannot serve as a key.
func newPartial(name string) (*models.Partial, string) {
	name = parsers.CleanText(name)
	if name == "" {
		return nil, ReasonEmptyName
	}
	slug := parsers.Slugify(name)
	if slug == "" {
		return nil, ReasonEmptySlug
	}

	partial := &models.Partial{Slug: slug, IPOName: name}
	if strings.Contains(name, "SME") {
		partial.Category = models.CategorySME
	}
	return partial, ""
}

func intValue(text string) *int {
	value, ok := parsers.ParseNumber(text)
	if !ok {
		return nil
	}
	return models.IntPtr(int(value))
}

func floatValue(text string) *float64 {
	value, ok := parsers.ParseNumber(text)
	if !ok {
		return nil
	}
	return models.FloatPtr(value)
}
