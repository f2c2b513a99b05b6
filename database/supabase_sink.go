package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// SupabaseSink writes through the PostgREST endpoint of a Supabase project.
type SupabaseSink struct {
	client  *resty.Client
	baseURL string
}

// NewSupabaseSink authenticates every request with key, which should be the
// service-role key: the anon key is rejected by row-level security on writes.
func NewSupabaseSink(projectURL, key string, client *resty.Client) *SupabaseSink {
	client.SetHeaders(map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
		"Content-Type":  "application/json",
	})
	return &SupabaseSink{
		client:  client,
		baseURL: strings.TrimSuffix(projectURL, "/") + "/rest/v1/",
	}
}

func (s *SupabaseSink) Upsert(ctx context.Context, table string, rows []Row, conflictKey string) error {
	return s.post(ctx, table, rows, conflictKey, shared.CodeSinkUpsertFailed, "Upsert")
}

func (s *SupabaseSink) Insert(ctx context.Context, table string, rows []Row) error {
	return s.post(ctx, table, rows, "", shared.CodeSinkInsertFailed, "Insert")
}

// post sends one request per column group; PostgREST requires every object in
// a bulk body to carry the same keys.
func (s *SupabaseSink) post(ctx context.Context, table string, rows []Row, conflictKey, code, operation string) error {
	prefer := "return=minimal"
	if conflictKey != "" {
		prefer = "resolution=merge-duplicates,return=minimal"
	}

	for _, group := range groupByColumns(rows) {
		req := s.client.R().
			SetContext(ctx).
			SetHeader("Prefer", prefer).
			SetBody(group.rows)
		if conflictKey != "" {
			req.SetQueryParam("on_conflict", conflictKey)
		}

		resp, err := req.Post(s.baseURL + table)
		if err != nil {
			return shared.NewServiceError(shared.ErrorCategoryNetwork, code,
				"request to supabase failed", "SupabaseSink", operation, true, err)
		}
		if resp.IsError() {
			return shared.NewServiceError(shared.ErrorCategoryDatabase, code,
				fmt.Sprintf("supabase rejected %d rows for %s with HTTP %d", len(group.rows), table, resp.StatusCode()),
				"SupabaseSink", operation, resp.StatusCode() >= http.StatusInternalServerError, nil).
				WithDetails(map[string]interface{}{
					"status_code": resp.StatusCode(),
					"response":    truncate(resp.String(), 500),
				})
		}
	}

	logrus.WithFields(logrus.Fields{
		"component": "SupabaseSink",
		"method":    operation,
		"table":     table,
		"rows":      len(rows),
	}).Debug("Rows written")
	return nil
}

// Ping reads at most one slug from ipos.
func (s *SupabaseSink) Ping(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"select": "slug", "limit": "1"}).
		Get(s.baseURL + models.IPOTable)
	if err != nil {
		return fmt.Errorf("supabase unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("supabase answered HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	return nil
}

func (s *SupabaseSink) Close() error { return nil }

// GetIPO reads one merged record by slug.
func (s *SupabaseSink) GetIPO(ctx context.Context, slug string) (*models.IPORecord, error) {
	var records []models.IPORecord
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": "*",
			"slug":   "eq." + slug,
			"limit":  "1",
		}).
		SetResult(&records).
		Get(s.baseURL + models.IPOTable)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeSinkReadFailed,
			"request to supabase failed", "SupabaseSink", "GetIPO", true, err)
	}
	if resp.IsError() {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeSinkReadFailed,
			fmt.Sprintf("supabase answered HTTP %d", resp.StatusCode()), "SupabaseSink", "GetIPO", false, nil)
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return &records[0], nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
