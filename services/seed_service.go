package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/pipeline"
	"github.com/fenilmodi00/ipo-sync/shared"
)

//go:embed seed/sample_ipos.json
var sampleIPOs []byte

// SeedSource names seeded rows in the source column.
const SeedSource = "seed"

// seedIPO is one entry of the embedded sample file.
type seedIPO struct {
	IPOName     string          `json:"ipo_name"`
	Slug        string          `json:"slug"`
	Category    models.Category `json:"category"`
	OpenDate    string          `json:"open_date"`
	CloseDate   string          `json:"close_date"`
	ListingDate string          `json:"listing_date"`
	MinPrice    *int            `json:"min_price"`
	MaxPrice    *int            `json:"max_price"`
	LotSize     *int            `json:"lot_size"`
	IssueSizeCr *float64        `json:"issue_size_cr"`
	CurrentGMP  *int            `json:"current_gmp"`

	SubscriptionRetail *float64 `json:"subscription_retail"`
	SubscriptionNII    *float64 `json:"subscription_nii"`
	SubscriptionQIB    *float64 `json:"subscription_qib"`
	SubscriptionTotal  *float64 `json:"subscription_total"`
}

// contributions splits the entry the way the sources would have reported it,
// so seeded rows go through the same merge rules as synced ones.
func (s seedIPO) contributions() *pipeline.Contributions {
	dates := &models.Partial{
		Slug:        s.Slug,
		IPOName:     s.IPOName,
		Category:    s.Category,
		MinPrice:    s.MinPrice,
		MaxPrice:    s.MaxPrice,
		LotSize:     s.LotSize,
		IssueSizeCr: s.IssueSizeCr,
		OpenDate:    seedDate(s.OpenDate),
		CloseDate:   seedDate(s.CloseDate),
		ListingDate: seedDate(s.ListingDate),
	}
	c := &pipeline.Contributions{Dates: dates, Sources: []string{SeedSource}}

	if s.CurrentGMP != nil {
		c.GMP = &models.Partial{
			Slug:       s.Slug,
			IPOName:    s.IPOName,
			CurrentGMP: s.CurrentGMP,
			MaxPrice:   s.MaxPrice,
		}
	}
	if s.SubscriptionTotal != nil && *s.SubscriptionTotal > 0 {
		c.Subscription = &models.Partial{
			Slug:               s.Slug,
			SubscriptionRetail: s.SubscriptionRetail,
			SubscriptionNII:    s.SubscriptionNII,
			SubscriptionQIB:    s.SubscriptionQIB,
			SubscriptionTotal:  s.SubscriptionTotal,
		}
	}
	return c
}

func seedDate(text string) *time.Time {
	if text == "" {
		return nil
	}
	if t, ok := parsers.ParseDate(text); ok {
		return &t
	}
	return nil
}

// SeedService loads the embedded sample issues into a sink.
type SeedService struct {
	sink      database.Sink
	merger    *pipeline.Merger
	chunkSize int
	data      []byte
	logger    *logrus.Entry
}

// NewSeedService creates a seeder writing to sink.
func NewSeedService(sink database.Sink, chunkSize int) *SeedService {
	return &SeedService{
		sink:      sink,
		merger:    pipeline.NewMerger(),
		chunkSize: chunkSize,
		data:      sampleIPOs,
		logger:    logrus.WithField("component", "SeedService"),
	}
}

// Records merges the sample issues. Invalid entries are dropped and counted.
func (s *SeedService) Records() ([]*models.IPORecord, int, error) {
	var entries []seedIPO
	if err := json.Unmarshal(s.data, &entries); err != nil {
		return nil, 0, shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeConfigMissing,
			"failed to decode sample data", "SeedService", "Records", false, err)
	}

	collected := make(map[string]*pipeline.Contributions, len(entries))
	for _, entry := range entries {
		slug := entry.Slug
		if slug == "" {
			slug = parsers.Slugify(entry.IPOName)
		}
		entry.Slug = slug
		collected[slug] = entry.contributions()
	}

	records, dropped := s.merger.MergeAll(collected)
	return records, dropped, nil
}

// Seed upserts the sample issues and records their premiums in gmp_history.
// It returns the number of rows upserted.
func (s *SeedService) Seed(ctx context.Context) (int, error) {
	records, dropped, err := s.Records()
	if err != nil {
		return 0, err
	}

	rows := make([]database.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.ToRow())
	}
	if err := database.UpsertChunked(ctx, s.sink, models.IPOTable, rows, models.IPOConflictKey, s.chunkSize); err != nil {
		return 0, shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkUpsertFailed, "SeedService", "Seed", true)
	}

	history := pipeline.HistoryEntries(records)
	historyRows := make([]database.Row, 0, len(history))
	for _, entry := range history {
		historyRows = append(historyRows, entry.ToRow())
	}
	if len(historyRows) > 0 {
		if err := s.sink.Insert(ctx, models.GMPHistoryTable, historyRows); err != nil {
			shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkInsertFailed, "SeedService", "Seed", true).LogWarning()
		}
	}

	s.logger.WithFields(logrus.Fields{
		"upserted": len(rows),
		"dropped":  dropped,
	}).Info(fmt.Sprintf("Seeded %d sample IPOs", len(rows)))
	return len(rows), nil
}
