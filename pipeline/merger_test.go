package pipeline

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
	"github.com/fenilmodi00/ipo-sync/sources"
)

var fixedNow = time.Date(2026, 1, 12, 10, 30, 0, 0, time.UTC)

func day(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func batchOf(source string, kind models.SourceKind, partials ...*models.Partial) *sources.Batch {
	batch := sources.NewBatch(source, kind)
	for i, p := range partials {
		batch.Accept(i, p)
	}
	return batch
}

func fixedMerger() *Merger {
	return &Merger{Now: func() time.Time { return fixedNow }}
}

func TestCollectAveragesCompetingPremiums(t *testing.T) {
	first := &models.Partial{Slug: "acme-solar", IPOName: "Acme Solar IPO", CurrentGMP: models.IntPtr(100), KostakRate: models.IntPtr(300)}
	second := &models.Partial{Slug: "acme-solar", IPOName: "Acme Solar Holdings IPO", CurrentGMP: models.IntPtr(140), MaxPrice: models.IntPtr(270)}

	collected := Collect([]*sources.Batch{
		batchOf("ipowatch", models.SourceKindGMP, first),
		batchOf("chittorgarh_gmp", models.SourceKindGMP, second),
	}, nil)

	c := collected["acme-solar"]
	require.NotNil(t, c)
	assert.Equal(t, 120, *c.GMP.CurrentGMP)
	assert.Equal(t, 300, *c.GMP.KostakRate)
	assert.Equal(t, 270, *c.GMP.MaxPrice)
	assert.Equal(t, "Acme Solar IPO", c.GMP.IPOName)
	assert.Equal(t, []string{"chittorgarh_gmp", "ipowatch"}, c.Sources)

	// inputs are left untouched
	assert.Equal(t, 100, *first.CurrentGMP)
	assert.Nil(t, first.MaxPrice)
}

func TestCollectLaterNonPremiumBatchWins(t *testing.T) {
	collected := Collect([]*sources.Batch{
		batchOf("rapidapi", models.SourceKindDates, &models.Partial{Slug: "zepto", LotSize: models.IntPtr(30), MinPrice: models.IntPtr(400)}),
		batchOf("nse", models.SourceKindDates, &models.Partial{Slug: "zepto", LotSize: models.IntPtr(33)}),
	}, nil)

	dates := collected["zepto"].Dates
	assert.Equal(t, 33, *dates.LotSize)
	assert.Equal(t, 400, *dates.MinPrice)
}

func TestCollectCopiesLinkedPartial(t *testing.T) {
	dashboard := &models.Partial{Slug: "tata-technologies", IPOName: "Tata Technologies IPO", LotSize: models.IntPtr(30)}
	collected := Collect([]*sources.Batch{
		batchOf("ipowatch", models.SourceKindGMP, &models.Partial{Slug: "tata-tech", CurrentGMP: models.IntPtr(485)}),
		batchOf("chittorgarh_subscription", models.SourceKindSubscription, &models.Partial{Slug: "tata-technologies", SubscriptionTotal: models.FloatPtr(69.4)}),
		batchOf("chittorgarh_dashboard", models.SourceKindDates, dashboard),
	}, Links{models.SourceKindDates: {"tata-tech": "tata-technologies"}})

	require.Len(t, collected, 2)

	tata := collected["tata-tech"]
	require.NotNil(t, tata.Dates)
	assert.NotNil(t, tata.GMP)
	assert.Nil(t, tata.Subscription)
	assert.Equal(t, 30, *tata.Dates.LotSize)
	assert.Equal(t, []string{"chittorgarh_dashboard", "ipowatch"}, tata.Sources)

	technologies := collected["tata-technologies"]
	require.NotNil(t, technologies.Dates)
	assert.NotNil(t, technologies.Subscription)
	assert.NotSame(t, technologies.Dates, tata.Dates)
	assert.Equal(t, []string{"chittorgarh_dashboard", "chittorgarh_subscription"}, technologies.Sources)
}

func TestCollectKeepsEverySlug(t *testing.T) {
	collected := Collect([]*sources.Batch{
		batchOf("ipowatch", models.SourceKindGMP, &models.Partial{Slug: "alpha-industries", CurrentGMP: models.IntPtr(12)}),
		batchOf("chittorgarh_dashboard", models.SourceKindDates, &models.Partial{Slug: "beta-industries", LotSize: models.IntPtr(100)}),
	}, Links{models.SourceKindDates: {"alpha-industries": "beta-industries"}})

	require.Len(t, collected, 2)
	assert.Nil(t, collected["beta-industries"].GMP)
	assert.Equal(t, 100, *collected["beta-industries"].Dates.LotSize)
}

func TestCollectAverageProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("two premium sources average with truncation", prop.ForAll(
		func(a, b int) bool {
			collected := Collect([]*sources.Batch{
				batchOf("one", models.SourceKindGMP, &models.Partial{Slug: "x", CurrentGMP: models.IntPtr(a)}),
				batchOf("two", models.SourceKindGMP, &models.Partial{Slug: "x", CurrentGMP: models.IntPtr(b)}),
			}, nil)
			return *collected["x"].GMP.CurrentGMP == (a+b)/2
		},
		gen.IntRange(-500, 2000),
		gen.IntRange(-500, 2000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMergeCompleteRecord(t *testing.T) {
	collected := Collect([]*sources.Batch{
		batchOf("ipowatch", models.SourceKindGMP, &models.Partial{
			Slug: "acme-solar", IPOName: "Acme Solar IPO",
			CurrentGMP: models.IntPtr(50), GMPPercentage: models.FloatPtr(18.52), MaxPrice: models.IntPtr(280),
		}),
		batchOf("chittorgarh_subscription", models.SourceKindSubscription, &models.Partial{
			Slug: "acme-solar", SubscriptionRetail: models.FloatPtr(3.2), SubscriptionTotal: models.FloatPtr(2.9),
		}),
		batchOf("chittorgarh_dashboard", models.SourceKindDates, &models.Partial{
			Slug: "acme-solar", IPOName: "Acme Solar Holdings IPO",
			OpenDate: day("2026-01-10"), CloseDate: day("2026-01-14"),
			MinPrice: models.IntPtr(256), MaxPrice: models.IntPtr(270), LotSize: models.IntPtr(55),
		}),
	}, nil)

	record, err := fixedMerger().Merge("acme-solar", collected["acme-solar"])
	require.NoError(t, err)

	assert.Equal(t, "Acme Solar IPO", record.IPOName)
	assert.Equal(t, "Acme Solar", record.CompanyName)
	assert.Equal(t, models.StatusOpen, record.Status)
	assert.Equal(t, models.CategoryMainboard, record.Category)
	assert.Equal(t, "2026-01-10", record.OpenDate)
	assert.Equal(t, "2026-01-14", record.CloseDate)
	assert.Equal(t, 270, *record.MaxPrice)
	assert.Equal(t, 55, record.LotSize)
	assert.Equal(t, 320, *record.ExpectedListingPrice)
	assert.Equal(t, 18.52, *record.GMPPercentage)
	assert.Equal(t, 3.2, record.SubscriptionRetail)
	assert.Equal(t, 0.0, record.SubscriptionQIB)
	assert.Equal(t, "chittorgarh_dashboard,chittorgarh_subscription,ipowatch", record.Source)
	require.NotNil(t, record.GMPUpdatedAt)
	require.NotNil(t, record.SubscriptionUpdatedAt)
	assert.Equal(t, fixedNow, *record.GMPUpdatedAt)
}

func TestMergeWithoutDatesUsesPlaceholders(t *testing.T) {
	c := &Contributions{
		GMP:     &models.Partial{Slug: "zepto", CurrentGMP: models.IntPtr(120)},
		Sources: []string{"ipowatch"},
	}

	record, err := fixedMerger().Merge("zepto", c)
	require.NoError(t, err)

	assert.Equal(t, "Zepto IPO", record.IPOName)
	assert.Equal(t, "2026-02-11", record.OpenDate)
	assert.Equal(t, "2026-02-13", record.CloseDate)
	assert.Equal(t, models.StatusUpcoming, record.Status)
	assert.Equal(t, 1, record.LotSize)
	assert.Nil(t, record.ExpectedListingPrice)
	assert.Nil(t, record.SubscriptionUpdatedAt)
}

func TestMergeDerivesPercentage(t *testing.T) {
	c := &Contributions{
		GMP: &models.Partial{Slug: "acme-solar", CurrentGMP: models.IntPtr(40), MaxPrice: models.IntPtr(270)},
	}

	record, err := fixedMerger().Merge("acme-solar", c)
	require.NoError(t, err)
	assert.Equal(t, 14.81, *record.GMPPercentage)
	assert.Equal(t, 310, *record.ExpectedListingPrice)
}

func TestMergeKeepsSMECategory(t *testing.T) {
	c := &Contributions{
		GMP:   &models.Partial{Slug: "hipolin", Category: models.CategorySME, CurrentGMP: models.IntPtr(10)},
		Dates: &models.Partial{Slug: "hipolin", OpenDate: day("2026-01-02"), CloseDate: day("2026-01-06")},
	}

	record, err := fixedMerger().Merge("hipolin", c)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySME, record.Category)
	assert.Equal(t, models.StatusClosed, record.Status)
}

func TestMergeRejectsZeroLotSize(t *testing.T) {
	c := &Contributions{
		Dates: &models.Partial{Slug: "broken", LotSize: models.IntPtr(0), OpenDate: day("2026-01-10"), CloseDate: day("2026-01-14")},
	}

	_, err := fixedMerger().Merge("broken", c)
	require.Error(t, err)
	assert.Equal(t, shared.CodeMandatoryFieldMissing, shared.CodeOf(err))
	assert.Contains(t, err.Error(), "lot_size")
}

func TestMergeAllDropsInvalidRecords(t *testing.T) {
	collected := map[string]*Contributions{
		"zepto":  {GMP: &models.Partial{Slug: "zepto", CurrentGMP: models.IntPtr(120)}},
		"broken": {Dates: &models.Partial{Slug: "broken", LotSize: models.IntPtr(-3)}},
		"acme":   {Dates: &models.Partial{Slug: "acme", LotSize: models.IntPtr(55)}},
	}

	records, dropped := fixedMerger().MergeAll(collected)
	assert.Equal(t, 1, dropped)
	require.Len(t, records, 2)
	assert.Equal(t, "acme", records[0].Slug)
	assert.Equal(t, "zepto", records[1].Slug)
}

func TestDeriveStatus(t *testing.T) {
	open, closeDate := *day("2026-01-10"), *day("2026-01-14")

	tests := []struct {
		name     string
		today    string
		listing  *time.Time
		reported bool
		want     models.Status
	}{
		{"before the window", "2026-01-09", nil, false, models.StatusUpcoming},
		{"opening day", "2026-01-10", nil, false, models.StatusOpen},
		{"closing day", "2026-01-14", nil, false, models.StatusOpen},
		{"after close without listing", "2026-01-15", nil, false, models.StatusClosed},
		{"after close with future listing", "2026-01-15", day("2026-01-19"), false, models.StatusClosed},
		{"on listing day", "2026-01-19", day("2026-01-19"), false, models.StatusListed},
		{"source reports listed", "2026-01-15", nil, true, models.StatusListed},
		{"reported listed but still open", "2026-01-12", nil, true, models.StatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(open, closeDate, tt.listing, tt.reported, *day(tt.today))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	record := &models.IPORecord{Slug: "acme", IPOName: "Acme IPO", Status: models.StatusOpen, Category: models.CategorySME, LotSize: 10}
	assert.NoError(t, Validate(record))

	record.Category = "Other"
	record.IPOName = ""
	err := Validate(record)
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	details := serviceErr.Details.(map[string]interface{})
	assert.Equal(t, []string{"ipo_name", "category"}, details["missing"])
}
