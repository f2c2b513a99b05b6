package pipeline

import (
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/parsers"
	"github.com/fenilmodi00/ipo-sync/shared"
	"github.com/fenilmodi00/ipo-sync/sources"
)

// Placeholder offsets used when no source reports an offer window.
const (
	placeholderOpenDays  = 30
	placeholderCloseDays = 32
	defaultLotSize       = 1
)

// Contributions is everything the sources reported about one issue, folded to
// at most one partial per kind.
type Contributions struct {
	GMP          *models.Partial
	Subscription *models.Partial
	Dates        *models.Partial
	Sources      []string

	gmpSum      gmpAverage
	kindSources map[models.SourceKind][]string
}

// Links maps, per source kind, a premium key to the key that kind reports the
// same issue under. See Matcher.Align.
type Links map[models.SourceKind]map[string]string

// gmpAverage accumulates premium figures from competing premium sources.
type gmpAverage struct {
	gmp, kostak, sauda    int
	nGMP, nKostak, nSauda int
}

func (a *gmpAverage) add(p *models.Partial) {
	if p.CurrentGMP != nil {
		a.gmp += *p.CurrentGMP
		a.nGMP++
	}
	if p.KostakRate != nil {
		a.kostak += *p.KostakRate
		a.nKostak++
	}
	if p.SubjectToSauda != nil {
		a.sauda += *p.SubjectToSauda
		a.nSauda++
	}
}

func (a *gmpAverage) apply(p *models.Partial) {
	if a.nGMP > 0 {
		p.CurrentGMP = models.IntPtr(a.gmp / a.nGMP)
	}
	if a.nKostak > 0 {
		p.KostakRate = models.IntPtr(a.kostak / a.nKostak)
	}
	if a.nSauda > 0 {
		p.SubjectToSauda = models.IntPtr(a.sauda / a.nSauda)
	}
}

func (c *Contributions) addSource(name string, kind models.SourceKind) {
	if c.kindSources == nil {
		c.kindSources = make(map[models.SourceKind][]string)
	}
	c.kindSources[kind] = appendUnique(c.kindSources[kind], name)
	c.Sources = appendUnique(c.Sources, name)
}

func appendUnique(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}

func (c *Contributions) partial(kind models.SourceKind) *models.Partial {
	switch kind {
	case models.SourceKindGMP:
		return c.GMP
	case models.SourceKindSubscription:
		return c.Subscription
	case models.SourceKindDates:
		return c.Dates
	}
	return nil
}

func (c *Contributions) setPartial(kind models.SourceKind, p *models.Partial) {
	switch kind {
	case models.SourceKindSubscription:
		c.Subscription = p
	case models.SourceKindDates:
		c.Dates = p
	}
}

// borrow copies what donor's kind sources reported onto c. donor keeps its
// own partial and is still merged as a record of its own.
func (c *Contributions) borrow(donor *Contributions, kind models.SourceKind) {
	reported := donor.partial(kind)
	if reported == nil || c.partial(kind) != nil {
		return
	}
	borrowed := *reported
	c.setPartial(kind, &borrowed)
	for _, name := range donor.kindSources[kind] {
		c.addSource(name, kind)
	}
}

// Collect groups every batch's partials by key, so every key seen in the run
// yields one entry. Premium sources that collide are averaged on the premium
// figures and otherwise keep the first reported value; for the other kinds a
// later batch wins field by field. A premium key linked to a differently
// spelled key of another kind then receives a copy of that kind's partial.
func Collect(batches []*sources.Batch, links Links) map[string]*Contributions {
	collected := make(map[string]*Contributions)

	for _, batch := range batches {
		if batch == nil {
			continue
		}
		for key, partial := range batch.Partials {
			c, ok := collected[key]
			if !ok {
				c = &Contributions{}
				collected[key] = c
			}
			c.addSource(batch.Source, batch.Kind)

			switch batch.Kind {
			case models.SourceKindGMP:
				c.gmpSum.add(partial)
				c.GMP = fold(c.GMP, partial, false)
			case models.SourceKindSubscription:
				c.Subscription = fold(c.Subscription, partial, true)
			case models.SourceKindDates:
				c.Dates = fold(c.Dates, partial, true)
			}
		}
	}

	for kind, byAnchor := range links {
		for anchor, key := range byAnchor {
			target, donor := collected[anchor], collected[key]
			if anchor == key || target == nil || donor == nil {
				continue
			}
			target.borrow(donor, kind)
		}
	}

	for _, c := range collected {
		if c.GMP != nil {
			c.gmpSum.apply(c.GMP)
		}
		sort.Strings(c.Sources)
	}
	return collected
}

// fold merges next into a copy of current. Source partials are never mutated.
func fold(current, next *models.Partial, override bool) *models.Partial {
	merged := *next
	if current == nil {
		return &merged
	}

	merged = *current
	opts := []func(*mergo.Config){mergo.WithoutDereference}
	if override {
		opts = append(opts, mergo.WithOverride)
	}
	if err := mergo.Merge(&merged, next, opts...); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "Merger",
			"method":    "fold",
			"slug":      next.Slug,
		}).WithError(err).Warn("Failed to fold partials, keeping the earlier one")
	}
	return &merged
}

// Merger turns per-kind contributions into complete records.
type Merger struct {
	Now func() time.Time
}

// NewMerger returns a merger that reads the wall clock.
func NewMerger() *Merger {
	return &Merger{Now: time.Now}
}

func (m *Merger) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Merge builds the record for one key. The returned error, when not nil, is a
// MANDATORY_FIELD_MISSING ServiceError and the record must not be stored.
func (m *Merger) Merge(slug string, c *Contributions) (*models.IPORecord, error) {
	now := m.now()
	today := parsers.Today(now)

	overlay := &models.Partial{}
	for _, layer := range []*models.Partial{c.GMP, c.Subscription, c.Dates} {
		if layer == nil {
			continue
		}
		if err := mergo.Merge(overlay, layer, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeMandatoryFieldMissing,
				"failed to overlay contributions", "Merger", "Merge", false, err)
		}
	}

	record := &models.IPORecord{
		Slug:        slug,
		IPOName:     recordName(slug, c),
		Category:    models.CategoryMainboard,
		LotSize:     defaultLotSize,
		MinPrice:    overlay.MinPrice,
		MaxPrice:    overlay.MaxPrice,
		IssueSizeCr: overlay.IssueSizeCr,

		CurrentGMP:     overlay.CurrentGMP,
		GMPPercentage:  overlay.GMPPercentage,
		KostakRate:     overlay.KostakRate,
		SubjectToSauda: overlay.SubjectToSauda,

		SubscriptionRetail: valueOr(overlay.SubscriptionRetail),
		SubscriptionNII:    valueOr(overlay.SubscriptionNII),
		SubscriptionBNII:   valueOr(overlay.SubscriptionBNII),
		SubscriptionQIB:    valueOr(overlay.SubscriptionQIB),
		SubscriptionTotal:  valueOr(overlay.SubscriptionTotal),

		UpdatedAt: now,
		Source:    strings.Join(c.Sources, ","),
	}
	record.CompanyName = parsers.CompanyNameFromIPOName(record.IPOName)

	if overlay.Category != "" {
		record.Category = overlay.Category
	}
	if overlay.LotSize != nil {
		record.LotSize = *overlay.LotSize
	}

	if overlay.HasDateRange() {
		record.OpenDate = parsers.FormatDate(*overlay.OpenDate)
		record.CloseDate = parsers.FormatDate(*overlay.CloseDate)
		if overlay.ListingDate != nil {
			record.ListingDate = parsers.FormatDate(*overlay.ListingDate)
		}
		record.Status = DeriveStatus(*overlay.OpenDate, *overlay.CloseDate, overlay.ListingDate, reportedListed(c), today)
	} else {
		record.OpenDate = parsers.FormatDate(today.AddDate(0, 0, placeholderOpenDays))
		record.CloseDate = parsers.FormatDate(today.AddDate(0, 0, placeholderCloseDays))
		record.Status = models.StatusUpcoming
	}

	applyDerivedPricing(record)

	if c.GMP != nil {
		record.GMPUpdatedAt = models.TimePtr(now)
	}
	if c.Subscription != nil {
		record.SubscriptionUpdatedAt = models.TimePtr(now)
	}

	return record, Validate(record)
}

// recordName prefers the premium table's name, then the calendar's.
func recordName(slug string, c *Contributions) string {
	for _, p := range []*models.Partial{c.GMP, c.Dates} {
		if p != nil && p.IPOName != "" {
			return p.IPOName
		}
	}
	return parsers.TitleFromSlug(slug) + " IPO"
}

func reportedListed(c *Contributions) bool {
	for _, p := range []*models.Partial{c.GMP, c.Subscription, c.Dates} {
		if p != nil && p.Status == models.StatusListed {
			return true
		}
	}
	return false
}

// DeriveStatus places an issue in its lifecycle relative to today. The offer
// window is inclusive on both ends.
func DeriveStatus(open, closeDate time.Time, listing *time.Time, reportedListed bool, today time.Time) models.Status {
	switch {
	case today.Before(open):
		return models.StatusUpcoming
	case !today.After(closeDate):
		return models.StatusOpen
	case reportedListed, listing != nil && !listing.After(today):
		return models.StatusListed
	default:
		return models.StatusClosed
	}
}

func applyDerivedPricing(record *models.IPORecord) {
	issue, ok := record.IssuePrice()
	if !ok || record.CurrentGMP == nil {
		return
	}

	gmp := *record.CurrentGMP
	record.ExpectedListingPrice = models.IntPtr(issue + gmp)

	if record.GMPPercentage == nil {
		pct, _ := decimal.NewFromInt(int64(gmp)).
			Div(decimal.NewFromInt(int64(issue))).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			Float64()
		record.GMPPercentage = models.FloatPtr(pct)
	}
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Validate rejects records that would violate the ipos table constraints.
func Validate(record *models.IPORecord) error {
	missing := record.MissingMandatoryFields()
	if len(missing) == 0 {
		return nil
	}
	return shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeMandatoryFieldMissing,
		"record is missing mandatory fields: "+strings.Join(missing, ", "), "Merger", "Validate", false, nil).
		WithDetails(map[string]interface{}{"slug": record.Slug, "missing": missing})
}

// MergeAll merges every key and returns the valid records sorted by slug
// together with the number dropped for missing mandatory fields.
func (m *Merger) MergeAll(collected map[string]*Contributions) ([]*models.IPORecord, int) {
	keys := make([]string, 0, len(collected))
	for key := range collected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]*models.IPORecord, 0, len(keys))
	var dropErrors []error
	for _, key := range keys {
		record, err := m.Merge(key, collected[key])
		if err != nil {
			if serviceErr, ok := err.(*shared.ServiceError); ok {
				serviceErr.LogWarning()
			} else {
				logrus.WithError(err).WithField("slug", key).Warn("Dropping record")
			}
			dropErrors = append(dropErrors, err)
			continue
		}
		records = append(records, record)
	}

	if len(dropErrors) > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "Merger",
			"method":    "MergeAll",
		}).Warn(shared.BuildBatchProcessingErrorSummary(len(records), len(dropErrors), dropErrors))
	}
	return records, len(dropErrors)
}
