package models

import "time"

// SourceKind groups adapters by the field set they contribute. Adapters of the
// same kind compete for the same fields; different kinds overlay each other.
type SourceKind string

const (
	SourceKindGMP          SourceKind = "gmp"
	SourceKindSubscription SourceKind = "subscription"
	SourceKindDates        SourceKind = "dates"
)

// Partial is what a single source knows about one issue. Every optional field
// is a pointer so that "not reported" stays distinct from zero.
type Partial struct {
	Slug     string
	IPOName  string
	Category Category
	Status   Status

	OpenDate    *time.Time
	CloseDate   *time.Time
	ListingDate *time.Time

	MinPrice    *int
	MaxPrice    *int
	LotSize     *int
	IssueSizeCr *float64

	CurrentGMP     *int
	GMPPercentage  *float64
	KostakRate     *int
	SubjectToSauda *int

	SubscriptionRetail *float64
	SubscriptionNII    *float64
	SubscriptionBNII   *float64
	SubscriptionQIB    *float64
	SubscriptionTotal  *float64
}

// HasDateRange reports whether both ends of the offer window are known.
func (p *Partial) HasDateRange() bool {
	return p.OpenDate != nil && p.CloseDate != nil
}

// IntPtr and FloatPtr keep adapter code terse.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
