package models

import (
	"time"
)

// Category is the listing board of an issue.
type Category string

const (
	CategoryMainboard Category = "Mainboard"
	CategorySME       Category = "SME"
)

// Valid reports whether c is one of the known boards.
func (c Category) Valid() bool {
	return c == CategoryMainboard || c == CategorySME
}

// Status is the lifecycle stage of an issue, always recomputed from its dates.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusListed   Status = "listed"
)

// Valid reports whether s is one of the lifecycle stages.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOpen, StatusClosed, StatusListed:
		return true
	}
	return false
}

// Table names and the conflict key used by the sink.
const (
	IPOTable         = "ipos"
	GMPHistoryTable  = "gmp_history"
	ShareholderTable = "shareholder_intel"
	IPOConflictKey   = "slug"
)

// IPORecord is one fully merged row of the ipos table. Dates are held in the
// canonical YYYY-MM-DD form.
type IPORecord struct {
	// Identity
	IPOName     string `json:"ipo_name"`
	CompanyName string `json:"company_name"`
	Slug        string `json:"slug"`

	// Classification and lifecycle
	Category    Category `json:"category"`
	Status      Status   `json:"status"`
	OpenDate    string   `json:"open_date,omitempty"`
	CloseDate   string   `json:"close_date,omitempty"`
	ListingDate string   `json:"listing_date,omitempty"`

	// Pricing
	MinPrice    *int     `json:"min_price,omitempty"`
	MaxPrice    *int     `json:"max_price,omitempty"`
	LotSize     int      `json:"lot_size"`
	IssueSizeCr *float64 `json:"issue_size_cr,omitempty"`

	// Grey market
	CurrentGMP           *int     `json:"current_gmp,omitempty"`
	GMPPercentage        *float64 `json:"gmp_percentage,omitempty"`
	ExpectedListingPrice *int     `json:"expected_listing_price,omitempty"`
	KostakRate           *int     `json:"kostak_rate,omitempty"`
	SubjectToSauda       *int     `json:"subject_to_sauda,omitempty"`

	// Demand
	SubscriptionRetail float64 `json:"subscription_retail"`
	SubscriptionNII    float64 `json:"subscription_nii"`
	SubscriptionBNII   float64 `json:"subscription_bnii"`
	SubscriptionQIB    float64 `json:"subscription_qib"`
	SubscriptionTotal  float64 `json:"subscription_total"`

	// Provenance
	GMPUpdatedAt          *time.Time `json:"gmp_updated_at,omitempty"`
	SubscriptionUpdatedAt *time.Time `json:"subscription_updated_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
	Source                string     `json:"source,omitempty"`
}

// IssuePrice is the upper end of the price band, or the lower end when only
// that is known.
func (r *IPORecord) IssuePrice() (int, bool) {
	if r.MaxPrice != nil && *r.MaxPrice > 0 {
		return *r.MaxPrice, true
	}
	if r.MinPrice != nil && *r.MinPrice > 0 {
		return *r.MinPrice, true
	}
	return 0, false
}

// MissingMandatoryFields lists the columns the ipos table cannot accept empty.
func (r *IPORecord) MissingMandatoryFields() []string {
	var missing []string
	if r.Slug == "" {
		missing = append(missing, "slug")
	}
	if r.IPOName == "" {
		missing = append(missing, "ipo_name")
	}
	if !r.Status.Valid() {
		missing = append(missing, "status")
	}
	if r.LotSize <= 0 {
		missing = append(missing, "lot_size")
	}
	if !r.Category.Valid() {
		missing = append(missing, "category")
	}
	return missing
}

// ToRow flattens the record into sink primitives. Nil optionals are left out
// so that an upsert never clears a value stored by an earlier run.
func (r *IPORecord) ToRow() map[string]interface{} {
	row := map[string]interface{}{
		"ipo_name":            r.IPOName,
		"company_name":        r.CompanyName,
		"slug":                r.Slug,
		"category":            string(r.Category),
		"status":              string(r.Status),
		"lot_size":            r.LotSize,
		"subscription_retail": r.SubscriptionRetail,
		"subscription_nii":    r.SubscriptionNII,
		"subscription_bnii":   r.SubscriptionBNII,
		"subscription_qib":    r.SubscriptionQIB,
		"subscription_total":  r.SubscriptionTotal,
		"updated_at":          r.UpdatedAt.UTC().Format(time.RFC3339),
	}

	putString(row, "open_date", r.OpenDate)
	putString(row, "close_date", r.CloseDate)
	putString(row, "listing_date", r.ListingDate)
	putString(row, "source", r.Source)
	putInt(row, "min_price", r.MinPrice)
	putInt(row, "max_price", r.MaxPrice)
	putInt(row, "current_gmp", r.CurrentGMP)
	putInt(row, "expected_listing_price", r.ExpectedListingPrice)
	putInt(row, "kostak_rate", r.KostakRate)
	putInt(row, "subject_to_sauda", r.SubjectToSauda)
	putFloat(row, "issue_size_cr", r.IssueSizeCr)
	putFloat(row, "gmp_percentage", r.GMPPercentage)
	putTime(row, "gmp_updated_at", r.GMPUpdatedAt)
	putTime(row, "subscription_updated_at", r.SubscriptionUpdatedAt)

	return row
}

func putString(row map[string]interface{}, key, value string) {
	if value != "" {
		row[key] = value
	}
}

func putInt(row map[string]interface{}, key string, value *int) {
	if value != nil {
		row[key] = *value
	}
}

func putFloat(row map[string]interface{}, key string, value *float64) {
	if value != nil {
		row[key] = *value
	}
}

func putTime(row map[string]interface{}, key string, value *time.Time) {
	if value != nil {
		row[key] = value.UTC().Format(time.RFC3339)
	}
}
