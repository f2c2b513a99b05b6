package models

import "time"

// ShareholderIntel is one row of shareholder_intel: a subsidiary listing that
// reserves a quota for holders of its parent company.
type ShareholderIntel struct {
	IPOName       string     `json:"ipo_name"`
	ParentCompany string     `json:"parent_company"`
	SEBIStatus    string     `json:"sebi_status,omitempty"`
	ActionText    string     `json:"action_text"`
	IsActive      bool       `json:"is_active"`
	RHPDate       *time.Time `json:"rhp_date,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToRow flattens the entry for the sink.
func (s *ShareholderIntel) ToRow() map[string]interface{} {
	row := map[string]interface{}{
		"ipo_name":       s.IPOName,
		"parent_company": s.ParentCompany,
		"action_text":    s.ActionText,
		"is_active":      s.IsActive,
		"updated_at":     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	putString(row, "sebi_status", s.SEBIStatus)
	if s.RHPDate != nil {
		row["rhp_date"] = s.RHPDate.Format("2006-01-02")
	}
	return row
}

// GMPHistoryEntry is one append-only premium observation.
type GMPHistoryEntry struct {
	ID                   string    `json:"id"`
	IPOName              string    `json:"ipo_name"`
	GMPAmount            int       `json:"gmp_amount"`
	GMPPercentage        *float64  `json:"gmp_percentage,omitempty"`
	IssuePrice           int       `json:"issue_price"`
	ExpectedListingPrice *int      `json:"expected_listing_price,omitempty"`
	RecordedAt           time.Time `json:"recorded_at"`
}

// ToRow flattens the entry for the sink.
func (h *GMPHistoryEntry) ToRow() map[string]interface{} {
	row := map[string]interface{}{
		"id":          h.ID,
		"ipo_name":    h.IPOName,
		"gmp_amount":  h.GMPAmount,
		"issue_price": h.IssuePrice,
		"recorded_at": h.RecordedAt.UTC().Format(time.RFC3339),
	}
	putFloat(row, "gmp_percentage", h.GMPPercentage)
	putInt(row, "expected_listing_price", h.ExpectedListingPrice)
	return row
}
