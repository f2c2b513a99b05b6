package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CanonicalDateLayout is the single format dates are stored in.
const CanonicalDateLayout = "2006-01-02"

// DateLayouts lists the accepted single-date formats in the order they are
// tried. Day fields accept one or two digits.
var DateLayouts = []string{
	"Jan 2, 2006",      // Jan 5, 2026
	"2 Jan 2006",       // 5 Jan 2026
	"2-Jan-2006",       // 05-Jan-2026
	"2/1/2006",         // 05/01/2026, day first
	"2006-1-2",         // 2026-01-05
	"January 2, 2006",  // January 5, 2026
	"2 January 2006",   // 5 January 2026
	"Mon, Jan 2, 2006", // Mon, Jan 5, 2026
}

var (
	ordinalPattern   = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	isoPrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	leadingDay       = regexp.MustCompile(`^\d{1,2}`)
)

func cleanDateText(text string) string {
	text = CleanText(text)
	return ordinalPattern.ReplaceAllString(text, "$1")
}

// ParseDate tries each of DateLayouts in turn and returns the first match.
// It never fails loudly: unparseable text reports false.
func ParseDate(text string) (time.Time, bool) {
	return parseWithLayouts(cleanDateText(text), DateLayouts)
}

func parseWithLayouts(text string, layouts []string) (time.Time, bool) {
	if text == "" || text == "-" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ParseDateRange reads an offer window such as "06th – 08th Jan 2026",
// "2026-01-13 06th – 08th Jan 2026" or "2026-01-05 - 2026-01-08". A leading
// ISO date is dropped when the rest still reads as a complete range, the text
// is split on an en dash (else a spaced hyphen, else a hyphen) and a bare
// start day borrows its month and year from the end date.
func ParseDateRange(text string) (time.Time, time.Time, bool) {
	text = CleanText(text)
	if text == "" || text == "-" {
		return time.Time{}, time.Time{}, false
	}

	if head, rest, found := strings.Cut(text, " "); found && isoPrefixPattern.MatchString(head) {
		if start, end, ok := parseRange(rest); ok {
			return start, end, true
		}
	}
	return parseRange(text)
}

func parseRange(text string) (time.Time, time.Time, bool) {
	text = ordinalPattern.ReplaceAllString(text, "$1")

	var separator string
	for _, candidate := range []string{"–", " - ", "-"} {
		if strings.Contains(text, candidate) {
			separator = candidate
			break
		}
	}
	if separator == "" {
		return time.Time{}, time.Time{}, false
	}

	rawStart, rawEnd, _ := strings.Cut(text, separator)
	rawStart, rawEnd = strings.TrimSpace(rawStart), strings.TrimSpace(rawEnd)

	end, ok := parseWithLayouts(rawEnd, DateLayouts)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	if start, ok := parseWithLayouts(rawStart, DateLayouts); ok {
		return start, end, true
	}

	// "06 Dec" borrows the year; a start that would land after the end belongs
	// to the previous year.
	if partial, err := time.Parse("2 Jan", rawStart); err == nil {
		start := time.Date(end.Year(), partial.Month(), partial.Day(), 0, 0, 0, 0, time.UTC)
		if start.After(end) {
			start = start.AddDate(-1, 0, 0)
		}
		return start, end, true
	}

	dayText := leadingDay.FindString(rawStart)
	if dayText == "" {
		return time.Time{}, time.Time{}, false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(end.Year(), end.Month(), day, 0, 0, 0, 0, time.UTC)
	if start.Day() != day {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// FormatDate renders t in the canonical storage format.
func FormatDate(t time.Time) string {
	return t.Format(CanonicalDateLayout)
}

// Today truncates now to a calendar date in UTC so date comparisons ignore the
// time of day.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
