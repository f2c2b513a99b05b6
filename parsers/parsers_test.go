package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugCharset = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func nameGen() gopter.Gen {
	return gen.OneGenOf(
		gen.AnyString(),
		gen.AlphaString(),
		gen.OneConstOf(
			"Acme Solar Ltd. IPO (SME)",
			"Tata Technologies Limited IPO",
			"IPO",
			"  (Mainboard)  ",
			"x_ipo",
			"i(sme)po",
			"Hipolin Pvt. Ltd.",
			"Swiggy Limited",
		),
	)
}

func TestSlugifyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalizing a slug again leaves it unchanged", prop.ForAll(
		func(name string) bool {
			once := Slugify(name)
			return Slugify(once) == once
		},
		nameGen(),
	))

	properties.Property("slugs hold only lowercase alphanumerics joined by single separators", prop.ForAll(
		func(name string) bool {
			slug := Slugify(name)
			return slug == "" || slugCharset.MatchString(slug)
		},
		nameGen(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Solar Ltd. IPO (SME)":     "acme-solar",
		"Tata Technologies Limited IPO": "tata-technologies",
		"NTPC Green Energy IPO":         "ntpc-green-energy",
		"Zepto Pvt. Ltd.":               "zepto",
		"Hipolin Ltd":                   "hipolin",
		"IPO (SME)":                     "",
		"":                              "",
		"i(sme)po":                      "i-po",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, Slugify(input), "input %q", input)
	}
}

func TestTitleFromSlugAndCompanyName(t *testing.T) {
	assert.Equal(t, "Acme Solar", TitleFromSlug("acme-solar"))
	assert.Equal(t, "", TitleFromSlug(""))
	assert.Equal(t, "Acme Solar", CompanyNameFromIPOName("Acme Solar IPO (SME)"))
}

func TestParseNumberWithoutDigitsHasNoValue(t *testing.T) {
	properties := gopter.NewProperties(nil)

	noDigits := gen.AnyString().Map(func(s string) string {
		return strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return -1
			}
			return r
		}, s)
	})

	properties.Property("text without digits never yields a number", prop.ForAll(
		func(text string) bool {
			_, ok := ParseNumber(text)
			return !ok
		},
		noDigits,
	))

	properties.Property("formatted rupee amounts parse back to their value", prop.ForAll(
		func(whole int) bool {
			text := "₹" + addThousandsSeparators(whole) + " per share"
			value, ok := ParseNumber(text)
			return ok && value == float64(whole)
		},
		gen.IntRange(0, 10_000_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func addThousandsSeparators(n int) string {
	digits := strconv.Itoa(n)
	var out strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteRune(',')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"₹1,250.50", 1250.50, true},
		{"Rs. 95", 95, true},
		{"12.5x", 12.5, true},
		{"-", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
		{"...", 0, false},
		{"Est. ₹120", 120, true},
		{"approx. 25", 25, true},
		{"No. 3", 3, true},
		{".75x", 0.75, true},
	}
	for _, tc := range cases {
		value, ok := ParseNumber(tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
		assert.Equal(t, tc.expected, value, "input %q", tc.input)
	}
}

func TestParseGMP(t *testing.T) {
	amount, pct := ParseGMP("₹25 (30.86%)")
	assert.Equal(t, 25.0, amount)
	require.NotNil(t, pct)
	assert.Equal(t, 30.86, *pct)

	amount, pct = ParseGMP("₹40")
	assert.Equal(t, 40.0, amount)
	assert.Nil(t, pct)
}

func TestParsePriceRange(t *testing.T) {
	low, high := ParsePriceRange("₹76 – ₹81")
	require.NotNil(t, low)
	require.NotNil(t, high)
	assert.Equal(t, 76, *low)
	assert.Equal(t, 81, *high)

	low, high = ParsePriceRange("₹100")
	require.NotNil(t, low)
	assert.Equal(t, 100, *low)
	assert.Equal(t, 100, *high)

	low, high = ParsePriceRange("no data")
	assert.Nil(t, low)
	assert.Nil(t, high)

	low, high = ParsePriceRange("₹1,020 to ₹1,075")
	assert.Equal(t, 1020, *low)
	assert.Equal(t, 1075, *high)
}

func TestParseDateAcceptsAllDocumentedFormats(t *testing.T) {
	expected := "2026-01-05"
	for _, input := range []string{"Jan 5, 2026", "5 Jan 2026", "05-Jan-2026", "05/01/2026", "2026-01-05", "5th Jan 2026"} {
		parsed, ok := ParseDate(input)
		require.True(t, ok, "input %q", input)
		assert.Equal(t, expected, FormatDate(parsed), "input %q", input)
	}

	for _, input := range []string{"", "-", "TBA", "32 Jan 2026"} {
		_, ok := ParseDate(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestParseDateRoundTripsEveryLayout(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a date rendered in any accepted layout parses back to the same day", prop.ForAll(
		func(offset int, layoutIndex int) bool {
			day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
			parsed, ok := ParseDate(day.Format(DateLayouts[layoutIndex]))
			return ok && parsed.Equal(day)
		},
		gen.IntRange(0, 3650),
		gen.IntRange(0, len(DateLayouts)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestParseDateRange(t *testing.T) {
	cases := []struct {
		input       string
		open, close string
	}{
		{"06th – 08th Jan 2026", "2026-01-06", "2026-01-08"},
		{"2026-01-13 06th – 08th Jan 2026", "2026-01-06", "2026-01-08"},
		{"29 Dec - 02 Jan 2026", "2025-12-29", "2026-01-02"},
		{"3 Feb 2026 – 5 Feb 2026", "2026-02-03", "2026-02-05"},
		{"2026-01-05 - 2026-01-08", "2026-01-05", "2026-01-08"},
		{"06-Jan-2026 - 08-Jan-2026", "2026-01-06", "2026-01-08"},
	}
	for _, tc := range cases {
		open, close, ok := ParseDateRange(tc.input)
		require.True(t, ok, "input %q", tc.input)
		assert.Equal(t, tc.open, FormatDate(open), "input %q", tc.input)
		assert.Equal(t, tc.close, FormatDate(close), "input %q", tc.input)
	}

	for _, input := range []string{"", "-", "Jan 2026", "31st – 02nd Feb 2026x"} {
		_, _, ok := ParseDateRange(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestIsNotAvailable(t *testing.T) {
	for _, text := range []string{"TBA", " - ", "n/a", ""} {
		assert.True(t, IsNotAvailable(text), text)
	}
	assert.False(t, IsNotAvailable("₹25"))
}
