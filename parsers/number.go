package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalPattern    = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
	integerPattern    = regexp.MustCompile(`\d+`)
	percentagePattern = regexp.MustCompile(`\(\s*(-?[\d.]+)\s*%\s*\)`)
)

var currencyReplacer = strings.NewReplacer(",", "", "₹", "", "Rs.", "")

// ParseNumber extracts the first decimal number from a currency or multiplier
// cell ("₹1,250.50", "12.5x", "Est. ₹120"). Empty, dash and digit-free text
// yield false.
func ParseNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return 0, false
	}

	match := decimalPattern.FindString(currencyReplacer.Replace(text))
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseNumberOr returns the parsed number or fallback.
func ParseNumberOr(text string, fallback float64) float64 {
	if value, ok := ParseNumber(text); ok {
		return value
	}
	return fallback
}

// ParseGMP reads a premium cell such as "₹25 (30.86%)". The percentage is nil
// when the cell carries only an amount.
func ParseGMP(text string) (float64, *float64) {
	amount, _ := ParseNumber(text)

	groups := percentagePattern.FindStringSubmatch(text)
	if len(groups) < 2 {
		return amount, nil
	}
	pct, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return amount, nil
	}
	return amount, &pct
}

// ParsePriceRange splits a price band into its bounds:
// "₹76 – ₹81" -> (76, 81), "₹100" -> (100, 100), "no data" -> (nil, nil).
func ParsePriceRange(text string) (*int, *int) {
	matches := integerPattern.FindAllString(strings.ReplaceAll(text, ",", ""), -1)

	var values []int
	for _, match := range matches {
		value, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		values = append(values, value)
	}

	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		low, high := values[0], values[0]
		return &low, &high
	default:
		low, high := values[0], values[len(values)-1]
		return &low, &high
	}
}
