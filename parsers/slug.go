package parsers

import (
	"regexp"
	"strings"
)

var (
	categoryTagPattern = regexp.MustCompile(`\((sme|mainboard)\)`)
	separatorPattern   = regexp.MustCompile(`[^a-z0-9]+`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// boilerplateTokens are dropped from slugs. "ltd." and "pvt." reduce to the
// same tokens once punctuation is treated as a separator.
var boilerplateTokens = map[string]struct{}{
	"ipo":     {},
	"limited": {},
	"ltd":     {},
	"pvt":     {},
}

// Slugify turns a display name into the canonical key shared by every source.
// "Acme Solar Ltd. IPO (SME)" and "acme-solar" both become "acme-solar".
// An empty result means the name carried nothing but boilerplate and must be
// treated as unmatched by callers.
func Slugify(raw string) string {
	lowered := strings.ToLower(raw)
	lowered = categoryTagPattern.ReplaceAllString(lowered, " ")

	tokens := separatorPattern.Split(lowered, -1)
	kept := tokens[:0]
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, boilerplate := boilerplateTokens[token]; boilerplate {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, "-")
}

// TitleFromSlug rebuilds a readable name from a slug: "acme-solar" -> "Acme Solar".
func TitleFromSlug(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// CompanyNameFromIPOName strips the listing boilerplate the sources append to
// the company name.
func CompanyNameFromIPOName(ipoName string) string {
	name := strings.ReplaceAll(ipoName, " IPO", "")
	name = strings.ReplaceAll(name, " (SME)", "")
	return strings.TrimSpace(name)
}

// CleanText collapses whitespace runs and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// IsNotAvailable reports whether a cell holds a placeholder such as "TBA" or "-".
func IsNotAvailable(text string) bool {
	switch strings.ToLower(CleanText(text)) {
	case "", "-", "--", "tba", "tbd", "to be announced", "n/a", "na", "nil", "null", "awaited", "not available":
		return true
	}
	return false
}
