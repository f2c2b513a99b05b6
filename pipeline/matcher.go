package pipeline

import (
	"sort"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultMatchThreshold is the lowest similarity at which two slugs are
// considered the same issue.
const DefaultMatchThreshold = 0.4

// Similarity scores two slugs in [0, 1]; 1 means identical.
type Similarity func(a, b string) float64

// LevenshteinSimilarity is 1 - editDistance / longerLength.
func LevenshteinSimilarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(matchr.Levenshtein(a, b))/float64(longest)
}

// JaroWinklerSimilarity favours shared prefixes, which suits names that differ
// only in a trailing suffix.
func JaroWinklerSimilarity(a, b string) float64 {
	return matchr.JaroWinkler(a, b, false)
}

// Matcher aligns slugs reported by different sources onto one key space.
type Matcher struct {
	Threshold float64
	Score     Similarity
}

// NewMatcher returns a Levenshtein matcher. A threshold outside (0, 1] falls
// back to DefaultMatchThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}
	return &Matcher{Threshold: threshold, Score: LevenshteinSimilarity}
}

// Align links each anchor to the key of others that names the same issue.
// An anchor present in others links to itself. Every other anchor takes its
// best-scoring remaining key at or above Threshold; pairs are claimed in
// descending score order so each key serves at most one anchor. The linked
// key keeps its own identity: the caller copies its fields onto the anchor.
func (m *Matcher) Align(anchors, others []string) map[string]string {
	score := m.Score
	if score == nil {
		score = LevenshteinSimilarity
	}

	sortedAnchors := uniqueSorted(anchors)
	sortedOthers := uniqueSorted(others)

	anchorSet := make(map[string]struct{}, len(sortedAnchors))
	for _, anchor := range sortedAnchors {
		anchorSet[anchor] = struct{}{}
	}
	otherSet := make(map[string]struct{}, len(sortedOthers))
	for _, key := range sortedOthers {
		otherSet[key] = struct{}{}
	}

	linked := make(map[string]string)
	var candidates []candidate
	for _, anchor := range sortedAnchors {
		if _, ok := otherSet[anchor]; ok {
			linked[anchor] = anchor
			continue
		}
		for _, key := range sortedOthers {
			// a key that is itself an anchor belongs to that issue
			if _, ok := anchorSet[key]; ok {
				continue
			}
			if s := score(anchor, key); s >= m.Threshold {
				candidates = append(candidates, candidate{anchor: anchor, key: key, score: s})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	taken := make(map[string]bool)
	for _, c := range candidates {
		if _, done := linked[c.anchor]; done || taken[c.key] {
			continue
		}
		linked[c.anchor] = c.key
		taken[c.key] = true
	}

	return linked
}

type candidate struct {
	anchor, key string
	score       float64
}

// uniqueSorted drops empty and repeated keys.
func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
