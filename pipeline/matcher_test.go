package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestLevenshteinSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinSimilarity("acme-solar", "acme-solar"))
	assert.Equal(t, 1.0, LevenshteinSimilarity("", ""))
	assert.Equal(t, 0.0, LevenshteinSimilarity("abc", ""))
	assert.InDelta(t, 0.625, LevenshteinSimilarity("acme-solar-power", "acme-solar"), 1e-9)
}

func TestMatcherAlign(t *testing.T) {
	tests := []struct {
		name    string
		anchors []string
		others  []string
		want    map[string]string
	}{
		{
			name:    "exact keys link to themselves",
			anchors: []string{"acme-solar", "zepto"},
			others:  []string{"acme-solar"},
			want:    map[string]string{"acme-solar": "acme-solar"},
		},
		{
			name:    "close spelling is linked",
			anchors: []string{"acme-solar", "swiggy"},
			others:  []string{"acme-solar-power"},
			want:    map[string]string{"acme-solar": "acme-solar-power"},
		},
		{
			name:    "dissimilar keys stay separate",
			anchors: []string{"acme-solar"},
			others:  []string{"hipolin"},
			want:    map[string]string{},
		},
		{
			name:    "an exact match is preferred over a close one",
			anchors: []string{"acme-solar"},
			others:  []string{"acme-solar", "acme-solar-energy"},
			want:    map[string]string{"acme-solar": "acme-solar"},
		},
		{
			name:    "the best scoring candidate wins",
			anchors: []string{"tata-tech"},
			others:  []string{"tata-technologies", "tata-techs"},
			want:    map[string]string{"tata-tech": "tata-techs"},
		},
		{
			name:    "higher scoring pair is claimed first",
			anchors: []string{"tata-tech", "tata-techno"},
			others:  []string{"tata-technologies"},
			want:    map[string]string{"tata-techno": "tata-technologies"},
		},
		{
			name:    "a key naming another anchor is not borrowed",
			anchors: []string{"acme-solar", "acme-solar-power"},
			others:  []string{"acme-solar-power"},
			want:    map[string]string{"acme-solar-power": "acme-solar-power"},
		},
		{
			name:    "empty keys never match",
			anchors: []string{"", "acme"},
			others:  []string{""},
			want:    map[string]string{},
		},
	}

	matcher := NewMatcher(DefaultMatchThreshold)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcher.Align(tt.anchors, tt.others)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Align() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatcherThresholdIsInclusive(t *testing.T) {
	matcher := &Matcher{Threshold: 0.5, Score: func(a, b string) float64 { return 0.5 }}
	assert.Equal(t, map[string]string{"a": "b"}, matcher.Align([]string{"a"}, []string{"b"}))

	matcher.Threshold = 0.51
	assert.Empty(t, matcher.Align([]string{"a"}, []string{"b"}))
}

func TestNewMatcherFallsBackToDefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultMatchThreshold, NewMatcher(0).Threshold)
	assert.Equal(t, DefaultMatchThreshold, NewMatcher(3).Threshold)
	assert.Equal(t, 0.7, NewMatcher(0.7).Threshold)
}

func TestMatcherAlignProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	slug := gen.OneConstOf("acme-solar", "acme-solar-power", "swiggy", "swiggy-instamart", "zepto", "tata-tech", "tata-technologies", "hipolin", "")
	matcher := NewMatcher(DefaultMatchThreshold)

	properties.Property("every key serves at most one anchor and exact keys link to themselves", prop.ForAll(
		func(anchors, others []string) bool {
			linked := matcher.Align(anchors, others)

			anchorSet := map[string]bool{}
			for _, a := range anchors {
				anchorSet[a] = true
			}
			otherSet := map[string]bool{}
			for _, o := range others {
				otherSet[o] = true
			}

			used := map[string]int{}
			for anchor, key := range linked {
				if anchor == "" || key == "" || !anchorSet[anchor] || !otherSet[key] {
					return false
				}
				if otherSet[anchor] && key != anchor {
					return false
				}
				if key != anchor && (anchorSet[key] || matcher.Score(anchor, key) < matcher.Threshold) {
					return false
				}
				used[key]++
			}
			for _, n := range used {
				if n > 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(slug),
		gen.SliceOf(slug),
	))

	properties.Property("alignment is deterministic", prop.ForAll(
		func(anchors, others []string) bool {
			return cmp.Equal(matcher.Align(anchors, others), matcher.Align(anchors, others))
		},
		gen.SliceOf(slug),
		gen.SliceOf(slug),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
