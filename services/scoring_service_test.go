package services

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/fenilmodi00/ipo-sync/models"
)

func TestPredictListing(t *testing.T) {
	tests := []struct {
		name        string
		req         models.PredictionRequest
		probability float64
		sentiment   string
	}{
		{"modest premium", models.PredictionRequest{GMPPercent: 18.52, SubscriptionTotal: 2.9, Category: models.CategoryMainboard}, 23.5, SentimentAvoid},
		{"cautious", models.PredictionRequest{GMPPercent: 30, SubscriptionTotal: 50}, 41, SentimentCautious},
		{"positive", models.PredictionRequest{GMPPercent: 50, SubscriptionTotal: 100}, 65, SentimentPositive},
		{"capped at 99", models.PredictionRequest{GMPPercent: 180, SubscriptionTotal: 250}, 99, SentimentHighStrong},
		{"floored at 0", models.PredictionRequest{GMPPercent: -50}, 0, SentimentAvoid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PredictListing(tt.req, rand.New(rand.NewSource(1)))
			assert.Equal(t, tt.probability, got.ProbabilityPercent)
			assert.Equal(t, tt.sentiment, got.Sentiment)
		})
	}
}

func TestPredictListingGainsAndAnalysis(t *testing.T) {
	got := PredictListing(models.PredictionRequest{GMPPercent: 18.52, SubscriptionTotal: 3}, nil)

	assert.Equal(t, 16.668, got.EstimatedGainMin)
	assert.Equal(t, 21.298, got.EstimatedGainMax)
	assert.Equal(t, "Based on 18.52% GMP and 3.0x subscription.", got.Analysis)
}

func TestPredictListingSMEVarianceStaysInRange(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("SME swing is within [-5, 10] of the mainboard estimate", prop.ForAll(
		func(gmp, sub float64, seed int64) bool {
			mainboard := PredictListing(models.PredictionRequest{GMPPercent: gmp, SubscriptionTotal: sub, Category: models.CategoryMainboard}, nil)
			sme := PredictListing(models.PredictionRequest{GMPPercent: gmp, SubscriptionTotal: sub, Category: models.CategorySME}, rand.New(rand.NewSource(seed)))

			lo := mainboard.ProbabilityPercent - 5.1
			hi := mainboard.ProbabilityPercent + 10.1
			return sme.ProbabilityPercent >= 0 && sme.ProbabilityPercent <= 99 &&
				(sme.ProbabilityPercent >= lo || sme.ProbabilityPercent == 0) &&
				(sme.ProbabilityPercent <= hi || sme.ProbabilityPercent == 99)
		},
		gen.Float64Range(-20, 150),
		gen.Float64Range(0, 300),
		gen.Int64(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestScoringServiceIsDeterministicForSeededSource(t *testing.T) {
	req := models.PredictionRequest{GMPPercent: 25, SubscriptionTotal: 10, Category: models.CategorySME}

	a := NewScoringService(rand.New(rand.NewSource(42))).PredictListing(req)
	b := NewScoringService(rand.New(rand.NewSource(42))).PredictListing(req)
	assert.Equal(t, a, b)
}

func TestPredictionForRecord(t *testing.T) {
	record := &models.IPORecord{GMPPercentage: models.FloatPtr(50), SubscriptionTotal: 100, Category: models.CategoryMainboard}
	got := NewScoringService(nil).PredictionForRecord(record)
	assert.Equal(t, 65.0, got.ProbabilityPercent)

	assert.Equal(t, 0.0, RequestForRecord(&models.IPORecord{}).GMPPercent)
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		polarity     float64
		subjectivity float64
		status       string
		confidence   float64
	}{
		{"single strong word", "Excellent", 1, 1, TextPositive, 50},
		{"negative pair", "terrible losses", -0.7, 0.7, TextNegative, 50},
		{"negation flips and halves", "not good", -0.35, 0.6, TextNegative, 37.5},
		{"no opinion words", "The issue opens on Monday", 0, 0, TextNeutral, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeSentiment(tt.text)
			assert.InDelta(t, tt.polarity, got.Polarity, 1e-9)
			assert.InDelta(t, tt.subjectivity, got.Subjectivity, 1e-9)
			assert.Equal(t, tt.status, got.Status)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestAnalyzeSentimentIntensifierStrengthens(t *testing.T) {
	plain := AnalyzeSentiment("strong listing")
	intensified := AnalyzeSentiment("very strong listing")
	assert.Greater(t, intensified.Polarity, plain.Polarity)
}

func TestAnalyzeSentimentSnippet(t *testing.T) {
	assert.Equal(t, "short...", AnalyzeSentiment("short").TextSnippet)

	long := strings.Repeat("₹", 60)
	assert.Equal(t, strings.Repeat("₹", 50)+"...", AnalyzeSentiment(long).TextSnippet)
}

func TestAnalyzeSentimentBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)
	word := gen.OneConstOf("good", "bad", "not", "very", "excellent", "terrible", "ipo", "listing", "extremely", "weak", "strong")

	properties.Property("polarity and subjectivity stay in range", prop.ForAll(
		func(words []string) bool {
			got := AnalyzeSentiment(strings.Join(words, " "))
			return got.Polarity >= -1 && got.Polarity <= 1 &&
				got.Subjectivity >= 0 && got.Subjectivity <= 1 &&
				got.Confidence >= 0 && got.Confidence <= 100
		},
		gen.SliceOf(word),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
