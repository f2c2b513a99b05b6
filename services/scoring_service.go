// Package services holds the read-side helpers served next to the sync jobs:
// listing estimates, sentiment scoring, sink diagnostics and sample data.
package services

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
)

// Sentiment labels returned by PredictListing.
const (
	SentimentHighStrong = "High Strong"
	SentimentPositive   = "Positive"
	SentimentCautious   = "Cautious"
	SentimentAvoid      = "Avoid"
)

// Text sentiment statuses.
const (
	TextPositive = "Positive"
	TextNegative = "Negative"
	TextNeutral  = "Neutral"
)

const snippetLength = 50

// ScoringService serves listing estimates and sentiment scores. It is safe for
// concurrent use.
type ScoringService struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *logrus.Entry
}

// NewScoringService creates a service drawing SME variance from rng. A nil rng
// is seeded from the clock.
func NewScoringService(rng *rand.Rand) *ScoringService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ScoringService{
		rng:    rng,
		logger: logrus.WithField("component", "ScoringService"),
	}
}

// PredictListing estimates listing gains for req.
func (s *ScoringService) PredictListing(req models.PredictionRequest) models.ListingPrediction {
	s.mu.Lock()
	prediction := PredictListing(req, s.rng)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"method":      "PredictListing",
		"gmp_percent": req.GMPPercent,
		"probability": prediction.ProbabilityPercent,
	}).Debug("Predicted listing")
	return prediction
}

// PredictionForRecord estimates listing gains from a stored record.
func (s *ScoringService) PredictionForRecord(record *models.IPORecord) models.ListingPrediction {
	return s.PredictListing(RequestForRecord(record))
}

// AnalyzeSentiment scores a piece of market commentary.
func (s *ScoringService) AnalyzeSentiment(text string) models.SentimentResult {
	return AnalyzeSentiment(text)
}

// RequestForRecord reads the estimator inputs from a stored record. A record
// without a premium percentage scores as zero premium.
func RequestForRecord(record *models.IPORecord) models.PredictionRequest {
	req := models.PredictionRequest{
		SubscriptionTotal: record.SubscriptionTotal,
		Category:          record.Category,
	}
	if record.GMPPercentage != nil {
		req.GMPPercent = *record.GMPPercentage
	}
	return req
}

// PredictListing is the heuristic listing estimator. Premium carries most of
// the weight, subscription the rest; SME issues get a random swing in [-5, 10)
// drawn from rng.
func PredictListing(req models.PredictionRequest, rng *rand.Rand) models.ListingPrediction {
	gmpScore := math.Min(req.GMPPercent, 100) * 0.7
	subScore := math.Min(req.SubscriptionTotal, 100) * 0.2

	variance := 0.0
	if req.Category == models.CategorySME && rng != nil {
		variance = -5 + rng.Float64()*15
	}

	probability := math.Min(math.Max(gmpScore+subScore+variance+10, 0), 99)

	return models.ListingPrediction{
		ProbabilityPercent: round(probability, 1),
		Sentiment:          listingSentiment(probability),
		EstimatedGainMin:   scale(req.GMPPercent, "0.9"),
		EstimatedGainMax:   scale(req.GMPPercent, "1.15"),
		Analysis: fmt.Sprintf("Based on %s%% GMP and %sx subscription.",
			formatFloat(req.GMPPercent), formatFloat(req.SubscriptionTotal)),
	}
}

func listingSentiment(probability float64) string {
	switch {
	case probability > 75:
		return SentimentHighStrong
	case probability > 50:
		return SentimentPositive
	case probability > 30:
		return SentimentCautious
	default:
		return SentimentAvoid
	}
}

// AnalyzeSentiment scores text against the market lexicon. Polarity is the
// mean score of the opinion words found, subjectivity their mean subjectivity.
// Text without opinion words is neutral.
func AnalyzeSentiment(text string) models.SentimentResult {
	polarity, subjectivity := lexiconScore(text)

	status := TextNeutral
	if polarity > 0.1 {
		status = TextPositive
	} else if polarity < -0.1 {
		status = TextNegative
	}

	return models.SentimentResult{
		TextSnippet:  snippet(text),
		Polarity:     round(polarity, 2),
		Subjectivity: round(subjectivity, 2),
		Status:       status,
		Confidence:   round((math.Abs(polarity)+(1-subjectivity))/2*100, 1),
	}
}

func lexiconScore(text string) (float64, float64) {
	tokens := strings.FieldsFunc(strings.ToLower(strings.ReplaceAll(text, "'", "")), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var polaritySum, subjectivitySum float64
	matched := 0
	modifier, negate := 1.0, false

	for _, token := range tokens {
		if negations[token] {
			negate = true
			continue
		}
		if factor, ok := intensifiers[token]; ok {
			modifier *= factor
			continue
		}

		if entry, ok := sentimentLexicon[token]; ok {
			p := entry.polarity * modifier
			if negate {
				p *= -0.5
			}
			polaritySum += clamp(p, -1, 1)
			subjectivitySum += clamp(entry.subjectivity*modifier, 0, 1)
			matched++
		}
		modifier, negate = 1.0, false
	}

	if matched == 0 {
		return 0, 0
	}
	return polaritySum / float64(matched), subjectivitySum / float64(matched)
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetLength {
		runes = runes[:snippetLength]
	}
	return string(runes) + "..."
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func scale(v float64, factor string) float64 {
	f, _ := decimal.NewFromFloat(v).Mul(decimal.RequireFromString(factor)).Float64()
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// formatFloat always keeps a decimal point so whole numbers read as "50.0".
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
