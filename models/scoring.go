package models

// PredictionRequest carries the stored fields the listing estimator consumes.
type PredictionRequest struct {
	GMPPercent        float64  `json:"gmp_percent"`
	SubscriptionTotal float64  `json:"subscription_total"`
	Category          Category `json:"category"`
}

// ListingPrediction is the heuristic listing-gain estimate. Gains are percentages.
type ListingPrediction struct {
	ProbabilityPercent float64 `json:"probability_percent"`
	Sentiment          string  `json:"sentiment"`
	EstimatedGainMin   float64 `json:"estimated_gain_min"`
	EstimatedGainMax   float64 `json:"estimated_gain_max"`
	Analysis           string  `json:"analysis"`
}

// SentimentRequest is the body accepted by the sentiment endpoint.
type SentimentRequest struct {
	Text string `json:"text"`
}

// SentimentResult classifies a piece of market commentary.
type SentimentResult struct {
	TextSnippet  string  `json:"text_snippet"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Status       string  `json:"status"`
	Confidence   float64 `json:"confidence"`
}
