package models

// Sentiment signals as produced by the external classifier.
const (
	SignalBuy     = "BUY"
	SignalHold    = "HOLD"
	SignalSell    = "SELL"
	SignalNeutral = "NEUTRAL"
)

// NewsItem is one headline used as input to event detection. No
// normalization is guaranteed across sources.
type NewsItem struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// SentimentResult is the per-symbol output of the external classifier,
// persisted one document per symbol.
type SentimentResult struct {
	Symbol         string     `json:"symbol"`
	Company        string     `json:"company"`
	NewsCount      int        `json:"news_count"`
	NewsItems      []NewsItem `json:"news_items"`
	SentimentScore float64    `json:"sentiment_score"` // [-1, 1]
	Signal         string     `json:"signal"`
	Confidence     float64    `json:"confidence"` // [0, 1]
	KeyEvents      []string   `json:"key_events,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	CachedAt       string     `json:"cached_at,omitempty"`
}

// EventMatch is a financial event detected in a news title, derived and
// never persisted.
type EventMatch struct {
	Type         string  `json:"type"`
	MeanImpact   float64 `json:"mean_impact"`
	HalfLifeDays float64 `json:"half_life"`
	DaysElapsed  float64 `json:"days_elapsed"`
	Source       string  `json:"source"`
	Title        string  `json:"title"`
}

// DayAdjustment is the sentiment-derived price adjustment for one forecast
// day.
type DayAdjustment struct {
	Day                int      `json:"day"`
	RawAdjustment      float64  `json:"raw_adjustment"`
	CappedAdjustment   float64  `json:"capped_adjustment"`
	Percentage         float64  `json:"percentage"`
	EventImpacts       []string `json:"event_impacts,omitempty"`
	SentimentComponent float64  `json:"sentiment_component"`
	ConfidenceWeight   float64  `json:"confidence_weight"`
}

// AdjustmentSummary aggregates a horizon's worth of day adjustments.
type AdjustmentSummary struct {
	MaxPositivePct   float64  `json:"max_positive_adjustment"`
	MaxNegativePct   float64  `json:"max_negative_adjustment"`
	AveragePct       float64  `json:"average_adjustment"`
	EventsDetected   int      `json:"events_detected"`
	EventTypes       []string `json:"event_types,omitempty"`
	ConfidenceWeight float64  `json:"confidence_weight"`
}
