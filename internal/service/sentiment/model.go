package sentiment

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
)

// Event archetypes with empirically derived impact factors. Matching is
// first-match-wins in table order, so the ordering here is load-bearing:
// a title mentioning both a dividend and an acquisition counts as a
// dividend announcement.
type archetype struct {
	name       string
	meanImpact float64
	halfLife   float64
	keywords   []string
}

var eventTable = []archetype{
	{"dividend_announcement", 0.025, 7, []string{"dividend", "cash dividend", "bonus", "payout"}},
	{"earnings_beat", 0.05, 14, []string{"profit increase", "earnings growth", "record profit", "eps beat"}},
	{"expansion", 0.04, 30, []string{"expansion", "new plant", "new project", "capacity increase"}},
	{"acquisition", 0.08, 21, []string{"acquire", "acquisition", "merger", "takeover"}},
	{"contract_win", 0.035, 14, []string{"awarded", "contract", "wins", "secured deal"}},
	{"earnings_miss", -0.06, 14, []string{"profit decline", "earnings drop", "loss", "revenue decline"}},
	{"regulatory_issue", -0.08, 21, []string{"investigation", "secp", "inquiry", "violation", "penalty", "fine"}},
	{"management_issue", -0.05, 14, []string{"ceo resign", "fraud", "scandal", "management change"}},
	{"sector_headwind", -0.03, 30, []string{"sector decline", "industry downturn", "competition"}},
}

const (
	// eventFloor drops event contributions that have decayed to noise.
	eventFloor = 0.001
	// applyFloor is the minimum capped adjustment worth rewriting a
	// forecast day for.
	applyFloor = 0.0005
	// sentimentScale bounds the pure-sentiment swing: score ±1 maps to ±5%.
	sentimentScale = 0.05
	// sentimentHalfLife is the decay half-life of raw sentiment, in days.
	sentimentHalfLife = 45
	// adjustmentCap soft-caps the total daily adjustment at ±15%.
	adjustmentCap = 0.15
	// maxEventLabels is the most event labels attached to one forecast day.
	maxEventLabels = 3
)

// ExponentialDecay computes impact·e^(−λt) with λ = ln2/halfLife.
func ExponentialDecay(impact, daysElapsed, halfLife float64) float64 {
	if halfLife <= 0 {
		return 0
	}
	return impact * math.Exp(-math.Ln2/halfLife*daysElapsed)
}

// ConfidenceWeight penalizes low classifier confidence quadratically:
// 1.0→1.0, 0.7→0.49, 0.5→0.25, 0.3→0.09.
func ConfidenceWeight(confidence float64) float64 {
	return confidence * confidence
}

// SigmoidCap squashes x into (−maxVal, maxVal), staying near-linear for
// small |x| and saturating smoothly instead of clipping.
func SigmoidCap(x, maxVal float64) float64 {
	return maxVal * (2/(1+math.Exp(-3*x/maxVal)) - 1)
}

// Model turns cached sentiment into per-day price adjustments over a
// forecast horizon.
type Model struct {
	now func() time.Time
}

// ModelOption configures Model.
type ModelOption func(*Model)

// NewModel creates an adjustment model.
func NewModel(opts ...ModelOption) *Model {
	m := &Model{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithModelClock overrides the time source.
func WithModelClock(now func() time.Time) ModelOption {
	return func(m *Model) {
		m.now = now
	}
}

// DetectEvents scans news titles against the archetype table. Each item
// contributes at most one event, decided by the first archetype with a
// keyword present in the lowercased title.
func (m *Model) DetectEvents(news []models.NewsItem) []models.EventMatch {
	var detected []models.EventMatch
	for _, item := range news {
		title := strings.ToLower(item.Title)
		for _, arch := range eventTable {
			if !containsAny(title, arch.keywords) {
				continue
			}
			detected = append(detected, models.EventMatch{
				Type:         arch.name,
				MeanImpact:   arch.meanImpact,
				HalfLifeDays: arch.halfLife,
				DaysElapsed:  m.daysElapsed(item.Date),
				Source:       sourceOrUnknown(item.Source),
				Title:        truncate(item.Title, 100),
			})
			break
		}
	}
	return detected
}

// ComputeAdjustments builds the per-day adjustment path for the horizon.
// Each day combines decayed event impacts with a decayed raw-sentiment
// component, weights the sum by squared confidence and soft-caps it.
func (m *Model) ComputeAdjustments(result models.SentimentResult, horizon int) []models.DayAdjustment {
	events := m.DetectEvents(result.NewsItems)
	weight := ConfidenceWeight(result.Confidence)

	adjustments := make([]models.DayAdjustment, 0, horizon)
	for day := 1; day <= horizon; day++ {
		var eventSum float64
		var labels []string
		for _, ev := range events {
			decayed := ExponentialDecay(ev.MeanImpact, ev.DaysElapsed+float64(day), ev.HalfLifeDays)
			if math.Abs(decayed) <= eventFloor {
				continue
			}
			eventSum += decayed
			labels = append(labels, fmt.Sprintf("%s: %.2f%%", ev.Type, decayed*100))
		}

		// Sentiment is "as of now", so it decays over the forecast day
		// alone, with no historical elapsed offset.
		sentimentDecay := ExponentialDecay(result.SentimentScore*sentimentScale, float64(day), sentimentHalfLife)

		raw := (eventSum + sentimentDecay) * weight
		capped := SigmoidCap(raw, adjustmentCap)

		adjustments = append(adjustments, models.DayAdjustment{
			Day:                day,
			RawAdjustment:      raw,
			CappedAdjustment:   capped,
			Percentage:         round3(capped * 100),
			EventImpacts:       labels,
			SentimentComponent: round3(sentimentDecay * weight * 100),
			ConfidenceWeight:   round3(weight),
		})
	}
	return adjustments
}

// ApplyAdjustments rewrites forecast days whose capped adjustment exceeds
// the apply floor: price is scaled, the unadjusted price is preserved,
// upside is recomputed against the forecast's anchor current price and up
// to three contributing event labels are attached. Days below the floor
// pass through unchanged.
func (m *Model) ApplyAdjustments(preds []models.DailyPrediction, adjustments []models.DayAdjustment, currentPrice float64) []models.DailyPrediction {
	if len(preds) == 0 || len(adjustments) == 0 {
		return preds
	}

	byDay := make(map[int]models.DayAdjustment, len(adjustments))
	for _, adj := range adjustments {
		byDay[adj.Day] = adj
	}

	adjusted := make([]models.DailyPrediction, 0, len(preds))
	for _, pred := range preds {
		adj, ok := byDay[pred.Day]
		if !ok || math.Abs(adj.CappedAdjustment) <= applyFloor {
			adjusted = append(adjusted, pred)
			continue
		}

		next := pred
		next.BasePredictedPrice = pred.PredictedPrice
		next.PredictedPrice = round2(pred.PredictedPrice * (1 + adj.CappedAdjustment))
		next.SentimentAdjustmentPct = adj.Percentage
		next.SentimentEvents = adj.EventImpacts
		if len(next.SentimentEvents) > maxEventLabels {
			next.SentimentEvents = next.SentimentEvents[:maxEventLabels]
		}
		if currentPrice > 0 {
			next.UpsidePotential = round2((next.PredictedPrice/currentPrice - 1) * 100)
		}
		adjusted = append(adjusted, next)
	}
	return adjusted
}

// Summarize aggregates an adjustment path for reporting.
func (m *Model) Summarize(result models.SentimentResult, adjustments []models.DayAdjustment) models.AdjustmentSummary {
	events := m.DetectEvents(result.NewsItems)

	summary := models.AdjustmentSummary{
		EventsDetected:   len(events),
		EventTypes:       uniqueEventTypes(events),
		ConfidenceWeight: ConfidenceWeight(result.Confidence),
	}
	if len(adjustments) == 0 {
		return summary
	}

	var sum float64
	for _, adj := range adjustments {
		sum += adj.Percentage
		if adj.Percentage > summary.MaxPositivePct {
			summary.MaxPositivePct = adj.Percentage
		}
		if adj.Percentage < summary.MaxNegativePct {
			summary.MaxNegativePct = adj.Percentage
		}
	}
	summary.AveragePct = round3(sum / float64(len(adjustments)))
	return summary
}

func (m *Model) daysElapsed(date string) float64 {
	if len(date) >= 10 && strings.Contains(date, "-") {
		if t, err := time.Parse("2006-01-02", date[:10]); err == nil {
			days := m.now().Sub(t).Hours() / 24
			return math.Max(0, math.Floor(days))
		}
	}
	return 0
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func uniqueEventTypes(events []models.EventMatch) []string {
	seen := make(map[string]struct{}, len(events))
	var types []string
	for _, ev := range events {
		if _, dup := seen[ev.Type]; dup {
			continue
		}
		seen[ev.Type] = struct{}{}
		types = append(types, ev.Type)
	}
	return types
}

func sourceOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
