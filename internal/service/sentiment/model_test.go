package sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testModel() *Model {
	return NewModel(WithModelClock(func() time.Time { return testNow }))
}

func TestExponentialDecayHalfLife(t *testing.T) {
	// At exactly one half-life the impact halves.
	got := ExponentialDecay(0.04, 7, 7)
	assert.InDelta(t, 0.02, got, 1e-12)

	// Five half-lives leave at most 3.2% of the initial impact.
	got = ExponentialDecay(0.04, 35, 7)
	assert.LessOrEqual(t, got, 0.04*0.032)
	assert.Greater(t, got, 0.0)
}

func TestExponentialDecayDegenerateHalfLife(t *testing.T) {
	assert.Zero(t, ExponentialDecay(0.04, 10, 0))
	assert.Zero(t, ExponentialDecay(0.04, 10, -1))
}

func TestConfidenceWeight(t *testing.T) {
	assert.Equal(t, 0.0, ConfidenceWeight(0))
	assert.Equal(t, 1.0, ConfidenceWeight(1))
	assert.InDelta(t, 0.25, ConfidenceWeight(0.5), 1e-12)
	assert.InDelta(t, 0.09, ConfidenceWeight(0.3), 1e-12)

	// Monotonically non-decreasing.
	prev := -1.0
	for c := 0.0; c <= 1.0; c += 0.05 {
		w := ConfidenceWeight(c)
		assert.GreaterOrEqual(t, w, prev)
		prev = w
	}
}

func TestSigmoidCapBounded(t *testing.T) {
	for _, x := range []float64{0.01, 0.15, 0.5, 5, 1000} {
		assert.Less(t, math.Abs(SigmoidCap(x, 0.15)), 0.15)
		assert.Less(t, math.Abs(SigmoidCap(-x, 0.15)), 0.15)
	}
}

func TestSigmoidCapNearLinearForSmallInputs(t *testing.T) {
	for _, x := range []float64{0.001, 0.005, -0.003} {
		capped := SigmoidCap(x, 0.15)
		assert.InDelta(t, x, capped, math.Abs(x)*0.05)
	}
}

func TestSigmoidCapOdd(t *testing.T) {
	assert.Zero(t, SigmoidCap(0, 0.15))
	assert.InDelta(t, -SigmoidCap(0.1, 0.15), SigmoidCap(-0.1, 0.15), 1e-12)
}

func TestDetectEventsKeywordMatch(t *testing.T) {
	m := testModel()
	news := []models.NewsItem{
		{Title: "Lucky Cement announces cash dividend for FY26", Date: testNow.Format("2006-01-02"), Source: "PSX"},
		{Title: "Board approves new plant expansion", Date: testNow.AddDate(0, 0, -10).Format("2006-01-02")},
		{Title: "Quarterly production report", Date: testNow.Format("2006-01-02")},
	}

	events := m.DetectEvents(news)
	require.Len(t, events, 2)

	assert.Equal(t, "dividend_announcement", events[0].Type)
	assert.Equal(t, 0.025, events[0].MeanImpact)
	assert.Equal(t, 7.0, events[0].HalfLifeDays)
	assert.Equal(t, 0.0, events[0].DaysElapsed)
	assert.Equal(t, "PSX", events[0].Source)

	assert.Equal(t, "expansion", events[1].Type)
	assert.Equal(t, 10.0, events[1].DaysElapsed)
	assert.Equal(t, "Unknown", events[1].Source)
}

func TestDetectEventsFirstMatchWins(t *testing.T) {
	m := testModel()
	// Title mentions both a dividend and an acquisition; the table orders
	// dividend_announcement first.
	news := []models.NewsItem{
		{Title: "Dividend payout confirmed alongside acquisition talks", Date: testNow.Format("2006-01-02")},
	}

	events := m.DetectEvents(news)
	require.Len(t, events, 1)
	assert.Equal(t, "dividend_announcement", events[0].Type)
}

func TestDetectEventsUnparseableDateClampsToZero(t *testing.T) {
	m := testModel()
	news := []models.NewsItem{
		{Title: "Company wins major contract", Date: "yesterday"},
		{Title: "Merger approved by board", Date: ""},
		{Title: "Penalty imposed by regulator", Date: testNow.AddDate(0, 0, 5).Format("2006-01-02")}, // future date
	}

	events := m.DetectEvents(news)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, 0.0, ev.DaysElapsed)
	}
}

func TestComputeAdjustmentsDividendScenario(t *testing.T) {
	m := testModel()
	result := models.SentimentResult{
		Symbol:         "LUCK",
		SentimentScore: 0,
		Confidence:     1,
		NewsItems: []models.NewsItem{
			{Title: "Cash dividend announced", Date: testNow.Format("2006-01-02")},
		},
	}

	adjustments := m.ComputeAdjustments(result, 21)
	require.Len(t, adjustments, 21)

	// mean_impact=0.025, half_life=7, days_elapsed=0, day=7 → exactly half.
	day7 := adjustments[6]
	assert.Equal(t, 7, day7.Day)
	assert.InDelta(t, 0.0125, day7.RawAdjustment, 1e-9)
	require.Len(t, day7.EventImpacts, 1)
	assert.Contains(t, day7.EventImpacts[0], "dividend_announcement")
	assert.Equal(t, 1.0, day7.ConfidenceWeight)
}

func TestComputeAdjustmentsNeutralIsNoop(t *testing.T) {
	m := testModel()
	adjustments := m.ComputeAdjustments(Neutral("FFC"), 21)
	require.Len(t, adjustments, 21)
	for _, adj := range adjustments {
		assert.Zero(t, adj.RawAdjustment)
		assert.Zero(t, adj.CappedAdjustment)
		assert.Empty(t, adj.EventImpacts)
	}
}

func TestComputeAdjustmentsConfidenceSuppresses(t *testing.T) {
	m := testModel()
	base := models.SentimentResult{
		SentimentScore: 0.8,
		Confidence:     1,
		NewsItems: []models.NewsItem{
			{Title: "Record profit posted, earnings growth continues", Date: testNow.Format("2006-01-02")},
		},
	}
	low := base
	low.Confidence = 0.3

	full := m.ComputeAdjustments(base, 21)
	damped := m.ComputeAdjustments(low, 21)
	for i := range full {
		assert.Greater(t, full[i].RawAdjustment, damped[i].RawAdjustment)
	}
	// Quadratic penalty, not linear.
	assert.InDelta(t, full[0].RawAdjustment*0.09, damped[0].RawAdjustment, 1e-9)
}

func TestApplyAdjustmentsRewritesPrices(t *testing.T) {
	m := testModel()
	preds := []models.DailyPrediction{
		{Day: 1, PredictedPrice: 100, UpsidePotential: 0, Confidence: 0.8},
		{Day: 2, PredictedPrice: 102, UpsidePotential: 2, Confidence: 0.8},
	}
	adjustments := []models.DayAdjustment{
		{Day: 1, CappedAdjustment: 0.02, Percentage: 2.0, EventImpacts: []string{"a: 1%", "b: 0.5%", "c: 0.3%", "d: 0.2%"}},
		{Day: 2, CappedAdjustment: 0.0001, Percentage: 0.01},
	}

	adjusted := m.ApplyAdjustments(preds, adjustments, 100)
	require.Len(t, adjusted, 2)

	// Day 1 exceeds the floor: price scaled, base preserved, upside
	// recomputed vs the anchor price, labels capped at three.
	assert.Equal(t, 102.0, adjusted[0].PredictedPrice)
	assert.Equal(t, 100.0, adjusted[0].BasePredictedPrice)
	assert.Equal(t, 2.0, adjusted[0].SentimentAdjustmentPct)
	assert.Equal(t, 2.0, adjusted[0].UpsidePotential)
	assert.Len(t, adjusted[0].SentimentEvents, 3)

	// Day 2 is below the floor: untouched.
	assert.Equal(t, preds[1], adjusted[1])
}

func TestApplyAdjustmentsEmptyInputsPassThrough(t *testing.T) {
	m := testModel()
	preds := []models.DailyPrediction{{Day: 1, PredictedPrice: 50}}

	assert.Equal(t, preds, m.ApplyAdjustments(preds, nil, 50))
	assert.Nil(t, m.ApplyAdjustments(nil, []models.DayAdjustment{{Day: 1}}, 50))
}

func TestSummarize(t *testing.T) {
	m := testModel()
	result := models.SentimentResult{
		Confidence: 0.5,
		NewsItems: []models.NewsItem{
			{Title: "Dividend declared", Date: testNow.Format("2006-01-02")},
			{Title: "Another dividend payout note", Date: testNow.Format("2006-01-02")},
			{Title: "SECP investigation opened", Date: testNow.Format("2006-01-02")},
		},
	}
	adjustments := []models.DayAdjustment{
		{Day: 1, Percentage: 1.5},
		{Day: 2, Percentage: -0.5},
		{Day: 3, Percentage: 0.2},
	}

	summary := m.Summarize(result, adjustments)
	assert.Equal(t, 1.5, summary.MaxPositivePct)
	assert.Equal(t, -0.5, summary.MaxNegativePct)
	assert.InDelta(t, 0.4, summary.AveragePct, 1e-9)
	assert.Equal(t, 3, summary.EventsDetected)
	assert.ElementsMatch(t, []string{"dividend_announcement", "regulatory_issue"}, summary.EventTypes)
	assert.InDelta(t, 0.25, summary.ConfidenceWeight, 1e-12)
}
