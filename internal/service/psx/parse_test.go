package psx

import (
	"testing"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMonthHTML = `
<table class="tbl">
<thead><tr><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Volume</th></tr></thead>
<tbody>
<tr>
<td>Jan 2, 2026</td><td>1,250.00</td><td>1,275.50</td><td>1,240.10</td><td>1,260.25</td><td>1,523,400</td>
</tr>
<tr>
<td>Jan 5, 2026</td><td>1,262.00</td><td>1,280.00</td><td>1,255.00</td><td>1,270.75</td><td>980,120</td>
</tr>
<tr><td>malformed row</td></tr>
<tr>
<td>not a date</td><td>1</td><td>2</td><td>3</td><td>4</td><td>5</td>
</tr>
</tbody>
</table>`

func TestParseHistoricalTable(t *testing.T) {
	candles := parseHistoricalTable(sampleMonthHTML)
	require.Len(t, candles, 2)

	assert.Equal(t, "2026-01-02", candles[0].Date)
	assert.Equal(t, 1250.0, candles[0].Open)
	assert.Equal(t, 1275.5, candles[0].High)
	assert.Equal(t, 1240.1, candles[0].Low)
	assert.Equal(t, 1260.25, candles[0].Close)
	assert.Equal(t, 1523400.0, candles[0].Volume)

	assert.Equal(t, "2026-01-05", candles[1].Date)
}

func TestParseHistoricalTableEmpty(t *testing.T) {
	assert.Empty(t, parseHistoricalTable(""))
	assert.Empty(t, parseHistoricalTable("<html><body>no table</body></html>"))
}

func TestEnrichSeriesDeduplicatesAndSorts(t *testing.T) {
	series := enrichSeries([]models.Candle{
		{Date: "2026-01-05", Close: 110, Volume: 200},
		{Date: "2026-01-02", Close: 100, Volume: 100},
		{Date: "2026-01-05", Close: 999, Volume: 999}, // duplicate date, first wins
	})

	require.Len(t, series, 2)
	assert.Equal(t, "2026-01-02", series[0].Date)
	assert.Equal(t, "2026-01-05", series[1].Date)
	assert.Equal(t, 110.0, series[1].Close)
}

func TestEnrichSeriesChangeColumns(t *testing.T) {
	series := enrichSeries([]models.Candle{
		{Date: "2026-01-02", Close: 100, Volume: 1000},
		{Date: "2026-01-03", Close: 105, Volume: 1500},
	})
	require.Len(t, series, 2)

	// First row has no prior day.
	assert.Zero(t, series[0].PriceChange)
	assert.Zero(t, series[0].PriceChangePct)

	assert.Equal(t, 5.0, series[1].PriceChange)
	assert.InDelta(t, 5.0, series[1].PriceChangePct, 1e-9)
	assert.Equal(t, 500.0, series[1].VolumeChange)
}

func TestEnrichSeriesSMAWindows(t *testing.T) {
	candles := make([]models.Candle, 60)
	for i := range candles {
		candles[i] = models.Candle{
			Date:  sequentialDate(i),
			Close: float64(i + 1),
		}
	}
	series := enrichSeries(candles)
	require.Len(t, series, 60)

	// Before the window is covered the SMA stays zero.
	assert.Zero(t, series[18].SMA20)
	// SMA20 at index 19 covers closes 1..20.
	assert.InDelta(t, 10.5, series[19].SMA20, 1e-9)
	// SMA50 at index 49 covers closes 1..50.
	assert.InDelta(t, 25.5, series[49].SMA50, 1e-9)
	// 200-day window never fills on 60 records.
	assert.Zero(t, series[59].SMA200)
}

func sequentialDate(i int) string {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02")
}
