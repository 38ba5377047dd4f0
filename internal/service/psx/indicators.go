package psx

import (
	"sort"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
)

var smaWindows = []int{20, 50, 200}

// enrichSeries deduplicates candles by date, sorts them chronologically,
// and fills in day-over-day changes plus simple moving averages.
// Change columns stay zero on the first row; an SMA stays zero until its
// window is fully covered.
func enrichSeries(candles []models.Candle) []models.Candle {
	if len(candles) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(candles))
	series := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Date == "" {
			continue
		}
		if _, dup := seen[c.Date]; dup {
			continue
		}
		seen[c.Date] = struct{}{}
		series = append(series, c)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	for i := range series {
		if i > 0 {
			prev := series[i-1]
			series[i].PriceChange = series[i].Close - prev.Close
			if prev.Close != 0 {
				series[i].PriceChangePct = (series[i].Close - prev.Close) / prev.Close * 100
			}
			series[i].VolumeChange = series[i].Volume - prev.Volume
		}

		for _, w := range smaWindows {
			if i+1 < w {
				continue
			}
			var sum float64
			for j := i + 1 - w; j <= i; j++ {
				sum += series[j].Close
			}
			avg := sum / float64(w)
			switch w {
			case 20:
				series[i].SMA20 = avg
			case 50:
				series[i].SMA50 = avg
			case 200:
				series[i].SMA200 = avg
			}
		}
	}

	return series
}
