package psx

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
)

// The DPS historical endpoint answers with a bare HTML table, no JSON
// variant exists. Rows with fewer than six cells (headers, separators)
// and rows that fail to parse are skipped.
var (
	rowRe  = regexp.MustCompile(`(?s)<tr>.*?</tr>`)
	cellRe = regexp.MustCompile(`<td[^>]*>([^<]+)</td>`)
)

const dpsDateLayout = "Jan 2, 2006"

// parseHistoricalTable extracts OHLCV candles from a DPS historical HTML page.
func parseHistoricalTable(html string) []models.Candle {
	rows := rowRe.FindAllString(html, -1)
	candles := make([]models.Candle, 0, len(rows))

	for _, row := range rows {
		cells := cellRe.FindAllStringSubmatch(row, -1)
		if len(cells) < 6 {
			continue
		}

		date, err := time.Parse(dpsDateLayout, strings.TrimSpace(cells[0][1]))
		if err != nil {
			continue
		}

		vals := make([]float64, 5)
		ok := true
		for i := 0; i < 5; i++ {
			v, err := parseNumber(cells[i+1][1])
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		candles = append(candles, models.Candle{
			Date:   date.Format("2006-01-02"),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	return candles
}

// parseNumber parses a DPS numeric cell, tolerating thousands separators.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}
