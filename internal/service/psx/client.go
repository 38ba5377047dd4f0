package psx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	xhttp "github.com/BurhanCantCode/BaqiAI/pkg/http"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"

	"golang.org/x/time/rate"
)

var (
	// ErrDataUnavailable means DPS returned no rows for the symbol at all.
	ErrDataUnavailable = errors.New("psx: no historical data available")
	// ErrInsufficientHistory means the symbol trades but has too few records
	// for the model's longest indicator window.
	ErrInsufficientHistory = errors.New("psx: insufficient trading history")
)

// ClientOption configures Client.
type ClientOption func(*Client)

// Client fetches historical OHLCV series from the PSX Data Portal.
// The portal only serves one month per request, so a full series is
// assembled from monthly pages fetched under a rate limiter.
type Client struct {
	baseURL    string
	startYear  int
	startMonth int
	minRecords int

	http    *xhttp.Client
	limiter *rate.Limiter
	logger  *applogger.Logger
	now     func() time.Time
}

// NewClient creates a PSX MarketData client.
func NewClient(baseURL string, opts ...ClientOption) drepo.MarketData {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		startYear:  2020,
		startMonth: 1,
		minRecords: 200,
		http:       xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithStart sets the first month of history to request.
func WithStart(year, month int) ClientOption {
	return func(c *Client) {
		c.startYear = year
		c.startMonth = month
	}
}

// WithMinRecords sets the minimum series length required downstream.
func WithMinRecords(n int) ClientOption {
	return func(c *Client) {
		c.minRecords = n
	}
}

// WithRequestTimeout sets per-request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http = xhttp.NewClient(xhttp.WithTimeout(timeout))
		}
	}
}

// WithRequestsPerSec caps the monthly page request rate.
func WithRequestsPerSec(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// FetchSeries downloads the full daily history for symbol, month by month,
// deduplicates it and computes the indicator columns. Individual month
// failures are skipped; the whole fetch fails only when nothing came back
// or the assembled series is too short.
func (c *Client) FetchSeries(ctx context.Context, symbol string) ([]models.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("psx: empty symbol")
	}

	nowT := c.now()
	curYear, curMonth := nowT.Year(), int(nowT.Month())

	var raw []models.Candle
	for year := c.startYear; year <= curYear; year++ {
		firstMonth := 1
		if year == c.startYear {
			firstMonth = c.startMonth
		}
		lastMonth := 12
		if year == curYear {
			lastMonth = curMonth
		}

		for month := firstMonth; month <= lastMonth; month++ {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}

			page, err := c.fetchMonth(ctx, symbol, month, year)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.debugf("psx month fetch failed", symbol, month, year, err)
				continue
			}
			raw = append(raw, parseHistoricalTable(page)...)
		}
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, symbol)
	}

	series := enrichSeries(raw)
	if len(series) < c.minRecords {
		return nil, fmt.Errorf("%w: %s has %d records, need %d",
			ErrInsufficientHistory, symbol, len(series), c.minRecords)
	}

	if c.logger != nil {
		c.logger.Debug("psx series assembled",
			applogger.String("symbol", symbol),
			applogger.Int("records", len(series)),
		)
	}
	return series, nil
}

func (c *Client) fetchMonth(ctx context.Context, symbol string, month, year int) (string, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/historical",
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: map[string]string{
			"month":  strconv.Itoa(month),
			"year":   strconv.Itoa(year),
			"symbol": symbol,
		},
	}, &body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) debugf(msg, symbol string, month, year int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg,
		applogger.String("symbol", symbol),
		applogger.Int("month", month),
		applogger.Int("year", year),
		applogger.Error(err),
	)
}
