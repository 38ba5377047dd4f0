package models

// Candle represents one daily OHLCV record for a PSX symbol, plus derived
// indicator columns filled in after the raw series is assembled.
type Candle struct {
	Date   string  `json:"date"` // YYYY-MM-DD, unique per symbol
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`

	// Derived, non-authoritative fields consumed by feature engineering.
	PriceChange    float64 `json:"price_change,omitempty"`
	PriceChangePct float64 `json:"price_change_pct,omitempty"`
	VolumeChange   float64 `json:"volume_change,omitempty"`
	SMA20          float64 `json:"sma_20,omitempty"`
	SMA50          float64 `json:"sma_50,omitempty"`
	SMA200         float64 `json:"sma_200,omitempty"`
}

// Stock is one entry of the immutable prediction registry: a tracked PSX
// instrument and its display metadata. Registry order is execution order.
type Stock struct {
	Symbol  string  `json:"symbol" yaml:"symbol"`
	Company string  `json:"company" yaml:"company"`
	Sector  string  `json:"sector" yaml:"sector"`
	PERatio float64 `json:"pe_ratio" yaml:"pe_ratio"`
}
