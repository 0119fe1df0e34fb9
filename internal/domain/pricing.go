package domain

import (
	"strings"
	"time"
)

type MarketPosition string

const (
	MarketBelow MarketPosition = "below"
	MarketAt    MarketPosition = "at"
	MarketAbove MarketPosition = "above"
)

type PriceConfidence string

const (
	ConfidenceHigh   PriceConfidence = "high"
	ConfidenceMedium PriceConfidence = "medium"
	ConfidenceLow    PriceConfidence = "low"
)

type PriceChange string

const (
	PriceIncreasing PriceChange = "increasing"
	PriceStable     PriceChange = "stable"
	PriceDecreasing PriceChange = "decreasing"
)

type PricingSource string

const (
	SourceRedBook PricingSource = "redbook"
	SourceGlass   PricingSource = "glass"
	SourceMock    PricingSource = "mock"
)

// Provider payloads use free-form strings; these helpers fold them onto the
// enums and fall back to the neutral value.

func ParseMarketPosition(v string) MarketPosition {
	switch MarketPosition(strings.ToLower(strings.TrimSpace(v))) {
	case MarketBelow:
		return MarketBelow
	case MarketAbove:
		return MarketAbove
	}
	return MarketAt
}

func ParsePriceConfidence(v string) PriceConfidence {
	switch PriceConfidence(strings.ToLower(strings.TrimSpace(v))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceLow:
		return ConfidenceLow
	}
	return ConfidenceMedium
}

func ParsePriceChange(v string) PriceChange {
	switch PriceChange(strings.ToLower(strings.TrimSpace(v))) {
	case PriceIncreasing, "up", "rising":
		return PriceIncreasing
	case PriceDecreasing, "down", "falling":
		return PriceDecreasing
	}
	return PriceStable
}

type PricingRequest struct {
	Make      string
	Model     string
	Year      int
	VIN       string
	Rego      string
	State     State
	Odometer  int
	Condition string
}

type VehiclePricing struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Variant   string `json:"variant,omitempty"`
	Odometer  int    `json:"odometer,omitempty"`
	Condition string `json:"condition"`

	RetailValue  float64 `json:"retailValue"`
	TradeValue   float64 `json:"tradeValue"`
	PrivateValue float64 `json:"privateValue"`

	MarketPosition  MarketPosition  `json:"marketPosition"`
	PriceConfidence PriceConfidence `json:"priceConfidence"`

	Price30Days float64     `json:"price30Days"`
	Price90Days float64     `json:"price90Days"`
	PriceChange PriceChange `json:"priceChange"`

	AverageKmsForYear    int  `json:"averageKmsForYear"`
	MarketListings       int  `json:"marketListings"`
	DaysSinceFirstListed *int `json:"daysSinceFirstListed,omitempty"`

	DataSource  PricingSource `json:"dataSource"`
	LastUpdated time.Time     `json:"lastUpdated"`
}
