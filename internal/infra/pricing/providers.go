package pricing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"carverify/internal/domain"
	"carverify/internal/infra/connector"
)

const defaultCondition = "average"

type ProviderConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

type valuationRequest struct {
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         int    `json:"year,omitempty"`
	VIN          string `json:"vin,omitempty"`
	Registration string `json:"registration,omitempty"`
	State        string `json:"state,omitempty"`
	Odometer     int    `json:"odometer,omitempty"`
	Condition    string `json:"condition,omitempty"`
}

func newValuationRequest(req domain.PricingRequest) valuationRequest {
	return valuationRequest{
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		VIN:          req.VIN,
		Registration: req.Rego,
		State:        string(req.State),
		Odometer:     req.Odometer,
		Condition:    req.Condition,
	}
}

// RedBook calls the RedBook valuation API with a bearer key.
type RedBook struct {
	*connector.Base
	endpoint string
	apiKey   string
	now      func() time.Time
}

func NewRedBook(cfg ProviderConfig) *RedBook {
	return &RedBook{
		Base:     connector.NewBase(string(domain.SourceRedBook), cfg.Timeout, cfg.RateLimit, cfg.RateBurst),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/v1/valuations",
		apiKey:   cfg.APIKey,
		now:      time.Now,
	}
}

type redbookValuation struct {
	Vehicle *struct {
		Make    *string `json:"make"`
		Model   *string `json:"model"`
		Year    *int    `json:"year"`
		Variant *string `json:"variant"`
	} `json:"vehicle"`
	Valuation *struct {
		Retail  *float64 `json:"retail"`
		Trade   *float64 `json:"trade"`
		Private *float64 `json:"private"`
	} `json:"valuation"`
	MarketPosition *string `json:"marketPosition"`
	Confidence     *string `json:"confidence"`
	Trend          *struct {
		Price30Days *float64 `json:"price30Days"`
		Price90Days *float64 `json:"price90Days"`
		Direction   *string  `json:"direction"`
	} `json:"trend"`
	Market *struct {
		AverageKms           *int `json:"averageKms"`
		Listings             *int `json:"listings"`
		DaysSinceFirstListed *int `json:"daysSinceFirstListed"`
	} `json:"market"`
	LastUpdated *string `json:"lastUpdated"`
}

func (p *RedBook) Quote(ctx context.Context, req domain.PricingRequest) (*domain.VehiclePricing, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)
	var v redbookValuation
	if _, err := p.DoJSON(ctx, http.MethodPost, p.endpoint, header, newValuationRequest(req), &v); err != nil {
		return nil, err
	}
	return mapRedBook(v, req, p.now())
}

func mapRedBook(v redbookValuation, req domain.PricingRequest, now time.Time) (*domain.VehiclePricing, error) {
	out := baseQuote(req, domain.SourceRedBook, now)
	if v.Vehicle != nil {
		out.Make = orString(v.Vehicle.Make, out.Make)
		out.Model = orString(v.Vehicle.Model, out.Model)
		out.Year = orInt(v.Vehicle.Year, out.Year)
		out.Variant = orString(v.Vehicle.Variant, "")
	}
	if v.Valuation != nil {
		out.RetailValue = orFloat(v.Valuation.Retail)
		out.TradeValue = orFloat(v.Valuation.Trade)
		out.PrivateValue = orFloat(v.Valuation.Private)
	}
	out.MarketPosition = domain.ParseMarketPosition(orString(v.MarketPosition, ""))
	out.PriceConfidence = domain.ParsePriceConfidence(orString(v.Confidence, ""))
	if v.Trend != nil {
		out.Price30Days = orFloat(v.Trend.Price30Days)
		out.Price90Days = orFloat(v.Trend.Price90Days)
		out.PriceChange = domain.ParsePriceChange(orString(v.Trend.Direction, ""))
	}
	if v.Market != nil {
		out.AverageKmsForYear = orInt(v.Market.AverageKms, 0)
		out.MarketListings = orInt(v.Market.Listings, 0)
		out.DaysSinceFirstListed = v.Market.DaysSinceFirstListed
	}
	out.LastUpdated = orTime(v.LastUpdated, now)
	if err := checkQuote(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Glass calls the Glass's Guide API. Its payload is flat.
type Glass struct {
	*connector.Base
	endpoint string
	apiKey   string
	now      func() time.Time
}

func NewGlass(cfg ProviderConfig) *Glass {
	return &Glass{
		Base:     connector.NewBase(string(domain.SourceGlass), cfg.Timeout, cfg.RateLimit, cfg.RateBurst),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/api/vehicle-value",
		apiKey:   cfg.APIKey,
		now:      time.Now,
	}
}

type glassValuation struct {
	Make         *string  `json:"make"`
	Model        *string  `json:"model"`
	Year         *int     `json:"year"`
	Series       *string  `json:"series"`
	RetailPrice  *float64 `json:"retailPrice"`
	TradePrice   *float64 `json:"tradePrice"`
	PrivatePrice *float64 `json:"privatePrice"`
	Position     *string  `json:"position"`
	Confidence   *string  `json:"confidenceLevel"`
	Price30d     *float64 `json:"price30d"`
	Price90d     *float64 `json:"price90d"`
	Trend        *string  `json:"trend"`
	AvgKms       *int     `json:"avgKms"`
	ListingCount *int     `json:"listingCount"`
	DaysListed   *int     `json:"daysListed"`
	UpdatedAt    *string  `json:"updatedAt"`
}

func (p *Glass) Quote(ctx context.Context, req domain.PricingRequest) (*domain.VehiclePricing, error) {
	header := http.Header{}
	header.Set("X-Glass-Api-Key", p.apiKey)
	var v glassValuation
	if _, err := p.DoJSON(ctx, http.MethodPost, p.endpoint, header, newValuationRequest(req), &v); err != nil {
		return nil, err
	}
	return mapGlass(v, req, p.now())
}

func mapGlass(v glassValuation, req domain.PricingRequest, now time.Time) (*domain.VehiclePricing, error) {
	out := baseQuote(req, domain.SourceGlass, now)
	out.Make = orString(v.Make, out.Make)
	out.Model = orString(v.Model, out.Model)
	out.Year = orInt(v.Year, out.Year)
	out.Variant = orString(v.Series, "")
	out.RetailValue = orFloat(v.RetailPrice)
	out.TradeValue = orFloat(v.TradePrice)
	out.PrivateValue = orFloat(v.PrivatePrice)
	out.MarketPosition = domain.ParseMarketPosition(orString(v.Position, ""))
	out.PriceConfidence = domain.ParsePriceConfidence(orString(v.Confidence, ""))
	out.Price30Days = orFloat(v.Price30d)
	out.Price90Days = orFloat(v.Price90d)
	out.PriceChange = domain.ParsePriceChange(orString(v.Trend, ""))
	out.AverageKmsForYear = orInt(v.AvgKms, 0)
	out.MarketListings = orInt(v.ListingCount, 0)
	out.DaysSinceFirstListed = v.DaysListed
	out.LastUpdated = orTime(v.UpdatedAt, now)
	if err := checkQuote(out); err != nil {
		return nil, err
	}
	return out, nil
}

func baseQuote(req domain.PricingRequest, source domain.PricingSource, now time.Time) *domain.VehiclePricing {
	condition := req.Condition
	if condition == "" {
		condition = defaultCondition
	}
	return &domain.VehiclePricing{
		Make:            req.Make,
		Model:           req.Model,
		Year:            req.Year,
		Odometer:        req.Odometer,
		Condition:       condition,
		MarketPosition:  domain.MarketAt,
		PriceConfidence: domain.ConfidenceMedium,
		PriceChange:     domain.PriceStable,
		DataSource:      source,
		LastUpdated:     now,
	}
}

// checkQuote rejects answers without a usable retail value so the chain
// moves on to the next provider.
func checkQuote(q *domain.VehiclePricing) error {
	if q.RetailValue <= 0 || math.IsNaN(q.RetailValue) || math.IsInf(q.RetailValue, 0) {
		return fmt.Errorf("%s: %w: missing retail value", q.DataSource, domain.ErrMalformedResponse)
	}
	return nil
}

func orString(p *string, def string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return def
	}
	return strings.TrimSpace(*p)
}

func orInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func orFloat(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return *p
}

func orTime(p *string, def time.Time) time.Time {
	if p == nil {
		return def
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(*p)); err == nil {
		return t
	}
	return def
}
