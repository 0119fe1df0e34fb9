package pricing

import (
	"context"
	"math"
	"strings"
	"time"

	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"
)

const (
	defaultBasePrice   = 30000.0
	annualDepreciation = 0.85
	kmsPerYear         = 15000
	genericListings    = 40
)

// basePrices is the new-vehicle anchor price per make, in AUD.
var basePrices = map[string]float64{
	"toyota":        35000,
	"mazda":         33000,
	"holden":        30000,
	"ford":          38000,
	"hyundai":       28000,
	"kia":           29000,
	"subaru":        34000,
	"mitsubishi":    30000,
	"nissan":        32000,
	"honda":         32000,
	"volkswagen":    36000,
	"bmw":           60000,
	"mercedes-benz": 65000,
	"audi":          58000,
	"tesla":         70000,
}

// MockProvider synthesises a plausible valuation. Requests that carry a VIN
// or rego use that identifier's scenario; others are priced from make, year
// and odometer alone.
type MockProvider struct {
	now func() time.Time
}

func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now}
}

func (p *MockProvider) Name() string { return string(domain.SourceMock) }

func (p *MockProvider) Quote(_ context.Context, req domain.PricingRequest) (*domain.VehiclePricing, error) {
	now := p.now()
	if sc, ok := scenarioFor(req); ok {
		return p.fromScenario(req, sc, now), nil
	}
	return p.generic(req, now), nil
}

func scenarioFor(req domain.PricingRequest) (mockdata.Scenario, bool) {
	var (
		id  domain.VehicleIdentifier
		err error
	)
	switch {
	case req.VIN != "":
		id, err = domain.NewVINIdentifier(req.VIN)
	case req.Rego != "":
		id, err = domain.NewRegoIdentifier(req.Rego, req.State)
	default:
		return mockdata.Scenario{}, false
	}
	if err != nil {
		return mockdata.Scenario{}, false
	}
	return mockdata.For(id), true
}

func (p *MockProvider) generic(req domain.PricingRequest, now time.Time) *domain.VehiclePricing {
	out := baseQuote(req, domain.SourceMock, now)
	age := vehicleAge(req.Year, now)
	retail := retailEstimate(req.Make, age, req.Odometer)

	out.RetailValue = math.Round(retail)
	out.TradeValue = math.Round(retail * 0.8)
	out.PrivateValue = math.Round(retail * 0.9)
	out.MarketPosition = marketPosition(age, req.Odometer)
	out.PriceConfidence = domain.ConfidenceLow
	if _, ok := basePrices[strings.ToLower(strings.TrimSpace(req.Make))]; ok {
		out.PriceConfidence = domain.ConfidenceMedium
	}
	out.Price30Days, out.Price90Days = history(out.RetailValue, domain.PriceStable)
	out.AverageKmsForYear = expectedKms(age)
	out.MarketListings = genericListings
	return out
}

func (p *MockProvider) fromScenario(req domain.PricingRequest, sc mockdata.Scenario, now time.Time) *domain.VehiclePricing {
	out := baseQuote(req, domain.SourceMock, now)
	out.Make = sc.Make
	out.Model = sc.Model
	out.Year = sc.Year
	out.Variant = sc.Variant
	out.Odometer = req.Odometer
	if out.Odometer <= 0 {
		out.Odometer = sc.Odometer
	}

	age := vehicleAge(sc.Year, now)
	retail := retailEstimate(sc.Make, age, out.Odometer)
	// Trade comes from the scenario; keep retail above it by the usual margin.
	if retail*0.8 < sc.TradeValue {
		retail = sc.TradeValue / 0.8
	}
	out.RetailValue = math.Round(retail)
	out.TradeValue = math.Round(sc.TradeValue)
	out.PrivateValue = math.Round(retail * 0.9)
	out.MarketPosition = marketPosition(age, out.Odometer)
	out.PriceConfidence = sc.Confidence
	if out.PriceConfidence == "" {
		out.PriceConfidence = domain.ConfidenceHigh
	}
	out.PriceChange = sc.PriceChange
	if out.PriceChange == "" {
		out.PriceChange = domain.PriceStable
	}
	out.Price30Days, out.Price90Days = history(out.RetailValue, out.PriceChange)
	out.AverageKmsForYear = expectedKms(age)
	out.MarketListings = sc.Listings
	return out
}

func vehicleAge(year int, now time.Time) int {
	if year <= 0 || year > now.Year() {
		return 0
	}
	return now.Year() - year
}

func expectedKms(age int) int {
	return max(age, 1) * kmsPerYear
}

func retailEstimate(brand string, age, odometer int) float64 {
	base, ok := basePrices[strings.ToLower(strings.TrimSpace(brand))]
	if !ok {
		base = defaultBasePrice
	}
	value := base * math.Pow(annualDepreciation, float64(age))
	if odometer <= 0 {
		return value
	}
	ratio := float64(odometer) / float64(expectedKms(age))
	switch {
	case ratio < 0.7:
		value *= 1.1
	case ratio > 1.5:
		value *= 0.8
	}
	return value
}

// marketPosition: high mileage prices below market, low mileage above.
func marketPosition(age, odometer int) domain.MarketPosition {
	if odometer <= 0 {
		return domain.MarketAt
	}
	ratio := float64(odometer) / float64(expectedKms(age))
	switch {
	case ratio > 1.5:
		return domain.MarketBelow
	case ratio < 0.7:
		return domain.MarketAbove
	}
	return domain.MarketAt
}

// history returns the price 30 and 90 days ago implied by the trend.
func history(retail float64, change domain.PriceChange) (float64, float64) {
	switch change {
	case domain.PriceIncreasing:
		return math.Round(retail * 0.98), math.Round(retail * 0.95)
	case domain.PriceDecreasing:
		return math.Round(retail * 1.02), math.Round(retail * 1.05)
	}
	return retail, retail
}
