package usecase

import (
	"carverify/internal/domain"
)

const (
	MaxRiskScore        = 100
	HighRiskThreshold   = 40
	MediumRiskThreshold = 15

	recommendUpgrade      = "Consider upgrading to Standard report for more details."
	recommendCleanHistory = "Vehicle appears to have clean history"
	recommendInspection   = "Still recommend professional inspection."
)

type RiskAssessment struct {
	Score           int
	Level           domain.RiskLevel
	Factors         []string
	Recommendations []string
}

type riskInput struct {
	ppsr    domain.PPSRResult
	nevdis  *domain.NEVDISResult
	pricing *domain.VehiclePricing
}

type riskRule struct {
	applies        func(riskInput) bool
	delta          int
	factor         string
	recommendation string
}

// riskRules is evaluated in order; the order fixes message ordering only.
var riskRules = []riskRule{
	{
		applies:        func(in riskInput) bool { return in.ppsr.IsFinanceOwing },
		delta:          40,
		factor:         "Finance still owing on vehicle",
		recommendation: "Ensure finance is cleared before purchase",
	},
	{
		applies:        func(in riskInput) bool { return in.ppsr.IsStolen },
		delta:          50,
		factor:         "Vehicle reported as stolen",
		recommendation: "DO NOT PURCHASE - Contact authorities",
	},
	{
		applies:        func(in riskInput) bool { return in.ppsr.IsWrittenOff },
		delta:          30,
		factor:         "Vehicle previously written off",
		recommendation: "Get professional inspection before purchase",
	},
	{
		applies: func(in riskInput) bool {
			return in.nevdis != nil && in.nevdis.IsWrittenOff && in.nevdis.WriteOffType == domain.WriteOffTotalLoss
		},
		delta:          20,
		factor:         "Classified as total loss write-off",
		recommendation: "Vehicle may have significant damage history",
	},
	{
		applies:        func(in riskInput) bool { return in.nevdis != nil && in.nevdis.IsStolen },
		delta:          50,
		factor:         "Vehicle in stolen vehicle database",
		recommendation: "DO NOT PURCHASE - Contact authorities",
	},
	{
		applies:        func(in riskInput) bool { return in.pricing != nil && in.pricing.MarketPosition == domain.MarketBelow },
		delta:          10,
		factor:         "Priced below market average",
		recommendation: "Investigate why price is below market value",
	},
	{
		applies:        func(in riskInput) bool { return in.pricing != nil && in.pricing.PriceConfidence == domain.ConfidenceLow },
		delta:          5,
		factor:         "Limited pricing data available",
		recommendation: "Get additional vehicle valuation",
	},
}

// AnalyzeRisk scores whatever subset of results is available. It is pure:
// the same inputs always give the same assessment.
func AnalyzeRisk(ppsr domain.PPSRResult, nevdis *domain.NEVDISResult, pricing *domain.VehiclePricing) RiskAssessment {
	in := riskInput{ppsr: ppsr, nevdis: nevdis, pricing: pricing}
	out := RiskAssessment{
		Factors:         []string{},
		Recommendations: []string{},
	}
	for _, rule := range riskRules {
		if !rule.applies(in) {
			continue
		}
		out.Score += rule.delta
		out.Factors = append(out.Factors, rule.factor)
		out.Recommendations = append(out.Recommendations, rule.recommendation)
	}

	if nevdis == nil && pricing == nil {
		out.Recommendations = append(out.Recommendations, recommendUpgrade)
	}
	if out.Score == 0 {
		out.Recommendations = append(out.Recommendations, recommendCleanHistory, recommendInspection)
	}

	out.Score = min(out.Score, MaxRiskScore)
	out.Level = RiskLevelFor(out.Score)
	return out
}

func RiskLevelFor(score int) domain.RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return domain.RiskHigh
	case score >= MediumRiskThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
