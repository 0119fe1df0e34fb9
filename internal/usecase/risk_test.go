package usecase

import (
	"testing"

	"carverify/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevelBoundaries(t *testing.T) {
	cases := map[int]domain.RiskLevel{
		0:   domain.RiskLow,
		14:  domain.RiskLow,
		15:  domain.RiskMedium,
		39:  domain.RiskMedium,
		40:  domain.RiskHigh,
		100: domain.RiskHigh,
	}
	for score, want := range cases {
		assert.Equal(t, want, RiskLevelFor(score), "score %d", score)
	}
}

func TestAnalyzeRiskCleanBasic(t *testing.T) {
	got := AnalyzeRisk(domain.PPSRResult{}, nil, nil)
	assert.Zero(t, got.Score)
	assert.Equal(t, domain.RiskLow, got.Level)
	assert.NotNil(t, got.Factors)
	assert.Empty(t, got.Factors)
	assert.Equal(t, []string{recommendUpgrade, recommendCleanHistory, recommendInspection}, got.Recommendations)
}

func TestAnalyzeRiskCleanWithRegistryData(t *testing.T) {
	got := AnalyzeRisk(domain.PPSRResult{}, &domain.NEVDISResult{}, &domain.VehiclePricing{MarketPosition: domain.MarketAt, PriceConfidence: domain.ConfidenceHigh})
	assert.Zero(t, got.Score)
	assert.Empty(t, got.Factors)
	assert.Equal(t, []string{recommendCleanHistory, recommendInspection}, got.Recommendations)
}

func TestAnalyzeRiskTable(t *testing.T) {
	finance := AnalyzeRisk(domain.PPSRResult{IsFinanceOwing: true}, nil, nil)
	assert.Equal(t, 40, finance.Score)
	assert.Equal(t, domain.RiskHigh, finance.Level)
	assert.Equal(t, []string{"Finance still owing on vehicle"}, finance.Factors)
	assert.Equal(t, []string{"Ensure finance is cleared before purchase", recommendUpgrade}, finance.Recommendations)

	totalLoss := AnalyzeRisk(domain.PPSRResult{}, &domain.NEVDISResult{IsWrittenOff: true, WriteOffType: domain.WriteOffTotalLoss}, nil)
	assert.Equal(t, 20, totalLoss.Score)
	assert.Equal(t, domain.RiskMedium, totalLoss.Level)

	repairable := AnalyzeRisk(domain.PPSRResult{}, &domain.NEVDISResult{IsWrittenOff: true, WriteOffType: domain.WriteOffRepairable}, nil)
	assert.Zero(t, repairable.Score)

	below := AnalyzeRisk(domain.PPSRResult{}, nil, &domain.VehiclePricing{MarketPosition: domain.MarketBelow, PriceConfidence: domain.ConfidenceLow})
	assert.Equal(t, 15, below.Score)
	assert.Equal(t, domain.RiskMedium, below.Level)
	assert.Equal(t, []string{"Priced below market average", "Limited pricing data available"}, below.Factors)

	lowConfidence := AnalyzeRisk(domain.PPSRResult{}, nil, &domain.VehiclePricing{PriceConfidence: domain.ConfidenceLow})
	assert.Equal(t, 5, lowConfidence.Score)
	assert.Equal(t, domain.RiskLow, lowConfidence.Level)
}

func TestAnalyzeRiskClampsAt100(t *testing.T) {
	got := AnalyzeRisk(
		domain.PPSRResult{IsFinanceOwing: true, IsStolen: true, IsWrittenOff: true},
		&domain.NEVDISResult{IsStolen: true, IsWrittenOff: true, WriteOffType: domain.WriteOffTotalLoss},
		&domain.VehiclePricing{MarketPosition: domain.MarketBelow, PriceConfidence: domain.ConfidenceLow},
	)
	assert.Equal(t, MaxRiskScore, got.Score)
	assert.Equal(t, domain.RiskHigh, got.Level)
	assert.Len(t, got.Factors, len(riskRules))
}

// Every combination of conditions: switching one more on never lowers the score.
func TestAnalyzeRiskMonotonic(t *testing.T) {
	build := func(mask int) (domain.PPSRResult, *domain.NEVDISResult, *domain.VehiclePricing) {
		ppsr := domain.PPSRResult{
			IsFinanceOwing: mask&1 != 0,
			IsStolen:       mask&2 != 0,
			IsWrittenOff:   mask&4 != 0,
		}
		nevdis := &domain.NEVDISResult{IsStolen: mask&16 != 0}
		if mask&8 != 0 {
			nevdis.IsWrittenOff = true
			nevdis.WriteOffType = domain.WriteOffTotalLoss
		}
		pricing := &domain.VehiclePricing{MarketPosition: domain.MarketAt, PriceConfidence: domain.ConfidenceHigh}
		if mask&32 != 0 {
			pricing.MarketPosition = domain.MarketBelow
		}
		if mask&64 != 0 {
			pricing.PriceConfidence = domain.ConfidenceLow
		}
		return ppsr, nevdis, pricing
	}

	for mask := 0; mask < 128; mask++ {
		base := AnalyzeRisk(build(mask))
		assert.GreaterOrEqual(t, base.Score, 0)
		assert.LessOrEqual(t, base.Score, MaxRiskScore)
		for bit := 0; bit < 7; bit++ {
			if mask&(1<<bit) != 0 {
				continue
			}
			with := AnalyzeRisk(build(mask | 1<<bit))
			assert.GreaterOrEqual(t, with.Score, base.Score, "mask %07b bit %d", mask, bit)
		}
	}
}
