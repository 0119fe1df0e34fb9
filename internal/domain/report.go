package domain

import (
	"fmt"
	"strings"
	"time"
)

type ReportType string

const (
	ReportBasic    ReportType = "BASIC"
	ReportStandard ReportType = "STANDARD"
	ReportPremium  ReportType = "PREMIUM"
)

// ParseReportType is case-insensitive; an empty value means BASIC.
func ParseReportType(v string) (ReportType, error) {
	switch ReportType(strings.ToUpper(strings.TrimSpace(v))) {
	case "", ReportBasic:
		return ReportBasic, nil
	case ReportStandard:
		return ReportStandard, nil
	case ReportPremium:
		return ReportPremium, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReportType, v)
}

// IncludesRegistry reports whether NEVDIS and pricing are fetched for this tier.
func (t ReportType) IncludesRegistry() bool {
	return t == ReportStandard || t == ReportPremium
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type DataQuality string

const (
	QualityComplete DataQuality = "complete"
	QualityPartial  DataQuality = "partial"
	QualityLimited  DataQuality = "limited"
)

func DataQualityFor(errorCount int) DataQuality {
	switch {
	case errorCount <= 0:
		return QualityComplete
	case errorCount == 1:
		return QualityPartial
	default:
		return QualityLimited
	}
}

type ReportSummary struct {
	IsFinanceOwing bool      `json:"isFinanceOwing"`
	IsStolen       bool      `json:"isStolen"`
	IsWrittenOff   bool      `json:"isWrittenOff"`
	MarketValue    *float64  `json:"marketValue,omitempty"`
	RiskLevel      RiskLevel `json:"riskLevel"`
}

// VehicleReport is the aggregate returned to checkout and admin callers. PPSR
// is always present; NEVDIS and Pricing only for STANDARD and PREMIUM.
type VehicleReport struct {
	ID                string            `json:"id"`
	VehicleIdentifier VehicleIdentifier `json:"vehicleIdentifier"`
	ReportType        ReportType        `json:"reportType"`
	GeneratedAt       time.Time         `json:"generatedAt"`
	UserID            string            `json:"userId,omitempty"`
	OrderID           string            `json:"orderId,omitempty"`

	PPSR    PPSRResult      `json:"ppsr"`
	NEVDIS  *NEVDISResult   `json:"nevdis,omitempty"`
	Pricing *VehiclePricing `json:"pricing,omitempty"`

	RiskScore       int      `json:"riskScore"`
	RiskFactors     []string `json:"riskFactors"`
	Recommendations []string `json:"recommendations"`

	Summary        ReportSummary `json:"summary"`
	DataQuality    DataQuality   `json:"dataQuality"`
	CompletionTime int64         `json:"completionTime"`
	Errors         []string      `json:"errors,omitempty"`
}

// BuildSummary flattens the stolen and write-off flags from PPSR and NEVDIS
// with a logical OR.
func BuildSummary(ppsr PPSRResult, nevdis *NEVDISResult, pricing *VehiclePricing, level RiskLevel) ReportSummary {
	summary := ReportSummary{
		IsFinanceOwing: ppsr.IsFinanceOwing,
		IsStolen:       ppsr.IsStolen,
		IsWrittenOff:   ppsr.IsWrittenOff,
		RiskLevel:      level,
	}
	if nevdis != nil {
		summary.IsStolen = summary.IsStolen || nevdis.IsStolen
		summary.IsWrittenOff = summary.IsWrittenOff || nevdis.IsWrittenOff
	}
	if pricing != nil {
		value := pricing.RetailValue
		summary.MarketValue = &value
	}
	return summary
}
