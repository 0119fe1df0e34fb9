package domain

import (
	"strings"
	"time"
)

const SecurityInterestFinance = "FINANCE"

type SecurityInterest struct {
	Type           string   `json:"type"`
	RegisteredDate string   `json:"registeredDate"`
	SecuredParty   string   `json:"securedParty"`
	Amount         *float64 `json:"amount,omitempty"`
	Description    string   `json:"description"`
}

// PPSRResult is the outcome of one PPSR search. A fresh value is built per
// search and never cached. RawData keeps the provider payload verbatim
// (SOAP XML for B2G searches) for audit.
type PPSRResult struct {
	VehicleVIN        string             `json:"vehicleVin,omitempty"`
	VehicleRego       string             `json:"vehicleRego,omitempty"`
	VehicleState      State              `json:"vehicleState,omitempty"`
	IsFinanceOwing    bool               `json:"isFinanceOwing"`
	IsStolen          bool               `json:"isStolen"`
	IsWrittenOff      bool               `json:"isWrittenOff"`
	CertificateNumber string             `json:"certificateNumber"`
	SearchDate        time.Time          `json:"searchDate"`
	SecurityInterests []SecurityInterest `json:"securityInterests"`
	RawData           string             `json:"rawData,omitempty"`
}

// FinanceOwing is the single derivation of the finance-owing flag: any
// registered interest of type FINANCE.
func FinanceOwing(interests []SecurityInterest) bool {
	for _, si := range interests {
		if strings.EqualFold(strings.TrimSpace(si.Type), SecurityInterestFinance) {
			return true
		}
	}
	return false
}
