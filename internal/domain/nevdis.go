package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type WriteOffType string

const (
	WriteOffTotalLoss  WriteOffType = "total-loss"
	WriteOffStatutory  WriteOffType = "statutory"
	WriteOffRepairable WriteOffType = "repairable"
	WriteOffHailDamage WriteOffType = "hail-damage"
)

// ParseWriteOffType accepts the provider spellings (TOTAL_LOSS, Total Loss,
// total-loss) and returns "" for anything unrecognised.
func ParseWriteOffType(v string) WriteOffType {
	norm := strings.ToLower(strings.TrimSpace(v))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch WriteOffType(norm) {
	case WriteOffTotalLoss, WriteOffStatutory, WriteOffRepairable, WriteOffHailDamage:
		return WriteOffType(norm)
	case "hail":
		return WriteOffHailDamage
	}
	return ""
}

type NEVDISResult struct {
	VehicleVIN   string          `json:"vehicleVin,omitempty"`
	VehicleRego  string          `json:"vehicleRego,omitempty"`
	VehicleState State           `json:"vehicleState,omitempty"`
	IsStolen     bool            `json:"isStolen"`
	IsWrittenOff bool            `json:"isWrittenOff"`
	WriteOffType WriteOffType    `json:"writeOffType,omitempty"`
	WriteOffDate *time.Time      `json:"writeOffDate,omitempty"`
	StolenDate   *time.Time      `json:"stolenDate,omitempty"`
	Jurisdiction string          `json:"jurisdiction"`
	Make         string          `json:"make,omitempty"`
	Model        string          `json:"model,omitempty"`
	Year         int             `json:"year,omitempty"`
	BodyType     string          `json:"bodyType,omitempty"`
	Colour       string          `json:"colour,omitempty"`
	EngineNumber string          `json:"engineNumber,omitempty"`
	Compliance   string          `json:"compliance,omitempty"`
	RawData      json.RawMessage `json:"rawData,omitempty"`
}
