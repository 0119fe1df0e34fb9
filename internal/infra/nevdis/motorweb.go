package nevdis

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"carverify/internal/domain"
	"carverify/internal/infra/connector"
)

const MotorWebName = "motorweb"

type MotorWebConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

type MotorWeb struct {
	*connector.Base
	endpoint string
	apiKey   string
}

func NewMotorWeb(cfg MotorWebConfig) *MotorWeb {
	return &MotorWeb{
		Base:     connector.NewBase(MotorWebName, cfg.Timeout, cfg.RateLimit, cfg.RateBurst),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/nevdis/vehicle-search",
		apiKey:   cfg.APIKey,
	}
}

type motorwebRequest struct {
	SearchType   string `json:"searchType"`
	VIN          string `json:"vin,omitempty"`
	Registration string `json:"registration,omitempty"`
	State        string `json:"state,omitempty"`
}

// motorwebResponse mirrors the registry payload. Every field is optional.
type motorwebResponse struct {
	VIN          *string          `json:"vin"`
	Registration *string          `json:"registration"`
	State        *string          `json:"state"`
	Stolen       *bool            `json:"stolen"`
	WrittenOff   *bool            `json:"writtenOff"`
	WriteOffType *string          `json:"writeOffType"`
	WriteOffDate *string          `json:"writeOffDate"`
	StolenDate   *string          `json:"stolenDate"`
	Jurisdiction *string          `json:"jurisdiction"`
	Vehicle      *motorwebVehicle `json:"vehicle"`
}

type motorwebVehicle struct {
	Make           *string `json:"make"`
	Model          *string `json:"model"`
	Year           *int    `json:"year"`
	BodyType       *string `json:"bodyType"`
	Colour         *string `json:"colour"`
	EngineNumber   *string `json:"engineNumber"`
	ComplianceDate *string `json:"complianceDate"`
}

func (p *MotorWeb) Search(ctx context.Context, id domain.VehicleIdentifier) (*domain.NEVDISResult, error) {
	body := motorwebRequest{SearchType: "VIN", VIN: id.VIN}
	if id.Type == domain.IdentifierRego {
		body = motorwebRequest{SearchType: "REGISTRATION", Registration: id.Rego, State: string(id.State)}
	}
	header := http.Header{}
	header.Set("X-API-Key", p.apiKey)

	var resp motorwebResponse
	raw, err := p.DoJSON(ctx, http.MethodPost, p.endpoint, header, body, &resp)
	if err != nil {
		return nil, err
	}
	return mapMotorWeb(resp, raw), nil
}

func mapMotorWeb(r motorwebResponse, raw []byte) *domain.NEVDISResult {
	out := &domain.NEVDISResult{
		VehicleVIN:   str(r.VIN),
		VehicleRego:  str(r.Registration),
		VehicleState: domain.State(strings.ToUpper(str(r.State))),
		IsStolen:     r.Stolen != nil && *r.Stolen,
		IsWrittenOff: r.WrittenOff != nil && *r.WrittenOff,
		WriteOffType: domain.ParseWriteOffType(str(r.WriteOffType)),
		WriteOffDate: date(r.WriteOffDate),
		StolenDate:   date(r.StolenDate),
		Jurisdiction: str(r.Jurisdiction),
		RawData:      json.RawMessage(raw),
	}
	if v := r.Vehicle; v != nil {
		out.Make = str(v.Make)
		out.Model = str(v.Model)
		if v.Year != nil {
			out.Year = *v.Year
		}
		out.BodyType = str(v.BodyType)
		out.Colour = str(v.Colour)
		out.EngineNumber = str(v.EngineNumber)
		out.Compliance = str(v.ComplianceDate)
	}
	return out
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// date parses RFC 3339 or a plain date; unparseable values are dropped.
func date(p *string) *time.Time {
	v := str(p)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}
