package nevdis

import (
	"context"
	"encoding/json"
	"time"

	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"
)

var (
	mockWriteOffDate = time.Date(2022, time.June, 14, 0, 0, 0, 0, time.UTC)
	mockStolenDate   = time.Date(2025, time.November, 2, 0, 0, 0, 0, time.UTC)
)

// MockProvider serves the registry half of the identifier's scenario.
type MockProvider struct {
	latency mockdata.Latency
}

func NewMockProvider(latency mockdata.Latency) *MockProvider {
	return &MockProvider{latency: latency}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Search(ctx context.Context, id domain.VehicleIdentifier) (*domain.NEVDISResult, error) {
	if err := p.latency.Wait(ctx); err != nil {
		return nil, err
	}
	sc := mockdata.For(id)
	raw, _ := json.Marshal(map[string]any{
		"provider": "mock",
		"scenario": sc.Name,
		"vehicle":  id.Key(),
	})
	out := &domain.NEVDISResult{
		IsStolen:     sc.RegistryStolen,
		IsWrittenOff: sc.RegistryWrittenOff,
		Jurisdiction: jurisdiction(id),
		Make:         sc.Make,
		Model:        sc.Model,
		Year:         sc.Year,
		BodyType:     sc.BodyType,
		Colour:       sc.Colour,
		EngineNumber: sc.EngineNumber,
		Compliance:   sc.Compliance,
		RawData:      raw,
	}
	if sc.RegistryWrittenOff {
		out.WriteOffType = sc.WriteOffType
		d := mockWriteOffDate
		out.WriteOffDate = &d
	}
	if sc.RegistryStolen {
		d := mockStolenDate
		out.StolenDate = &d
	}
	return out, nil
}

func jurisdiction(id domain.VehicleIdentifier) string {
	if id.Type == domain.IdentifierRego {
		return string(id.State)
	}
	return "NATIONAL"
}
