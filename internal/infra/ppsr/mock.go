package ppsr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"

	"github.com/google/uuid"
)

// MockProvider serves the deterministic scenario for an identifier. Flags are
// a pure function of the identifier; the certificate number is unique per call.
type MockProvider struct {
	latency mockdata.Latency
	now     func() time.Time
}

func NewMockProvider(latency mockdata.Latency) *MockProvider {
	return &MockProvider{latency: latency, now: time.Now}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Search(ctx context.Context, id domain.VehicleIdentifier) (*domain.PPSRResult, error) {
	if err := p.latency.Wait(ctx); err != nil {
		return nil, err
	}
	sc := mockdata.For(id)
	now := p.now()
	raw, _ := json.Marshal(map[string]any{
		"provider": "mock",
		"scenario": sc.Name,
		"vehicle":  id.Key(),
	})
	out := &domain.PPSRResult{
		IsFinanceOwing:    sc.FinanceOwing(),
		IsStolen:          sc.Stolen,
		IsWrittenOff:      sc.WrittenOff,
		CertificateNumber: fmt.Sprintf("MOCK-%d-%s", now.UnixMilli(), strings.ToUpper(uuid.NewString()[:8])),
		SearchDate:        now,
		SecurityInterests: sc.SecurityInterests(),
		RawData:           string(raw),
	}
	echoIdentifier(out, id)
	return out, nil
}
