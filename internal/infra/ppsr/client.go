// Package ppsr answers PPSR searches through a provider chosen once at
// construction: the B2G SOAP integration, the deterministic mock, or an
// unconfigured stub that fails every call.
package ppsr

import (
	"context"
	"fmt"
	"log/slog"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"
	"carverify/internal/infra/ppsr/b2g"
)

type Provider interface {
	Name() string
	Search(ctx context.Context, id domain.VehicleIdentifier) (*domain.PPSRResult, error)
}

type Client struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// New wires a primary provider and an optional fallback used only when the
// primary reports a business fault.
func New(primary, fallback Provider, logger *slog.Logger) *Client {
	if primary == nil {
		primary = Unconfigured{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{primary: primary, fallback: fallback, logger: logger.With("component", "ppsr")}
}

// NewFromConfig picks the provider strategy. b2gClient may be nil when the
// B2G integration is not configured.
func NewFromConfig(cfg config.Config, b2gClient *b2g.Client, logger *slog.Logger) *Client {
	var mock Provider
	if cfg.MocksAllowed() {
		latency := mockdata.Latency{}
		if cfg.MockLatency {
			latency = mockdata.PPSRLatency
		}
		mock = NewMockProvider(latency)
	}
	switch {
	case b2gClient != nil:
		return New(NewB2GProvider(b2gClient), mock, logger)
	case mock != nil:
		return New(mock, nil, logger)
	default:
		return New(Unconfigured{}, nil, logger)
	}
}

func (c *Client) ProviderName() string { return c.primary.Name() }

func (c *Client) SearchVehicle(ctx context.Context, id domain.VehicleIdentifier) (*domain.PPSRResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	res, err := c.primary.Search(ctx, id)
	if err == nil {
		return res, nil
	}
	if c.fallback != nil && domain.IsFault(err) {
		c.logger.Warn("ppsr provider fault; serving mock data", "provider", c.primary.Name(), "vehicle", id.String(), "error", err)
		return c.fallback.Search(ctx, id)
	}
	return nil, err
}

type Unconfigured struct{}

func (Unconfigured) Name() string { return "unconfigured" }

func (Unconfigured) Search(context.Context, domain.VehicleIdentifier) (*domain.PPSRResult, error) {
	return nil, fmt.Errorf("ppsr: %w", domain.ErrNotConfigured)
}

type B2GProvider struct {
	client *b2g.Client
}

func NewB2GProvider(client *b2g.Client) *B2GProvider {
	return &B2GProvider{client: client}
}

func (p *B2GProvider) Name() string { return b2g.ProviderName }

func (p *B2GProvider) Search(ctx context.Context, id domain.VehicleIdentifier) (*domain.PPSRResult, error) {
	resp, err := p.client.SearchVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.Fault != nil {
		return nil, &domain.FaultError{Provider: b2g.ProviderName, Code: resp.Fault.Code, Message: resp.Fault.Message}
	}
	r := resp.Result
	out := &domain.PPSRResult{
		VehicleVIN:        r.VIN,
		VehicleRego:       r.Rego,
		VehicleState:      r.State,
		IsFinanceOwing:    r.IsFinanceOwing,
		IsStolen:          r.IsStolen,
		IsWrittenOff:      r.IsWrittenOff,
		CertificateNumber: r.CertificateNumber,
		SearchDate:        r.SearchDate,
		SecurityInterests: r.SecurityInterests,
		RawData:           resp.RawXML,
	}
	echoIdentifier(out, id)
	return out, nil
}

// echoIdentifier fills identity fields the provider left blank.
func echoIdentifier(out *domain.PPSRResult, id domain.VehicleIdentifier) {
	if out.VehicleVIN == "" && id.Type == domain.IdentifierVIN {
		out.VehicleVIN = id.VIN
	}
	if out.VehicleRego == "" && id.Type == domain.IdentifierRego {
		out.VehicleRego = id.Rego
	}
	if out.VehicleState == "" && id.Type == domain.IdentifierRego {
		out.VehicleState = id.State
	}
	if out.SecurityInterests == nil {
		out.SecurityInterests = []domain.SecurityInterest{}
	}
}
