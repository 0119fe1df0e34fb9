// Package nevdis answers national registry (stolen/write-off) searches. The
// provider is selected once: MotorWeb when credentials are configured, the
// deterministic mock outside production, otherwise a stub that always fails.
package nevdis

import (
	"context"
	"fmt"
	"log/slog"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"
)

type Provider interface {
	Name() string
	Search(ctx context.Context, id domain.VehicleIdentifier) (*domain.NEVDISResult, error)
}

type Client struct {
	provider Provider
	logger   *slog.Logger
}

func New(provider Provider, logger *slog.Logger) *Client {
	if provider == nil {
		provider = Unconfigured{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{provider: provider, logger: logger.With("component", "nevdis")}
}

func NewFromConfig(cfg config.Config, logger *slog.Logger) *Client {
	switch {
	case cfg.MotorWebAPIURL != "" && cfg.MotorWebAPIKey != "":
		return New(NewMotorWeb(MotorWebConfig{
			BaseURL:   cfg.MotorWebAPIURL,
			APIKey:    cfg.MotorWebAPIKey,
			Timeout:   cfg.ProviderTimeout,
			RateLimit: cfg.ProviderRateLimit,
			RateBurst: cfg.ProviderRateBurst,
		}), logger)
	case cfg.MocksAllowed():
		latency := mockdata.Latency{}
		if cfg.MockLatency {
			latency = mockdata.NEVDISLatency
		}
		return New(NewMockProvider(latency), logger)
	default:
		return New(Unconfigured{}, logger)
	}
}

func (c *Client) ProviderName() string { return c.provider.Name() }

// SearchVehicle returns the registry view of a vehicle. Provider errors are
// returned unchanged; there is no fallback.
func (c *Client) SearchVehicle(ctx context.Context, id domain.VehicleIdentifier) (*domain.NEVDISResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	res, err := c.provider.Search(ctx, id)
	if err != nil {
		c.logger.Debug("nevdis search failed", "provider", c.provider.Name(), "vehicle", id.String(), "error", err)
		return nil, err
	}
	echoIdentifier(res, id)
	return res, nil
}

type Unconfigured struct{}

func (Unconfigured) Name() string { return "unconfigured" }

func (Unconfigured) Search(context.Context, domain.VehicleIdentifier) (*domain.NEVDISResult, error) {
	return nil, fmt.Errorf("nevdis: %w", domain.ErrNotConfigured)
}

func echoIdentifier(out *domain.NEVDISResult, id domain.VehicleIdentifier) {
	if out.VehicleVIN == "" && id.Type == domain.IdentifierVIN {
		out.VehicleVIN = id.VIN
	}
	if out.VehicleRego == "" && id.Type == domain.IdentifierRego {
		out.VehicleRego = id.Rego
	}
	if out.VehicleState == "" && id.Type == domain.IdentifierRego {
		out.VehicleState = id.State
	}
}
