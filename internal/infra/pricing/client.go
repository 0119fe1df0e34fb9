// Package pricing returns a best-effort market valuation by walking a ranked
// chain of providers. A provider that errors is skipped; when nothing answers
// the result is nil, which callers read as "unknown".
package pricing

import (
	"context"
	"log/slog"

	"carverify/internal/config"
	"carverify/internal/domain"
)

type Provider interface {
	Name() string
	Quote(ctx context.Context, req domain.PricingRequest) (*domain.VehiclePricing, error)
}

type Client struct {
	providers []Provider
	logger    *slog.Logger
}

func New(logger *slog.Logger, providers ...Provider) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{providers: providers, logger: logger.With("component", "pricing")}
}

// NewFromConfig builds the chain in PRICING_PROVIDER_ORDER, keeping only
// providers with credentials, and appends the mock when mocks are allowed.
func NewFromConfig(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	var chain []Provider
	for _, name := range cfg.PricingOrder() {
		switch name {
		case string(domain.SourceRedBook):
			if cfg.RedBookAPIURL != "" && cfg.RedBookAPIKey != "" {
				chain = append(chain, NewRedBook(ProviderConfig{
					BaseURL:   cfg.RedBookAPIURL,
					APIKey:    cfg.RedBookAPIKey,
					Timeout:   cfg.ProviderTimeout,
					RateLimit: cfg.ProviderRateLimit,
					RateBurst: cfg.ProviderRateBurst,
				}))
			}
		case string(domain.SourceGlass):
			if cfg.GlassAPIURL != "" && cfg.GlassAPIKey != "" {
				chain = append(chain, NewGlass(ProviderConfig{
					BaseURL:   cfg.GlassAPIURL,
					APIKey:    cfg.GlassAPIKey,
					Timeout:   cfg.ProviderTimeout,
					RateLimit: cfg.ProviderRateLimit,
					RateBurst: cfg.ProviderRateBurst,
				}))
			}
		default:
			logger.Warn("unknown pricing provider ignored", "provider", name)
		}
	}
	if cfg.MocksAllowed() {
		chain = append(chain, NewMockProvider())
	}
	return New(logger, chain...)
}

// Providers lists the chain in the order it is tried.
func (c *Client) Providers() []string {
	out := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		out = append(out, p.Name())
	}
	return out
}

// GetVehiclePricing returns the first provider answer, or nil. It never
// returns an error.
func (c *Client) GetVehiclePricing(ctx context.Context, req domain.PricingRequest) *domain.VehiclePricing {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return nil
		}
		quote, err := p.Quote(ctx, req)
		if err != nil {
			c.logger.Warn("pricing provider skipped", "provider", p.Name(), "error", err)
			continue
		}
		if quote == nil {
			c.logger.Debug("pricing provider had no valuation", "provider", p.Name())
			continue
		}
		return quote
	}
	return nil
}
