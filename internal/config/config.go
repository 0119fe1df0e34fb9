package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const EnvProduction = "production"

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	PPSRB2GEndpoint      string        `env:"PPSR_B2G_ENDPOINT"`
	PPSRB2GUsername      string        `env:"PPSR_B2G_USERNAME"`
	PPSRB2GPassword      string        `env:"PPSR_B2G_PASSWORD"`
	PPSRB2GTimeout       time.Duration `env:"PPSR_B2G_TIMEOUT" envDefault:"30s"`
	PPSRB2GRequestPrefix string        `env:"PPSR_B2G_REQUEST_PREFIX" envDefault:"CV"`

	MotorWebAPIURL string `env:"MOTORWEB_API_URL"`
	MotorWebAPIKey string `env:"MOTORWEB_API_KEY"`
	RedBookAPIURL  string `env:"REDBOOK_API_URL"`
	RedBookAPIKey  string `env:"REDBOOK_API_KEY"`
	GlassAPIURL    string `env:"GLASS_API_URL"`
	GlassAPIKey    string `env:"GLASS_API_KEY"`

	ProviderTimeout      time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"20s"`
	ProviderRateLimit    float64       `env:"PROVIDER_RATE_LIMIT" envDefault:"5"`
	ProviderRateBurst    int           `env:"PROVIDER_RATE_BURST" envDefault:"10"`
	MockLatency          bool          `env:"MOCK_LATENCY" envDefault:"true"`
	PricingProviderOrder []string      `env:"PRICING_PROVIDER_ORDER" envSeparator:"," envDefault:"redbook,glass"`

	RateLimitRequests      int  `env:"RATE_LIMIT_REQUESTS" envDefault:"0"`
	RateLimitWindowSeconds int  `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitFailClosed    bool `env:"RATE_LIMIT_FAIL_CLOSED" envDefault:"false"`
	RateLimitMaxKeys       int  `env:"RATE_LIMIT_MAX_KEYS" envDefault:"10000"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvProduction)
}

// MocksAllowed gates every deterministic mock provider. Production never
// serves synthetic vehicle data.
func (c Config) MocksAllowed() bool {
	return !c.Production()
}

func (c Config) B2GConfigured() bool {
	return c.PPSRB2GEndpoint != "" && c.PPSRB2GUsername != "" && c.PPSRB2GPassword != ""
}

// PricingOrder returns the configured provider names, lower-cased, without
// blanks or duplicates.
func (c Config) PricingOrder() []string {
	seen := make(map[string]struct{}, len(c.PricingProviderOrder))
	out := make([]string, 0, len(c.PricingProviderOrder))
	for _, name := range c.PricingProviderOrder {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
