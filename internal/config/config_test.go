package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.PPSRB2GTimeout)
	assert.Equal(t, 20*time.Second, cfg.ProviderTimeout)
	assert.True(t, cfg.MocksAllowed())
	assert.False(t, cfg.B2GConfigured())
	assert.Equal(t, []string{"redbook", "glass"}, cfg.PricingOrder())
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
}

func TestFromEnvProduction(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("PPSR_B2G_ENDPOINT", "https://b2g.example/search")
	t.Setenv("PPSR_B2G_USERNAME", "user")
	t.Setenv("PPSR_B2G_PASSWORD", "secret")
	t.Setenv("PPSR_B2G_TIMEOUT", "5s")
	t.Setenv("PRICING_PROVIDER_ORDER", "Glass, redbook,glass,,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.False(t, cfg.MocksAllowed())
	assert.True(t, cfg.B2GConfigured())
	assert.Equal(t, 5*time.Second, cfg.PPSRB2GTimeout)
	assert.Equal(t, []string{"glass", "redbook"}, cfg.PricingOrder())
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("PROVIDER_TIMEOUT", "soon")
	_, err := FromEnv()
	assert.Error(t, err)
}
