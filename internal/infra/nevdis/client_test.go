package nevdis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regoID(t *testing.T) domain.VehicleIdentifier {
	t.Helper()
	id, err := domain.NewRegoIdentifier("ABC123", domain.StateNSW)
	require.NoError(t, err)
	return id
}

func TestMockIsDeterministic(t *testing.T) {
	client := New(NewMockProvider(mockdata.Latency{}), nil)
	id := regoID(t)

	first, err := client.SearchVehicle(context.Background(), id)
	require.NoError(t, err)
	second, err := client.SearchVehicle(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, first.IsStolen, second.IsStolen)
	assert.Equal(t, first.IsWrittenOff, second.IsWrittenOff)
	assert.Equal(t, first.WriteOffType, second.WriteOffType)

	sc := mockdata.For(id)
	assert.Equal(t, sc.RegistryStolen, first.IsStolen)
	assert.Equal(t, sc.RegistryWrittenOff, first.IsWrittenOff)
	assert.Equal(t, sc.Make, first.Make)
	assert.Equal(t, "NSW", first.Jurisdiction)
	assert.Equal(t, "ABC123", first.VehicleRego)
}

func TestMockLatencyHonoursCancellation(t *testing.T) {
	client := New(NewMockProvider(mockdata.Latency{Min: time.Hour, Max: 2 * time.Hour}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.SearchVehicle(ctx, regoID(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMotorWebMapsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nevdis/vehicle-search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		var req motorwebRequest
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "REGISTRATION", req.SearchType)
		assert.Equal(t, "ABC123", req.Registration)
		assert.Equal(t, "NSW", req.State)

		_, _ = w.Write([]byte(`{
			"stolen": false,
			"writtenOff": true,
			"writeOffType": "TOTAL_LOSS",
			"writeOffDate": "2023-03-01",
			"jurisdiction": "NSW",
			"vehicle": {"make": "Toyota", "model": "Hilux", "year": 2018}
		}`))
	}))
	defer srv.Close()

	client := New(NewMotorWeb(MotorWebConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}), nil)
	res, err := client.SearchVehicle(context.Background(), regoID(t))
	require.NoError(t, err)

	assert.False(t, res.IsStolen)
	assert.True(t, res.IsWrittenOff)
	assert.Equal(t, domain.WriteOffTotalLoss, res.WriteOffType)
	require.NotNil(t, res.WriteOffDate)
	assert.Equal(t, 2023, res.WriteOffDate.Year())
	assert.Nil(t, res.StolenDate)
	assert.Equal(t, "Toyota", res.Make)
	assert.Equal(t, 2018, res.Year)
	assert.Empty(t, res.BodyType)
	assert.Equal(t, "ABC123", res.VehicleRego)
	assert.Equal(t, domain.StateNSW, res.VehicleState)
	assert.NotEmpty(t, res.RawData)
}

func TestMotorWebEmptyBodyDefaults(t *testing.T) {
	res := mapMotorWeb(motorwebResponse{}, []byte(`{}`))
	assert.False(t, res.IsStolen)
	assert.False(t, res.IsWrittenOff)
	assert.Empty(t, res.WriteOffType)
	assert.Nil(t, res.WriteOffDate)
	assert.Zero(t, res.Year)
}

func TestMotorWebTransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(NewMotorWeb(MotorWebConfig{BaseURL: srv.URL, APIKey: "k"}), nil)
	_, err := client.SearchVehicle(context.Background(), regoID(t))
	require.Error(t, err)
	assert.True(t, domain.IsTransportError(err))
}

func TestNewFromConfigSelectsProvider(t *testing.T) {
	assert.Equal(t, "mock", NewFromConfig(config.Config{AppEnv: "development"}, nil).ProviderName())

	prod := NewFromConfig(config.Config{AppEnv: "production"}, nil)
	assert.Equal(t, "unconfigured", prod.ProviderName())
	_, err := prod.SearchVehicle(context.Background(), regoID(t))
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	configured := NewFromConfig(config.Config{AppEnv: "production", MotorWebAPIURL: "https://mw.example", MotorWebAPIKey: "k"}, nil)
	assert.Equal(t, MotorWebName, configured.ProviderName())
}
