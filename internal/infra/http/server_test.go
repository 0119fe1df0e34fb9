package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/mockdata"
	"carverify/internal/infra/nevdis"
	"carverify/internal/infra/ppsr"
	"carverify/internal/infra/ppsr/b2g"
	"carverify/internal/infra/pricing"
	"carverify/internal/infra/ratelimit"
	"carverify/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReports struct {
	report *domain.VehicleReport
	err    error
	last   usecase.ReportRequest
}

func (s *stubReports) GenerateReport(_ context.Context, req usecase.ReportRequest) (*domain.VehicleReport, error) {
	s.last = req
	return s.report, s.err
}

type stubAdmin struct {
	reachable bool
	updateErr error
	password  string
}

func (s *stubAdmin) TestConnection(context.Context) bool { return s.reachable }

func (s *stubAdmin) UpdatePassword(_ context.Context, password string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.password = password
	return nil
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (domain.RateLimitDecision, error) {
	return domain.RateLimitDecision{}, errors.New("redis down")
}

func newTestServer(t *testing.T, cfg config.Config, deps ServerDeps) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	return NewServer(cfg, deps)
}

func do(t *testing.T, s *Server, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(v))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func mockReportService(t *testing.T) *usecase.ReportService {
	t.Helper()
	svc, err := usecase.NewReportService(
		ppsr.New(ppsr.NewMockProvider(mockdata.Latency{}), nil, nil),
		nevdis.New(nevdis.NewMockProvider(mockdata.Latency{}), nil),
		pricing.New(nil, pricing.NewMockProvider()),
		nil,
	)
	require.NoError(t, err)
	return svc
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, config.Config{}, ServerDeps{})
	w := do(t, s, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "development", out.Env)
	assert.True(t, out.Mocks)
}

func TestGenerateReportEndToEnd(t *testing.T) {
	s := newTestServer(t, config.Config{}, ServerDeps{Reports: mockReportService(t)})
	w := do(t, s, http.MethodPost, "/v1/reports", map[string]any{
		"vehicleIdentifier": map[string]string{"type": "rego", "rego": "abc 123", "state": "nsw"},
		"reportType":        "premium",
		"orderId":           "order-1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report domain.VehicleReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, domain.ReportPremium, report.ReportType)
	assert.Equal(t, "ABC123", report.VehicleIdentifier.Rego)
	assert.Equal(t, domain.StateNSW, report.VehicleIdentifier.State)
	assert.NotEmpty(t, report.PPSR.CertificateNumber)
	assert.NotNil(t, report.NEVDIS)
	assert.NotNil(t, report.Pricing)
	assert.Equal(t, domain.QualityComplete, report.DataQuality)
	assert.Equal(t, "order-1", report.OrderID)
}

func TestGenerateReportBadRequests(t *testing.T) {
	s := newTestServer(t, config.Config{}, ServerDeps{Reports: mockReportService(t)})

	w := do(t, s, http.MethodPost, "/v1/reports", "{", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", decodeError(t, w).Code)

	w = do(t, s, http.MethodPost, "/v1/reports", map[string]any{"reportType": "BASIC"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_IDENTIFIER", decodeError(t, w).Code)

	w = do(t, s, http.MethodPost, "/v1/reports", map[string]any{
		"vehicleIdentifier": map[string]string{"type": "vin", "vin": "1HGCM82633A004352"},
		"reportType":        "GOLD",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REPORT_TYPE", decodeError(t, w).Code)

	w = do(t, s, http.MethodPost, "/v1/reports", map[string]any{
		"vehicleIdentifier": map[string]string{"type": "vin", "vin": "IOQ"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_IDENTIFIER", decodeError(t, w).Code)

	w = do(t, s, http.MethodPost, "/v1/reports", map[string]any{
		"vehicleIdentifier": map[string]string{"type": "vin", "vin": "1HGCM82633A004352", "rego": "ABC123", "state": "NSW"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_IDENTIFIER", decodeError(t, w).Code)

	w = do(t, s, http.MethodPost, "/v1/reports", map[string]any{
		"vehicleIdentifier": map[string]string{"type": "rego", "rego": "ABC123", "state": "NSW", "vin": "1hgcm82633a004352"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_IDENTIFIER", decodeError(t, w).Code)
}

func TestGenerateReportErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: %w", domain.ErrReportGeneration, &domain.TransportError{Provider: "ppsr-b2g", StatusCode: 500}), http.StatusBadGateway, "VEHICLE_LOOKUP_FAILED"},
		{fmt.Errorf("%w: %w", domain.ErrReportGeneration, domain.ErrNotConfigured), http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		s := newTestServer(t, config.Config{}, ServerDeps{Reports: &stubReports{err: tc.err}})
		w := do(t, s, http.MethodPost, "/v1/reports", map[string]any{
			"vehicleIdentifier": map[string]string{"type": "vin", "vin": "1HGCM82633A004352"},
		}, nil)
		assert.Equal(t, tc.status, w.Code)
		out := decodeError(t, w)
		assert.Equal(t, tc.code, out.Code)
		if tc.code == "VEHICLE_LOOKUP_FAILED" {
			assert.Equal(t, "vehicle lookup failed, please try again", out.Message)
		}
	}
}

func TestGenerateReportPassesRequest(t *testing.T) {
	stub := &stubReports{report: &domain.VehicleReport{ID: "RPT-1"}}
	s := newTestServer(t, config.Config{}, ServerDeps{Reports: stub})
	w := do(t, s, http.MethodPost, "/v1/reports", map[string]any{
		"vehicleIdentifier": map[string]string{"type": "vin", "vin": "1HGCM82633A004352"},
		"reportType":        "standard",
		"userId":            " user-7 ",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, domain.ReportStandard, stub.last.ReportType)
	assert.Equal(t, "user-7", stub.last.UserID)
	assert.Equal(t, "1HGCM82633A004352", stub.last.VehicleIdentifier.VIN)
}

func TestGenerateReportRateLimited(t *testing.T) {
	cfg := config.Config{RateLimitRequests: 1, RateLimitWindowSeconds: 60}
	s := newTestServer(t, cfg, ServerDeps{
		Reports:     &stubReports{report: &domain.VehicleReport{}},
		RateLimiter: ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}),
	})
	body := map[string]any{"vehicleIdentifier": map[string]string{"type": "vin", "vin": "1HGCM82633A004352"}}

	first := do(t, s, http.MethodPost, "/v1/reports", body, nil)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "1", first.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("RateLimit-Remaining"))

	second := do(t, s, http.MethodPost, "/v1/reports", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestRateLimiterFailureModes(t *testing.T) {
	body := map[string]any{"vehicleIdentifier": map[string]string{"type": "vin", "vin": "1HGCM82633A004352"}}

	open := newTestServer(t, config.Config{RateLimitRequests: 1}, ServerDeps{
		Reports:     &stubReports{report: &domain.VehicleReport{}},
		RateLimiter: failingLimiter{},
	})
	assert.Equal(t, http.StatusCreated, do(t, open, http.MethodPost, "/v1/reports", body, nil).Code)

	closed := newTestServer(t, config.Config{RateLimitRequests: 1, RateLimitFailClosed: true}, ServerDeps{
		Reports:     &stubReports{report: &domain.VehicleReport{}},
		RateLimiter: failingLimiter{},
	})
	w := do(t, closed, http.MethodPost, "/v1/reports", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_UNAVAILABLE", decodeError(t, w).Code)
}

func TestPPSRConnection(t *testing.T) {
	s := newTestServer(t, config.Config{}, ServerDeps{})
	w := do(t, s, http.MethodGet, "/v1/ppsr/connection", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reachable":false}`, w.Body.String())

	s = newTestServer(t, config.Config{}, ServerDeps{PPSRAdmin: &stubAdmin{reachable: true}})
	w = do(t, s, http.MethodGet, "/v1/ppsr/connection", nil, nil)
	assert.JSONEq(t, `{"reachable":true}`, w.Body.String())
}

func TestPPSRPasswordRotation(t *testing.T) {
	admin := &stubAdmin{}
	s := newTestServer(t, config.Config{AdminAPIKey: "admin-secret"}, ServerDeps{PPSRAdmin: admin})
	auth := http.Header{"X-Admin-Key": []string{"admin-secret"}}

	w := do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": "new-pw"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": "new-pw"}, http.Header{"X-Admin-Key": []string{"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": " "}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": "new-pw"}, auth)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "new-pw", admin.password)

	admin.updateErr = fmt.Errorf("%w: health check failed", b2g.ErrCredentialRejected)
	w = do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": "bad"}, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CREDENTIAL_REJECTED", decodeError(t, w).Code)
}

func TestPPSRPasswordDisabledWithoutAdminKeyOrB2G(t *testing.T) {
	s := newTestServer(t, config.Config{}, ServerDeps{PPSRAdmin: &stubAdmin{}})
	w := do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": "x"}, http.Header{"X-Admin-Key": []string{"anything"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s = newTestServer(t, config.Config{AdminAPIKey: "k"}, ServerDeps{})
	w = do(t, s, http.MethodPost, "/v1/ppsr/password", map[string]string{"password": "x"}, http.Header{"X-Admin-Key": []string{"k"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "PPSR_NOT_CONFIGURED", decodeError(t, w).Code)
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, config.Config{}, ServerDeps{})
	w := do(t, s, http.MethodGet, "/v1/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}
