// Package b2g talks to the PPSR business-to-government SOAP endpoint.
package b2g

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/telemetry"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	ProviderName   = "ppsr-b2g"
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

var ErrCredentialRejected = errors.New("ppsr b2g credential rejected")

type Config struct {
	Endpoint      string
	Username      string
	Password      string
	Timeout       time.Duration
	RequestPrefix string
	RateLimit     float64
	RateBurst     int
}

type Client struct {
	endpoint   string
	prefix     string
	timeout    time.Duration
	creds      credentialStore
	rotateMu   sync.Mutex
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%s: %w", ProviderName, domain.ErrNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestPrefix == "" {
		cfg.RequestPrefix = "CV"
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		prefix:     cfg.RequestPrefix,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Transport: telemetry.Transport(nil)},
		now:        time.Now,
		logger:     logger.With("provider", ProviderName),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	c.creds.Store(Credentials{Username: cfg.Username, Password: cfg.Password})
	return c, nil
}

func NewFromConfig(cfg config.Config, logger *slog.Logger) (*Client, error) {
	return New(Config{
		Endpoint:      cfg.PPSRB2GEndpoint,
		Username:      cfg.PPSRB2GUsername,
		Password:      cfg.PPSRB2GPassword,
		Timeout:       cfg.PPSRB2GTimeout,
		RequestPrefix: cfg.PPSRB2GRequestPrefix,
		RateLimit:     cfg.ProviderRateLimit,
		RateBurst:     cfg.ProviderRateBurst,
	}, logger)
}

// SearchVehicle runs one certificate-issuing vehicle search. Transport
// failures come back as *domain.TransportError; a SOAP fault is a successful
// call whose Response carries Fault.
func (c *Client) SearchVehicle(ctx context.Context, id domain.VehicleIdentifier) (Response, error) {
	now := c.now()
	env := newEnvelope(c.creds.Load(), c.requestID(now), now, searchBody(id))
	raw, err := c.call(ctx, ActionVehicleSearch, env)
	if err != nil {
		return Response{}, err
	}
	resp, err := parseResponse(raw, now, c.placeholderCertificate)
	if err != nil {
		return resp, fmt.Errorf("%s: parse response: %w", ProviderName, err)
	}
	if resp.Fault != nil {
		c.logger.Warn("ppsr search fault", "code", resp.Fault.Code, "message", resp.Fault.Message, "vehicle", id.String())
	}
	return resp, nil
}

// TestConnection reports whether a health check with the current credential
// succeeds. It never returns an error.
func (c *Client) TestConnection(ctx context.Context) bool {
	if err := c.healthCheck(ctx, c.creds.Load()); err != nil {
		c.logger.Warn("ppsr connection test failed", "error", err)
		return false
	}
	return true
}

// VerifyPassword health-checks the current username with a candidate password.
// The stored credential is never changed.
func (c *Client) VerifyPassword(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is empty", ErrCredentialRejected)
	}
	candidate := c.creds.Load()
	candidate.Password = password
	if err := c.healthCheck(ctx, candidate); err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialRejected, err)
	}
	return nil
}

// UpdatePassword verifies the new password with a health check and only then
// publishes it. On failure the previous credential stays in place, so no
// search ever runs with an unverified password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: password is empty", ErrCredentialRejected)
	}
	c.rotateMu.Lock()
	defer c.rotateMu.Unlock()

	candidate := c.creds.Load()
	candidate.Password = newPassword
	if err := c.healthCheck(ctx, candidate); err != nil {
		c.logger.Warn("ppsr password rotation rejected; keeping previous credential", "error", err)
		return fmt.Errorf("%w: %v", ErrCredentialRejected, err)
	}
	c.creds.Store(candidate)
	c.logger.Info("ppsr password rotated")
	return nil
}

func (c *Client) healthCheck(ctx context.Context, creds Credentials) error {
	now := c.now()
	env := newEnvelope(creds, c.requestID(now), now, requestBody{Health: &healthCheckRequest{Echo: "ping"}})
	raw, err := c.call(ctx, ActionHealthCheck, env)
	if err != nil {
		return err
	}
	resp, err := parseHealth(raw)
	if err != nil {
		return err
	}
	if resp != nil {
		return &domain.FaultError{Provider: ProviderName, Code: resp.Code, Message: resp.Message}
	}
	return nil
}

// parseHealth returns the fault, if any. A body without a fault must carry a
// HealthCheckResponse to count as healthy.
func parseHealth(raw []byte) (*Fault, error) {
	fault, err := findFault(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: parse health response: %w", ProviderName, err)
	}
	if fault != nil {
		return fault, nil
	}
	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: parse health response: %w", ProviderName, err)
	}
	if env.Body.Health == nil {
		return nil, fmt.Errorf("%s: health response: %w", ProviderName, domain.ErrMalformedResponse)
	}
	return nil, nil
}

func (c *Client) call(ctx context.Context, action string, env requestEnvelope) ([]byte, error) {
	body, err := encodeEnvelope(env)
	if err != nil {
		return nil, fmt.Errorf("%s: encode envelope: %w", ProviderName, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(ctx, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+action+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{Provider: ProviderName, StatusCode: resp.StatusCode}
	}
	return raw, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return &domain.TransportError{Provider: ProviderName, Timeout: timeout, Err: err}
}

func (c *Client) requestID(at time.Time) string {
	return fmt.Sprintf("%s-%d-%s", c.prefix, at.UnixMilli(), shortRandom())
}

func (c *Client) placeholderCertificate() string {
	return fmt.Sprintf("PPSR-%d-%s", c.now().UnixMilli(), strings.ToUpper(shortRandom()))
}

func shortRandom() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
