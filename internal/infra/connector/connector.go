// Package connector is the shared HTTP plumbing for JSON vehicle-data
// providers: a bounded client, outbound throttling and one error shape.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"carverify/internal/domain"
	"carverify/internal/infra/telemetry"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 20 * time.Second
	maxBodyBytes   = 4 << 20
)

type Base struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewBase builds a connector. A non-positive rps disables throttling.
func NewBase(name string, timeout time.Duration, rps float64, burst int) *Base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &Base{
		name:       name,
		httpClient: &http.Client{Timeout: timeout, Transport: telemetry.Transport(nil)},
	}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return b
}

func (b *Base) Name() string { return b.name }

// WithTransport swaps the round tripper, keeping the timeout. Tests use it to
// fake providers.
func (b *Base) WithTransport(rt http.RoundTripper) *Base {
	b.httpClient = &http.Client{Timeout: b.httpClient.Timeout, Transport: rt}
	return b
}

// Wait blocks until the outbound limiter admits a request.
func (b *Base) Wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

// DoJSON sends payload (if any) as JSON and decodes a 2xx body into out. The
// raw body is returned for audit. Non-2xx and network failures are
// *domain.TransportError; undecodable bodies wrap domain.ErrMalformedResponse.
func (b *Base) DoJSON(ctx context.Context, method, url string, header http.Header, payload, out any) ([]byte, error) {
	if err := b.Wait(ctx); err != nil {
		return nil, b.transportError(err)
	}
	var body io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, b.transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, b.transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, &domain.TransportError{Provider: b.name, StatusCode: resp.StatusCode}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("%s: %w: %v", b.name, domain.ErrMalformedResponse, err)
		}
	}
	return raw, nil
}

func (b *Base) transportError(err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &domain.TransportError{Provider: b.name, Timeout: timeout, Err: err}
}
