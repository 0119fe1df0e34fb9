package connector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"carverify/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestDoJSONSendsPayloadAndDecodes(t *testing.T) {
	b := NewBase("test", time.Second, 0, 0).WithTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"vin":"X"}`, string(raw))
		return jsonResponse(http.StatusOK, `{"ok":true}`), nil
	}))

	var out struct {
		OK bool `json:"ok"`
	}
	raw, err := b.DoJSON(context.Background(), http.MethodPost, "https://provider.example/x",
		http.Header{"X-API-Key": []string{"key-1"}}, map[string]string{"vin": "X"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestDoJSONNon2xx(t *testing.T) {
	b := NewBase("test", time.Second, 0, 0).WithTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	}))
	_, err := b.DoJSON(context.Background(), http.MethodGet, "https://provider.example/x", nil, nil, nil)
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Equal(t, "test", te.Provider)
}

func TestDoJSONMalformed(t *testing.T) {
	b := NewBase("test", time.Second, 0, 0).WithTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{not json`), nil
	}))
	var out map[string]any
	_, err := b.DoJSON(context.Background(), http.MethodGet, "https://provider.example/x", nil, nil, &out)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDoJSONTimeout(t *testing.T) {
	b := NewBase("test", 20*time.Millisecond, 0, 0).WithTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	}))
	_, err := b.DoJSON(context.Background(), http.MethodGet, "https://provider.example/x", nil, nil, nil)
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Timeout)
}

func TestWaitHonoursLimiter(t *testing.T) {
	b := NewBase("test", time.Second, 1, 1)
	require.NoError(t, b.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, b.Wait(ctx))
}
