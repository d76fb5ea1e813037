package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware(t *testing.T) {
	_, mux := newTestServer(t, func(c *Config) { c.CORSOrigin = "https://scanner.example" })

	rec := serve(mux, httptest.NewRequest(http.MethodOptions, "/scan", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://scanner.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	for _, h := range exposedHeaders {
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), h)
	}

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "https://scanner.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	_, mux := newTestServer(t, func(c *Config) { c.RateLimiter = NewRateLimiter(1, 0, 0, 0) })
	img := documentPNG(t)

	first := serve(mux, uploadRequest(t, "/detect", img, nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := serve(mux, uploadRequest(t, "/detect", img, nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "minute", second.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	// Other clients keep their own budget.
	other := uploadRequest(t, "/detect", img, nil)
	other.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusOK, serve(mux, other).Code)

	// Health checks are never limited.
	assert.Equal(t, http.StatusOK, serve(mux, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestRateLimitMiddleware_DataQuota(t *testing.T) {
	_, mux := newTestServer(t, func(c *Config) { c.RateLimiter = NewRateLimiter(0, 0, 0, 10) })

	rec := serve(mux, uploadRequest(t, "/detect", documentPNG(t), nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "data", rec.Header().Get("X-Quota-Type"))
	assert.Equal(t, "10", rec.Header().Get("X-Quota-Limit"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "10.0.0.2:1234", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.2:1234", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.7:5555", "192.0.2.7"},
		{"remote without port", nil, "192.0.2.8", "192.0.2.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(""))
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
