package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "limits are per key")

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestIPRateLimiter_MiddlewareUsesForwardedFor(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, do("1.1.1.1, 10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, do("1.1.1.1"))
	require.Equal(t, http.StatusNoContent, do("2.2.2.2"))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		A int `json:"a"`
	}

	cases := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"ok", `{"a":1}`, false},
		{"unknown field", `{"a":1,"b":2}`, true},
		{"trailing data", `{"a":1}{"a":2}`, true},
		{"not json", `nope`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.in))
			var b body
			err := DecodeJSON(httptest.NewRecorder(), req, &b)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, b.A)
		})
	}
}

func TestMetricsAuth(t *testing.T) {
	h := MetricsAuth("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for token, want := range map[string]int{
		"":              http.StatusForbidden,
		"Bearer wrong":  http.StatusForbidden,
		"Bearer s3cret": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "authorization %q", token)
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("TEST_LATENCY", "250")
	assert.Equal(t, 250*time.Millisecond, GetDuration("TEST_LATENCY", time.Second))

	t.Setenv("TEST_LATENCY", "2s")
	assert.Equal(t, 2*time.Second, GetDuration("TEST_LATENCY", time.Second))

	t.Setenv("TEST_LATENCY", "garbage")
	assert.Equal(t, time.Second, GetDuration("TEST_LATENCY", time.Second))
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRouter(HTTPDeps{Service: "test", Registry: reg, MetricsEnabled: true, MetricsToken: "tok"})
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/items/{id}"`)
	assert.NotContains(t, rec.Body.String(), `path="/items/1"`)
}
