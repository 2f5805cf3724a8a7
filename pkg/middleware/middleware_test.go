package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepad/pkg/auth"
	"notepad/pkg/errors"
	"notepad/pkg/metrics"
)

func TestRequireAuthAPI(t *testing.T) {
	sessions := auth.NewManager(time.Minute)
	session := sessions.CreateSession("ann")

	var seen string
	handler := RequireAuthAPI(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFrom(r.Context())
		require.True(t, ok)
		seen = s.Username
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errors.FrontendError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_AUTHENTICATED", body.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ann", seen)
}

func TestSessionFromEmptyContext(t *testing.T) {
	_, ok := SessionFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(0, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remote, method string) int {
		req := httptest.NewRequest(method, "/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000", http.MethodPost))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001", http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002", http.MethodPost))

	// Other clients and preflights are unaffected
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000", http.MethodPost))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1003", http.MethodOptions))
}

func TestLimiterStoreSweepsStaleEntries(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newLimiterStore(1, 1)
	store.now = func() time.Time { return clock }

	store.get("a")
	clock = clock.Add(staleTTL + 2*time.Minute)
	store.get("b")

	assert.Len(t, store.entries, 1)
	assert.Contains(t, store.entries, "b")
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
