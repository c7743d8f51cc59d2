package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	snapshot StatusSnapshot
	err      error
}

func (f *fakeProvider) Status(ctx context.Context) (StatusSnapshot, error) {
	return f.snapshot, f.err
}

func TestHandleHealthz_ReturnsHealthy(t *testing.T) {
	s := New(Config{Port: 0, Log: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "sentinel", body.Service)
}

func TestHandleStatus_NoProviderConfigured(t *testing.T) {
	s := New(Config{Port: 0, Log: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleStatus_ReturnsProviderSnapshot(t *testing.T) {
	provider := &fakeProvider{snapshot: StatusSnapshot{
		Live:              true,
		AccountValueCents: 15000,
		OpenPositions:     2,
		LastCycleAt:       time.Now().UTC(),
	}}
	s := New(Config{Port: 0, Log: zerolog.Nop(), Provider: provider})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.Live)
	assert.Equal(t, int64(15000), snapshot.AccountValueCents)
	assert.Equal(t, 2, snapshot.OpenPositions)
}

func TestHandleStatus_ProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	s := New(Config{Port: 0, Log: zerolog.Nop(), Provider: provider})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
