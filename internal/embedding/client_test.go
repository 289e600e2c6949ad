package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/service"
)

// embedServer answers every embed request with one fixed-dimension
// vector per input. failAfter switches responses to failStatus once
// that many requests have been served.
func embedServer(t *testing.T, dim int, failAfter int32, failStatus int) *httptest.Server {
	t.Helper()
	var served int32

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)

		var req struct {
			Inputs   []string `json:"inputs"`
			Truncate bool     `json:"truncate"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Truncate)

		if n := atomic.AddInt32(&served, 1); failAfter > 0 && n > failAfter {
			w.WriteHeader(failStatus)
			return
		}

		vectors := make([][]float32, len(req.Inputs))
		for i := range vectors {
			vec := make([]float32, dim)
			for j := range vec {
				vec[j] = float32(i + 1)
			}
			vectors[i] = vec
		}
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func fastRetry() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestNewClient_ProbesDimension(t *testing.T) {
	srv := embedServer(t, 384, 0, 0)
	defer srv.Close()

	c, err := NewClient(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, 384, c.Dimension())
}

func TestNewClient_NoEndpoint(t *testing.T) {
	_, err := NewClient(context.Background(), "", time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
}

func TestNewClient_EndpointDown(t *testing.T) {
	srv := embedServer(t, 4, 0, 0)
	srv.Close() // refuse connections

	_, err := NewClient(context.Background(), srv.URL, time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
}

func TestClient_Embed(t *testing.T) {
	srv := embedServer(t, 4, 0, 0)
	defer srv.Close()

	c, err := NewClient(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)

	vectors, err := c.Embed(context.Background(), []string{"hyra januari", "shell tankning"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Len(t, vectors[1], 4)
}

func TestClient_EmbedEmptyInput(t *testing.T) {
	srv := embedServer(t, 4, 0, 0)
	defer srv.Close()

	c, err := NewClient(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_EmbedRetriesServerErrors(t *testing.T) {
	// Probe succeeds, every Embed attempt afterwards gets a 503
	srv := embedServer(t, 4, 1, http.StatusServiceUnavailable)
	defer srv.Close()

	c, err := NewClient(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	c.Retry = fastRetry()

	_, err = c.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
}

func TestClient_EmbedClientErrorFailsFast(t *testing.T) {
	srv := embedServer(t, 4, 1, http.StatusBadRequest)
	defer srv.Close()

	c, err := NewClient(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	c.Retry = fastRetry()

	_, err = c.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrMaxRetries, "a 4xx response must not be retried")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
