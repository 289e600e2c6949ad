// Package embedding provides text embeddings via a TEI-style HTTP
// endpoint. The provider is strictly best-effort: construction probes
// the endpoint once, and a failed probe reports the provider as
// unavailable rather than erroring later at call sites.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/service"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Client talks to a text-embeddings-inference compatible endpoint.
// It implements service.EmbeddingProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string

	// Retry controls backoff for Embed calls. Tests lower it.
	Retry service.RetryOptions

	dimension int
}

// teiRequest is the request body for the TEI embed endpoint.
type teiRequest struct {
	Inputs   any  `json:"inputs"`
	Truncate bool `json:"truncate"`
}

// NewClient probes the endpoint with a single embedding request to
// learn the vector dimension. A missing URL or failed probe returns an
// error wrapping common.ErrProviderUnavailable; callers treat that as
// a normal degraded state, not a failure.
func NewClient(ctx context.Context, baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", common.ErrProviderUnavailable)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}

	vectors, err := c.doEmbed(ctx, []string{"ping"})
	if err != nil {
		return nil, fmt.Errorf("%w: probe failed: %v", common.ErrProviderUnavailable, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: probe returned no vector", common.ErrProviderUnavailable)
	}
	c.dimension = len(vectors[0])

	return c, nil
}

// Embed generates one vector per input text, retrying transient
// endpoint failures with exponential backoff.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	var vectors [][]float32
	err := common.WithRetry(ctx, func() error {
		var embedErr error
		vectors, embedErr = c.doEmbed(ctx, texts)
		return embedErr
	}, c.Retry)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// Dimension returns the vector length learned from the construction probe.
func (c *Client) Dimension() int {
	return c.dimension
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(teiRequest{
		Inputs:   texts,
		Truncate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are worth another attempt
		return nil, &common.RetryableError{Err: fmt.Errorf("%w: %v", ErrEmbeddingFailed, err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		statusErr := fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(respBody))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &common.RetryableError{Err: common.ErrRateLimit, Retryable: true}
		case resp.StatusCode >= 500:
			return nil, &common.RetryableError{Err: statusErr, Retryable: true}
		default:
			return nil, &common.RetryableError{Err: statusErr, Retryable: false}
		}
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return vectors, nil
}
