package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
)

// StubEmbedder is a deterministic EmbeddingProvider double: each known
// text maps to a fixed vector. Unknown texts return an error, which
// exercises the degrade-not-fail paths.
type StubEmbedder struct {
	Vectors map[string][]float32
	Dim     int
	Calls   atomic.Int32
	Fail    bool
}

// Embed returns the configured vector for each text.
func (s *StubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.Calls.Add(1)
	if s.Fail {
		return nil, fmt.Errorf("stub embedder configured to fail")
	}

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, ok := s.Vectors[t]
		if !ok {
			return nil, fmt.Errorf("stub embedder has no vector for %q", t)
		}
		out = append(out, vec)
	}
	return out, nil
}

// Dimension returns the configured vector length.
func (s *StubEmbedder) Dimension() int {
	return s.Dim
}

// Close is a no-op.
func (s *StubEmbedder) Close() error {
	return nil
}
