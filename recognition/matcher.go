package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/registry"
)

// Matcher queries the signature registry for every detected face and keeps
// the candidates that clear the session threshold. The whole batch of
// per-face queries shares one deadline; if the registry stays unavailable
// through the retry budget the submission aborts as a whole.
type Matcher struct {
	Registry   registry.Registry
	Threshold  float64
	TopK       int
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// MatchAll returns every (face, identity) candidate at or above the
// threshold, across all faces of one submission. Faces without an
// embedding are skipped; they stay unrecognized.
func (m *Matcher) MatchAll(ctx context.Context, faces []DetectedFace) ([]MatchCandidate, error) {
	queryCtx := ctx
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	var candidates []MatchCandidate
	for _, face := range faces {
		if len(face.Embedding) == 0 {
			continue
		}

		results, err := m.queryWithRetry(queryCtx, face.Embedding)
		if err != nil {
			return nil, err
		}

		for _, c := range results {
			if c.Similarity < m.Threshold {
				continue
			}
			candidates = append(candidates, MatchCandidate{
				FaceIndex: face.Index,
				StudentID: c.StudentID,
				Score:     c.Similarity,
			})
		}
	}
	return candidates, nil
}

// queryWithRetry retries transient registry failures with linear backoff
// until the retry budget or the batch deadline runs out.
func (m *Matcher) queryWithRetry(ctx context.Context, embedding []float32) ([]registry.Candidate, error) {
	var lastErr error
	attempts := m.MaxRetries
	if attempts < 0 {
		attempts = 0
	}

	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: deadline reached during retry: %v", registry.ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * m.Backoff):
			}
		}

		results, err := m.Registry.Query(ctx, embedding, m.TopK)
		if err == nil {
			return results, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: query failed after %d attempt(s): %v", registry.ErrUnavailable, attempts+1, lastErr)
}
