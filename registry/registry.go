package registry

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the registry cannot be reached or the
// request deadline expired. Submissions treat it as transient.
var ErrUnavailable = errors.New("signature registry unavailable")

// Candidate is one enrolled identity returned by a top-k query, with its
// similarity to the query signature. Higher means more alike.
type Candidate struct {
	StudentID  string  `json:"student_id"`
	Similarity float64 `json:"similarity"`
}

// Registry stores one live face signature per enrolled student and answers
// nearest-neighbor queries. Implementations may be remote and slow; all
// operations honor the supplied context.
type Registry interface {
	// Upsert replaces any prior signature for the student. Returns whether
	// a prior signature existed.
	Upsert(ctx context.Context, studentID string, embedding []float32) (replaced bool, err error)

	// Query returns up to topK enrolled identities ordered by descending
	// similarity to the given signature. Exact score ties are ordered by
	// ascending student ID so repeated queries are deterministic.
	Query(ctx context.Context, embedding []float32, topK int) ([]Candidate, error)

	// Remove deletes the signature for a student (de-enrollment).
	Remove(ctx context.Context, studentID string) error
}
