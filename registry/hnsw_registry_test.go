package registry

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
)

// memoryStore is an in-memory SignatureStore for tests.
type memoryStore struct {
	signatures map[string]*models.FaceSignature
	upsertErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{signatures: make(map[string]*models.FaceSignature)}
}

func (m *memoryStore) Upsert(signature *models.FaceSignature) (bool, error) {
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	_, replaced := m.signatures[signature.StudentID]
	cp := *signature
	m.signatures[signature.StudentID] = &cp
	return replaced, nil
}

func (m *memoryStore) ListAll() ([]models.FaceSignature, error) {
	out := make([]models.FaceSignature, 0, len(m.signatures))
	for _, sig := range m.signatures {
		out = append(out, *sig)
	}
	return out, nil
}

func (m *memoryStore) DeleteByStudentID(studentID string) error {
	if _, ok := m.signatures[studentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.signatures, studentID)
	return nil
}

const testDimension = 4

func unitVec(dims ...float32) []float32 {
	v := make([]float32, testDimension)
	copy(v, dims)
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	scale := 1 / float32(math.Sqrt(float64(norm)))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func TestRegistryEnrollThenQuery(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	replaced, err := reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))
	require.NoError(t, err)
	assert.False(t, replaced)

	candidates, err := reg.Query(ctx, unitVec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "s1", candidates[0].StudentID)
	assert.InDelta(t, 1.0, candidates[0].Similarity, 0.001)

	// persisted through the store as well
	require.Contains(t, store.signatures, "s1")
	assert.Equal(t, testDimension, store.signatures["s1"].Dimension)
}

func TestRegistryUpsertReplaces(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	_, err := reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))
	require.NoError(t, err)
	replaced, err := reg.Upsert(ctx, "s1", unitVec(0, 1, 0, 0))
	require.NoError(t, err)
	assert.True(t, replaced)

	// queries see only the latest signature
	candidates, err := reg.Query(ctx, unitVec(0, 1, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 1.0, candidates[0].Similarity, 0.001)

	candidates, err = reg.Query(ctx, unitVec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.0, candidates[0].Similarity, 0.001, "stale orthogonal signature must not score")
}

func TestRegistryDimensionMismatch(t *testing.T) {
	reg := NewHNSWRegistry(newMemoryStore(), testDimension, "arcface")
	_, err := reg.Upsert(context.Background(), "s1", []float32{1, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestRegistryQueryOrdering(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	require.NoError(t, errOnly(reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))))
	require.NoError(t, errOnly(reg.Upsert(ctx, "s2", unitVec(1, 1, 0, 0))))
	require.NoError(t, errOnly(reg.Upsert(ctx, "s3", unitVec(0, 1, 0, 0))))

	candidates, err := reg.Query(ctx, unitVec(1, 0, 0, 0), 3)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "s1", candidates[0].StudentID)
	assert.Equal(t, "s2", candidates[1].StudentID)
	assert.Equal(t, "s3", candidates[2].StudentID)
	for i := 0; i < len(candidates)-1; i++ {
		assert.GreaterOrEqual(t, candidates[i].Similarity, candidates[i+1].Similarity)
	}
}

func TestRegistryQueryHonorsTopK(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	ids := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	for i, id := range ids {
		v := unitVec(1, float32(i)*0.1, 0, 0)
		require.NoError(t, errOnly(reg.Upsert(ctx, id, v)))
	}

	candidates, err := reg.Query(ctx, unitVec(1, 0, 0, 0), 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRegistryRemove(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	require.NoError(t, errOnly(reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))))
	require.NoError(t, errOnly(reg.Upsert(ctx, "s2", unitVec(0, 1, 0, 0))))
	require.NoError(t, reg.Remove(ctx, "s1"))

	assert.Equal(t, 1, reg.Count())
	assert.NotContains(t, store.signatures, "s1")

	// the removed student must not surface in results
	candidates, err := reg.Query(ctx, unitVec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "s2", candidates[0].StudentID)
}

func TestRegistryRemoveThenReenroll(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	require.NoError(t, errOnly(reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))))
	require.NoError(t, reg.Remove(ctx, "s1"))

	// re-enrollment after removal is a fresh signature, not a replace
	replaced, err := reg.Upsert(ctx, "s1", unitVec(0, 1, 0, 0))
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, 1, reg.Count())

	candidates, err := reg.Query(ctx, unitVec(0, 1, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "s1", candidates[0].StudentID)
	assert.InDelta(t, 1.0, candidates[0].Similarity, 0.001)
}

func TestRegistryRepeatedReplace(t *testing.T) {
	store := newMemoryStore()
	reg := NewHNSWRegistry(store, testDimension, "arcface")
	ctx := context.Background()

	_, err := reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))
	require.NoError(t, err)

	// every subsequent enrollment for the same student replaces in place
	for i := 0; i < 5; i++ {
		v := unitVec(1, float32(i+1), 0, 0)
		replaced, err := reg.Upsert(ctx, "s1", v)
		require.NoError(t, err)
		assert.True(t, replaced)

		candidates, err := reg.Query(ctx, v, 5)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.InDelta(t, 1.0, candidates[0].Similarity, 0.001)
	}
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryRemoveUnknownStudent(t *testing.T) {
	reg := NewHNSWRegistry(newMemoryStore(), testDimension, "arcface")
	err := reg.Remove(context.Background(), "ghost")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRegistryLoadFromStore(t *testing.T) {
	store := newMemoryStore()
	for _, id := range []string{"s1", "s2"} {
		sig := &models.FaceSignature{StudentID: id, EmbeddingModel: "arcface"}
		sig.SetEmbedding(unitVec(1, 0, 0, 0))
		store.signatures[id] = sig
	}

	reg := NewHNSWRegistry(store, testDimension, "arcface")
	require.NoError(t, reg.LoadFromStore())
	assert.Equal(t, 2, reg.Count())

	candidates, err := reg.Query(context.Background(), unitVec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRegistryQueryEmpty(t *testing.T) {
	reg := NewHNSWRegistry(newMemoryStore(), testDimension, "arcface")
	candidates, err := reg.Query(context.Background(), unitVec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRegistryCancelledContext(t *testing.T) {
	reg := NewHNSWRegistry(newMemoryStore(), testDimension, "arcface")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Query(ctx, unitVec(1, 0, 0, 0), 5)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = reg.Upsert(ctx, "s1", unitVec(1, 0, 0, 0))
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestSimilarityClamps(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	assert.InDelta(t, 1.0, Similarity(a, a), 0.001)
	assert.InDelta(t, 0.0, Similarity(a, []float32{0, 1, 0, 0}), 0.001)
	assert.InDelta(t, 0.0, Similarity(a, []float32{-1, 0, 0, 0}), 0.001, "negative cosine clamps to zero")
}

func errOnly(_ bool, err error) error {
	return err
}
