package registry

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/camden-git/attendsysbackend/models"
)

// SignatureStore is the durable backing the registry needs: the
// SignatureRepository satisfies it.
type SignatureStore interface {
	Upsert(signature *models.FaceSignature) (replaced bool, err error)
	ListAll() ([]models.FaceSignature, error)
	DeleteByStudentID(studentID string) error
}

const (
	// HNSWMaxNeighbors is the M parameter of the graph
	HNSWMaxNeighbors = 16

	// hnswSearchMultiplier widens the ANN search beyond topK; the search is
	// approximate and extra candidates improve recall before the exact
	// rescoring pass
	hnswSearchMultiplier = 4
)

// HNSWRegistry is an in-process Registry backed by a coder/hnsw graph for
// approximate nearest-neighbor search and a SignatureRepository for
// durability. The live signature map mirrors the graph under the same lock;
// similarity is always recomputed exactly against the live embedding rather
// than trusting the graph's approximate distances.
type HNSWRegistry struct {
	graph *hnsw.Graph[string]
	sigs  map[string][]float32
	mu    sync.RWMutex

	store     SignatureStore
	dimension int
	modelName string
}

// Ensure HNSWRegistry implements Registry
var _ Registry = (*HNSWRegistry)(nil)

// NewHNSWRegistry creates an empty registry. Call LoadFromStore to hydrate
// it from persisted signatures.
func NewHNSWRegistry(store SignatureStore, dimension int, modelName string) *HNSWRegistry {
	return &HNSWRegistry{
		sigs:      make(map[string][]float32),
		store:     store,
		dimension: dimension,
		modelName: modelName,
	}
}

func (r *HNSWRegistry) newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// LoadFromStore rebuilds the index from every persisted signature. Called
// once at startup before the registry serves queries.
func (r *HNSWRegistry) LoadFromStore() error {
	signatures, err := r.store.ListAll()
	if err != nil {
		return fmt.Errorf("failed to load signatures from store: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sigs = make(map[string][]float32, len(signatures))
	if len(signatures) == 0 {
		r.graph = nil
		return nil
	}

	g := r.newGraph()
	for i := range signatures {
		embedding := signatures[i].GetEmbedding()
		if len(embedding) == 0 {
			log.Printf("registry: skipping empty signature for student %s", signatures[i].StudentID)
			continue
		}
		g.Add(hnsw.MakeNode(signatures[i].StudentID, embedding))
		r.sigs[signatures[i].StudentID] = embedding
	}
	r.graph = g

	log.Printf("registry: loaded %d signature(s) into HNSW index", len(r.sigs))
	return nil
}

// Upsert persists the signature and replaces the student's node in the
// index. Last write wins; in-flight queries may still observe the old
// signature, which is acceptable per the enrollment race policy.
func (r *HNSWRegistry) Upsert(ctx context.Context, studentID string, embedding []float32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(embedding) != r.dimension {
		return false, fmt.Errorf("signature dimension mismatch: got %d, registry requires %d", len(embedding), r.dimension)
	}

	signature := &models.FaceSignature{
		StudentID:      studentID,
		EmbeddingModel: r.modelName,
	}
	signature.SetEmbedding(embedding)

	replaced, err := r.store.Upsert(signature)
	if err != nil {
		return false, fmt.Errorf("failed to persist signature for student %s: %w", studentID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.graph == nil {
		r.graph = r.newGraph()
	}
	// Graph.Add rejects a duplicate key, so any prior node for this student
	// must be dropped before the replacement is inserted
	r.graph.Delete(studentID)
	r.graph.Add(hnsw.MakeNode(studentID, embedding))
	r.sigs[studentID] = embedding

	return replaced, nil
}

// Query searches the index for the topK most similar enrolled students.
func (r *HNSWRegistry) Query(ctx context.Context, embedding []float32, topK int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if topK <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.graph == nil || len(r.sigs) == 0 {
		return nil, nil
	}

	// Search with more candidates for better recall after filtering
	searchK := topK * hnswSearchMultiplier
	if searchK < HNSWMaxNeighbors {
		searchK = HNSWMaxNeighbors
	}
	neighbors := r.graph.Search(embedding, searchK)

	seen := make(map[string]bool, len(neighbors))
	candidates := make([]Candidate, 0, topK)
	for _, n := range neighbors {
		live, ok := r.sigs[n.Key]
		if !ok || seen[n.Key] {
			continue
		}
		seen[n.Key] = true
		candidates = append(candidates, Candidate{
			StudentID:  n.Key,
			Similarity: Similarity(embedding, live),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].StudentID < candidates[j].StudentID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Remove deletes the signature for a student from both the store and the
// index, so the key is free for a later re-enrollment.
func (r *HNSWRegistry) Remove(ctx context.Context, studentID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := r.store.DeleteByStudentID(studentID); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sigs, studentID)
	if r.graph != nil {
		r.graph.Delete(studentID)
	}
	r.mu.Unlock()
	return nil
}

// Count returns the number of enrolled signatures.
func (r *HNSWRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sigs)
}
