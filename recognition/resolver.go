package recognition

import (
	"sort"
)

// Resolve performs the global one-to-one reconciliation across all match
// candidates of one submission: each identity is credited to at most one
// face, each face to at most one identity, highest similarity first.
//
// This is a greedy approximation of maximum-weight bipartite matching.
// Ties are rare and the greedy policy is deterministic, which matters more
// than optimality for an auditable attendance decision: exact score ties
// are broken by ascending face index, then by student ID, so repeated runs
// on the same input produce the same assignment.
func Resolve(candidates []MatchCandidate) []ResolvedMatch {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]MatchCandidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].FaceIndex != sorted[j].FaceIndex {
			return sorted[i].FaceIndex < sorted[j].FaceIndex
		}
		return sorted[i].StudentID < sorted[j].StudentID
	})

	claimedFaces := make(map[int]bool)
	claimedStudents := make(map[string]bool)

	var resolved []ResolvedMatch
	for _, c := range sorted {
		if claimedFaces[c.FaceIndex] || claimedStudents[c.StudentID] {
			continue
		}
		claimedFaces[c.FaceIndex] = true
		claimedStudents[c.StudentID] = true
		resolved = append(resolved, ResolvedMatch(c))
	}

	// report in face order for stable operator-facing output
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].FaceIndex < resolved[j].FaceIndex
	})
	return resolved
}
