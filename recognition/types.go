package recognition

import (
	"context"
)

// BoundingBox is a face region within the submitted photo, in pixel
// coordinates of the decoded image.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// DetectedFace is one face found in a submission photo. Index is the
// position in detection order (left-to-right, then top-to-bottom) and is
// stable for the duration of one request. A nil Embedding means extraction
// failed for this face; it degrades to unrecognized instead of failing the
// submission.
type DetectedFace struct {
	Index     int
	Box       BoundingBox
	Embedding []float32
}

// FaceExtractor turns a raw photo payload into detected faces with
// embeddings. Implementations wrap the DNN detector and embedding model;
// a payload that cannot be decoded returns an error wrapping
// ErrInvalidImage before any detection runs.
type FaceExtractor interface {
	ExtractFaces(ctx context.Context, payload []byte) ([]DetectedFace, error)
}

// MatchCandidate pairs a detected face with one enrolled identity the
// registry considers similar. Only candidates at or above the session
// threshold survive the matching stage.
type MatchCandidate struct {
	FaceIndex int
	StudentID string
	Score     float64
}

// ResolvedMatch is an accepted face-to-identity assignment. Within one
// submission both FaceIndex and StudentID are unique across the set.
type ResolvedMatch struct {
	FaceIndex int
	StudentID string
	Score     float64
}

// RecognizedStudent is the caller-facing shape for one resolved match.
type RecognizedStudent struct {
	StudentID       string  `json:"student_id"`
	FaceIndex       int     `json:"face_index"`
	SimilarityScore float64 `json:"similarity_score"`
}

// UnrecognizedFace is the caller-facing shape for a face that matched no
// enrolled identity.
type UnrecognizedFace struct {
	FaceIndex int `json:"face_index"`
}

// SubmissionResult is returned to the caller after one photo submission.
// Records are persisted separately; this summary is for operator review.
type SubmissionResult struct {
	Success            bool                `json:"success"`
	SubmissionID       string              `json:"submission_id"`
	FacesDetected      int                 `json:"faces_detected"`
	FacesRecognized    int                 `json:"faces_recognized"`
	FacesUnrecognized  int                 `json:"faces_unrecognized"`
	RecognizedStudents []RecognizedStudent `json:"recognized_students"`
	UnrecognizedFaces  []UnrecognizedFace  `json:"unrecognized_faces"`
	MarkedPresent      int                 `json:"marked_present"`
	MarkedAbsent       int                 `json:"marked_absent"`
	NotEnrolled        []string            `json:"not_enrolled,omitempty"` // recognized but not on this class roster
	PhotoTakenAt       *int64              `json:"photo_taken_at,omitempty"`
	Message            string              `json:"message"`
}
