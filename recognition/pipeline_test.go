package recognition

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/registry"
)

type fakeExtractor struct {
	faces []DetectedFace
	err   error
}

func (f *fakeExtractor) ExtractFaces(ctx context.Context, payload []byte) ([]DetectedFace, error) {
	return f.faces, f.err
}

type fakeRoster struct {
	students []models.Student
}

func (f *fakeRoster) ListByClassID(classID string) ([]models.Student, error) {
	return f.students, nil
}

// fakeAttendanceStore applies decisions against an in-memory record map
// keyed by student ID, honoring the same per-row conflict policy as the
// real repository.
type fakeAttendanceStore struct {
	records    map[string]models.AttendanceRecord
	applyCalls int
	applyErr   error
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{records: make(map[string]models.AttendanceRecord)}
}

func (f *fakeAttendanceStore) ListByClassAndDate(classID, date string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, rec := range f.records {
		if rec.ClassID == classID && rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) ApplyDecisions(decisions []Decision) error {
	f.applyCalls++
	if f.applyErr != nil {
		return f.applyErr
	}
	for _, d := range decisions {
		switch d.Action {
		case ActionCreate:
			if _, exists := f.records[d.Record.StudentID]; !exists {
				f.records[d.Record.StudentID] = d.Record
			}
		case ActionUpgrade:
			if existing, ok := f.records[d.Record.StudentID]; ok && existing.Status == models.AttendanceStatusAbsent {
				f.records[d.Record.StudentID] = d.Record
			}
		case ActionKeep:
		}
	}
	return nil
}

func newTestPipeline(extractor FaceExtractor, reg registry.Registry, roster []models.Student, store *fakeAttendanceStore) *Pipeline {
	return &Pipeline{
		Extractor: extractor,
		Matcher: &Matcher{
			Registry:   reg,
			Threshold:  0.6,
			TopK:       5,
			Timeout:    time.Second,
			MaxRetries: 1,
			Backoff:    time.Millisecond,
		},
		Roster:     &fakeRoster{students: roster},
		Attendance: store,
	}
}

func submissionFixture() Submission {
	return Submission{
		ID:       "sub-1",
		ClassID:  "class-1",
		Date:     "2026-08-25",
		MarkedBy: "teacher-1",
		Image:    []byte("jpeg-bytes"),
	}
}

func TestPipelineFullSubmission(t *testing.T) {
	extractor := &fakeExtractor{faces: []DetectedFace{
		{Index: 0, Embedding: []float32{1, 0}},
		{Index: 1, Embedding: []float32{0, 1}},
		{Index: 2, Embedding: []float32{1, 1}},
	}}
	reg := &fakeRegistry{candidates: map[int][]registry.Candidate{
		1: {{StudentID: "s1", Similarity: 0.82}},
		2: {{StudentID: "s2", Similarity: 0.65}},
		3: {{StudentID: "s3", Similarity: 0.40}}, // below threshold
	}}
	store := newFakeAttendanceStore()
	p := newTestPipeline(extractor, reg, rosterOf("s1", "s2", "s3"), store)

	result, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.FacesDetected)
	assert.Equal(t, 2, result.FacesRecognized)
	assert.Equal(t, 1, result.FacesUnrecognized)
	assert.Equal(t, result.FacesDetected, result.FacesRecognized+result.FacesUnrecognized)
	assert.Equal(t, 2, result.MarkedPresent)
	assert.Equal(t, 1, result.MarkedAbsent)
	require.Len(t, result.UnrecognizedFaces, 1)
	assert.Equal(t, 2, result.UnrecognizedFaces[0].FaceIndex)

	assert.Equal(t, models.AttendanceStatusPresent, store.records["s1"].Status)
	assert.Equal(t, models.AttendanceMethodFaceMatch, store.records["s1"].Method)
	assert.Equal(t, models.AttendanceStatusPresent, store.records["s2"].Status)
	assert.Equal(t, models.AttendanceStatusAbsent, store.records["s3"].Status)
	assert.Equal(t, models.AttendanceMethodManual, store.records["s3"].Method)
}

func TestPipelineZeroFacesWritesNothing(t *testing.T) {
	extractor := &fakeExtractor{faces: nil}
	store := newFakeAttendanceStore()
	p := newTestPipeline(extractor, &fakeRegistry{}, rosterOf("s1"), store)

	result, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.FacesDetected)
	assert.Equal(t, 0, store.applyCalls, "zero faces must not touch attendance")
	assert.Empty(t, store.records)
}

func TestPipelineInvalidImageAborts(t *testing.T) {
	extractor := &fakeExtractor{err: fmt.Errorf("%w: bad payload", ErrInvalidImage)}
	store := newFakeAttendanceStore()
	p := newTestPipeline(extractor, &fakeRegistry{}, rosterOf("s1"), store)

	_, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidImage))
	assert.Equal(t, 0, store.applyCalls)
}

func TestPipelineRegistryOutageAborts(t *testing.T) {
	extractor := &fakeExtractor{faces: []DetectedFace{{Index: 0, Embedding: []float32{1, 0}}}}
	reg := &fakeRegistry{failures: 100}
	store := newFakeAttendanceStore()
	p := newTestPipeline(extractor, reg, rosterOf("s1"), store)

	_, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrUnavailable))
	assert.Equal(t, 0, store.applyCalls, "an aborted submission must write no attendance")
}

func TestPipelineDegradedFaceStaysUnrecognized(t *testing.T) {
	extractor := &fakeExtractor{faces: []DetectedFace{
		{Index: 0, Embedding: nil}, // embedding extraction failed
		{Index: 1, Embedding: []float32{1, 0}},
	}}
	reg := &fakeRegistry{candidates: map[int][]registry.Candidate{
		1: {{StudentID: "s1", Similarity: 0.9}},
	}}
	store := newFakeAttendanceStore()
	p := newTestPipeline(extractor, reg, rosterOf("s1", "s2"), store)

	result, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.NoError(t, err)

	assert.Equal(t, 2, result.FacesDetected)
	assert.Equal(t, 1, result.FacesRecognized)
	assert.Equal(t, 1, result.FacesUnrecognized)
	require.Len(t, result.UnrecognizedFaces, 1)
	assert.Equal(t, 0, result.UnrecognizedFaces[0].FaceIndex)
}

func TestPipelineRecognizedButNotEnrolled(t *testing.T) {
	extractor := &fakeExtractor{faces: []DetectedFace{{Index: 0, Embedding: []float32{1, 0}}}}
	reg := &fakeRegistry{candidates: map[int][]registry.Candidate{
		1: {{StudentID: "stranger", Similarity: 0.95}},
	}}
	store := newFakeAttendanceStore()
	p := newTestPipeline(extractor, reg, rosterOf("s1"), store)

	result, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"stranger"}, result.NotEnrolled)
	_, hasStranger := store.records["stranger"]
	assert.False(t, hasStranger, "non-roster students receive no record")
	assert.Equal(t, models.AttendanceStatusAbsent, store.records["s1"].Status)
}

func TestPipelineDoubleSubmissionIsIdempotent(t *testing.T) {
	extractor := &fakeExtractor{faces: []DetectedFace{{Index: 0, Embedding: []float32{1, 0}}}}
	store := newFakeAttendanceStore()
	roster := rosterOf("s1", "s2")

	firstReg := &fakeRegistry{candidates: map[int][]registry.Candidate{
		1: {{StudentID: "s1", Similarity: 0.82}},
	}}
	p := newTestPipeline(extractor, firstReg, roster, store)
	_, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.NoError(t, err)

	firstRecords := make(map[string]models.AttendanceRecord, len(store.records))
	for k, v := range store.records {
		firstRecords[k] = v
	}

	secondReg := &fakeRegistry{candidates: map[int][]registry.Candidate{
		1: {{StudentID: "s1", Similarity: 0.82}},
	}}
	p2 := newTestPipeline(extractor, secondReg, roster, store)
	sub2 := submissionFixture()
	sub2.ID = "sub-2"
	result, err := p2.ProcessSubmission(context.Background(), sub2)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, firstRecords, store.records, "a duplicate submission must not change stored attendance")
}

func TestPipelinePersistFailureAborts(t *testing.T) {
	extractor := &fakeExtractor{faces: []DetectedFace{{Index: 0, Embedding: []float32{1, 0}}}}
	reg := &fakeRegistry{candidates: map[int][]registry.Candidate{
		1: {{StudentID: "s1", Similarity: 0.9}},
	}}
	store := newFakeAttendanceStore()
	store.applyErr = errors.New("disk full")
	p := newTestPipeline(extractor, reg, rosterOf("s1"), store)

	_, err := p.ProcessSubmission(context.Background(), submissionFixture())
	require.Error(t, err)
	assert.Empty(t, store.records)
}
