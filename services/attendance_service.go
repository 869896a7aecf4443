package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/registry"
	"github.com/camden-git/attendsysbackend/repository"
)

// ErrNotEnrolled is returned when an attendance mark targets a student who
// is not enrolled in the class.
var ErrNotEnrolled = errors.New("student is not enrolled in this class")

// AttendanceService provides the high-level attendance and enrollment
// operations the HTTP layer exposes
type AttendanceService struct {
	pipeline       *recognition.Pipeline
	extractor      recognition.FaceExtractor
	registry       registry.Registry
	classRepo      repository.ClassRepositoryInterface
	studentRepo    repository.StudentRepositoryInterface
	attendanceRepo repository.AttendanceRepositoryInterface
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	pipeline *recognition.Pipeline,
	extractor recognition.FaceExtractor,
	reg registry.Registry,
	classRepo repository.ClassRepositoryInterface,
	studentRepo repository.StudentRepositoryInterface,
	attendanceRepo repository.AttendanceRepositoryInterface,
) *AttendanceService {
	return &AttendanceService{
		pipeline:       pipeline,
		extractor:      extractor,
		registry:       reg,
		classRepo:      classRepo,
		studentRepo:    studentRepo,
		attendanceRepo: attendanceRepo,
	}
}

// MarkAttendanceByFace runs one photo submission against today's session
// for the class
func (s *AttendanceService) MarkAttendanceByFace(ctx context.Context, classID, markedBy string, payload []byte) (*recognition.SubmissionResult, error) {
	if _, err := s.classRepo.GetByID(classID); err != nil {
		return nil, err
	}

	sub := recognition.Submission{
		ID:       uuid.NewString(),
		ClassID:  classID,
		Date:     time.Now().Format("2006-01-02"),
		MarkedBy: markedBy,
		Image:    payload,
	}
	return s.pipeline.ProcessSubmission(ctx, sub)
}

// EnrollFace extracts the dominant face from an enrollment photo and
// upserts the student's signature. When several faces are present the
// largest region wins, on the assumption that an enrollment photo is a
// close-up of its subject. Returns whether a prior signature was replaced.
func (s *AttendanceService) EnrollFace(ctx context.Context, studentID string, payload []byte) (bool, error) {
	if _, err := s.studentRepo.GetByID(studentID); err != nil {
		return false, err
	}

	faces, err := s.extractor.ExtractFaces(ctx, payload)
	if err != nil {
		return false, err
	}

	var best *recognition.DetectedFace
	for i := range faces {
		if len(faces[i].Embedding) == 0 {
			continue
		}
		if best == nil || boxArea(faces[i].Box) > boxArea(best.Box) {
			best = &faces[i]
		}
	}
	if best == nil {
		return false, recognition.ErrNoFaceDetected
	}

	replaced, err := s.registry.Upsert(ctx, studentID, best.Embedding)
	if err != nil {
		return false, fmt.Errorf("failed to enroll signature for student %s: %w", studentID, err)
	}
	return replaced, nil
}

// RemoveFace de-enrolls the student's signature
func (s *AttendanceService) RemoveFace(ctx context.Context, studentID string) error {
	return s.registry.Remove(ctx, studentID)
}

// MarkManual records (or corrects) an attendance mark by hand. Manual
// marks always overwrite whatever is stored for the composite key.
func (s *AttendanceService) MarkManual(classID, studentID, date, status, markedBy string) (*models.AttendanceRecord, error) {
	if !models.IsValidAttendanceStatus(status) {
		return nil, fmt.Errorf("invalid attendance status %q", status)
	}

	enrolled, err := s.classRepo.IsStudentEnrolled(classID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	record := &models.AttendanceRecord{
		ClassID:   classID,
		StudentID: studentID,
		Date:      date,
		Status:    status,
		MarkedBy:  markedBy,
	}
	if err := s.attendanceRepo.UpsertManual(record); err != nil {
		return nil, err
	}
	return record, nil
}

func boxArea(b recognition.BoundingBox) int {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
