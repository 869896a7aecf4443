package recognition

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/camden-git/attendsysbackend/models"
)

// RosterSource supplies the enrolled roster for a class.
type RosterSource interface {
	ListByClassID(classID string) ([]models.Student, error)
}

// AttendanceStore persists the decision set. ApplyDecisions must be atomic:
// either the whole set is applied (respecting per-row conflict policy) or
// none of it is.
type AttendanceStore interface {
	ListByClassAndDate(classID, date string) ([]models.AttendanceRecord, error)
	ApplyDecisions(decisions []Decision) error
}

// Submission is one photo-based attendance request.
type Submission struct {
	ID       string // assigned when empty
	ClassID  string
	Date     string // YYYY-MM-DD
	MarkedBy string
	Image    []byte
}

// Pipeline runs one attendance submission end to end: extract faces, match
// them against the registry, resolve assignments, build decisions, persist.
// Submissions are independent units of work and share no mutable state, so
// multiple pipelines (or calls) may run concurrently.
type Pipeline struct {
	Extractor  FaceExtractor
	Matcher    *Matcher
	Roster     RosterSource
	Attendance AttendanceStore
}

// ProcessSubmission executes the full pipeline for one photo. Per-face
// problems degrade that face to unrecognized; infrastructure problems
// (unreadable payload, registry outage) abort the whole submission with no
// attendance written.
func (p *Pipeline) ProcessSubmission(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	faces, err := p.Extractor.ExtractFaces(ctx, sub.Image)
	if err != nil {
		return nil, err
	}

	result := &SubmissionResult{
		Success:            true,
		SubmissionID:       sub.ID,
		FacesDetected:      len(faces),
		RecognizedStudents: []RecognizedStudent{},
		UnrecognizedFaces:  []UnrecognizedFace{},
	}

	if len(faces) == 0 {
		// a valid, non-error outcome: nothing to decide, nothing written
		result.Message = "no faces detected in the image; no attendance recorded"
		return result, nil
	}

	candidates, err := p.Matcher.MatchAll(ctx, faces)
	if err != nil {
		return nil, err
	}

	matches := Resolve(candidates)

	roster, err := p.Roster.ListByClassID(sub.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for class %s: %w", sub.ClassID, err)
	}
	existing, err := p.Attendance.ListByClassAndDate(sub.ClassID, sub.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing attendance for class %s on %s: %w", sub.ClassID, sub.Date, err)
	}

	// the registry is global; a recognized student may not belong to this
	// class. They are reported but receive no record here.
	enrolled := make(map[string]bool, len(roster))
	for _, s := range roster {
		enrolled[s.ID] = true
	}
	var rosterMatches []ResolvedMatch
	for _, m := range matches {
		if enrolled[m.StudentID] {
			rosterMatches = append(rosterMatches, m)
		} else {
			result.NotEnrolled = append(result.NotEnrolled, m.StudentID)
		}
	}

	decisions := BuildDecisions(DecisionInput{
		ClassID:      sub.ClassID,
		Date:         sub.Date,
		MarkedBy:     sub.MarkedBy,
		SubmissionID: sub.ID,
		Matches:      rosterMatches,
		Roster:       roster,
		Existing:     existing,
	})

	if err := p.Attendance.ApplyDecisions(decisions); err != nil {
		return nil, fmt.Errorf("failed to persist attendance decisions: %w", err)
	}

	claimed := make(map[int]bool, len(matches))
	for _, m := range matches {
		claimed[m.FaceIndex] = true
		result.RecognizedStudents = append(result.RecognizedStudents, RecognizedStudent{
			StudentID:       m.StudentID,
			FaceIndex:       m.FaceIndex,
			SimilarityScore: m.Score,
		})
	}
	for _, f := range faces {
		if !claimed[f.Index] {
			result.UnrecognizedFaces = append(result.UnrecognizedFaces, UnrecognizedFace{FaceIndex: f.Index})
		}
	}

	result.FacesRecognized = len(matches)
	result.FacesUnrecognized = len(faces) - len(matches)
	for _, d := range decisions {
		switch d.Record.Status {
		case models.AttendanceStatusPresent:
			result.MarkedPresent++
		case models.AttendanceStatusAbsent:
			result.MarkedAbsent++
		}
	}

	result.Message = fmt.Sprintf("recognized %d of %d detected face(s); %d present, %d absent",
		result.FacesRecognized, result.FacesDetected, result.MarkedPresent, result.MarkedAbsent)
	if n := len(result.NotEnrolled); n > 0 {
		result.Message += fmt.Sprintf("; %d recognized student(s) not enrolled in this class", n)
	}

	log.Printf("submission %s: class=%s date=%s faces=%d recognized=%d unrecognized=%d",
		sub.ID, sub.ClassID, sub.Date, result.FacesDetected, result.FacesRecognized, result.FacesUnrecognized)
	return result, nil
}
