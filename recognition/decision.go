package recognition

import (
	"github.com/camden-git/attendsysbackend/models"
)

// DecisionAction says how a decision must be applied against storage.
type DecisionAction int

const (
	// ActionCreate inserts the record if the composite key is free.
	ActionCreate DecisionAction = iota
	// ActionUpgrade conditionally flips an existing absent record to a
	// face-match presence. Manual present/late marks are never touched.
	ActionUpgrade
	// ActionKeep leaves the existing record as-is; the prior mark wins.
	ActionKeep
)

// Decision is one attendance outcome for one enrolled student.
type Decision struct {
	Record models.AttendanceRecord
	Action DecisionAction
}

// DecisionInput carries the session context and the per-submission results
// into the decision stage.
type DecisionInput struct {
	ClassID      string
	Date         string // YYYY-MM-DD
	MarkedBy     string
	SubmissionID string
	Matches      []ResolvedMatch
	Roster       []models.Student
	Existing     []models.AttendanceRecord // pre-existing records for (class, date)
}

// BuildDecisions merges resolved matches with the enrolled roster and any
// pre-existing records into one attendance decision per enrolled student:
//
//   - resolved match     -> present, face_match, confidence = similarity
//   - existing record    -> kept; a face match only upgrades an absent
//     record to presence, it never downgrades a manual present or late
//   - everyone else      -> absent, manual, no confidence
//
// Resolved matches for students outside the roster are ignored here; the
// pipeline reports them separately.
func BuildDecisions(in DecisionInput) []Decision {
	matchByStudent := make(map[string]ResolvedMatch, len(in.Matches))
	for _, m := range in.Matches {
		matchByStudent[m.StudentID] = m
	}
	existingByStudent := make(map[string]models.AttendanceRecord, len(in.Existing))
	for _, rec := range in.Existing {
		existingByStudent[rec.StudentID] = rec
	}

	decisions := make([]Decision, 0, len(in.Roster))
	for _, student := range in.Roster {
		match, matched := matchByStudent[student.ID]
		existing, hasExisting := existingByStudent[student.ID]

		var d Decision
		switch {
		case matched:
			score := match.Score
			submissionID := in.SubmissionID
			d = Decision{
				Record: models.AttendanceRecord{
					ClassID:         in.ClassID,
					StudentID:       student.ID,
					Date:            in.Date,
					Status:          models.AttendanceStatusPresent,
					Method:          models.AttendanceMethodFaceMatch,
					ConfidenceScore: &score,
					MarkedBy:        in.MarkedBy,
					SubmissionID:    &submissionID,
				},
				Action: ActionCreate,
			}
			if hasExisting {
				if existing.Status == models.AttendanceStatusAbsent {
					d.Action = ActionUpgrade
				} else {
					// already present or late; duplicate submission is a no-op
					d.Action = ActionKeep
				}
			}
		case hasExisting:
			d = Decision{Record: existing, Action: ActionKeep}
		default:
			d = Decision{
				Record: models.AttendanceRecord{
					ClassID:   in.ClassID,
					StudentID: student.ID,
					Date:      in.Date,
					Status:    models.AttendanceStatusAbsent,
					Method:    models.AttendanceMethodManual,
					MarkedBy:  in.MarkedBy,
				},
				Action: ActionCreate,
			}
		}
		decisions = append(decisions, d)
	}
	return decisions
}
