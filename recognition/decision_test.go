package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/attendsysbackend/models"
)

func rosterOf(ids ...string) []models.Student {
	students := make([]models.Student, len(ids))
	for i, id := range ids {
		students[i] = models.Student{ID: id, Name: "Student " + id}
	}
	return students
}

func TestBuildDecisionsCoversWholeRoster(t *testing.T) {
	in := DecisionInput{
		ClassID:      "class-1",
		Date:         "2026-08-25",
		MarkedBy:     "teacher-1",
		SubmissionID: "sub-1",
		Matches: []ResolvedMatch{
			{FaceIndex: 0, StudentID: "s1", Score: 0.82},
		},
		Roster: rosterOf("s1", "s2", "s3"),
	}

	decisions := BuildDecisions(in)
	require.Len(t, decisions, 3)

	byStudent := make(map[string]Decision)
	for _, d := range decisions {
		byStudent[d.Record.StudentID] = d
	}

	matched := byStudent["s1"]
	assert.Equal(t, ActionCreate, matched.Action)
	assert.Equal(t, models.AttendanceStatusPresent, matched.Record.Status)
	assert.Equal(t, models.AttendanceMethodFaceMatch, matched.Record.Method)
	require.NotNil(t, matched.Record.ConfidenceScore)
	assert.Equal(t, 0.82, *matched.Record.ConfidenceScore)
	require.NotNil(t, matched.Record.SubmissionID)
	assert.Equal(t, "sub-1", *matched.Record.SubmissionID)

	for _, id := range []string{"s2", "s3"} {
		d := byStudent[id]
		assert.Equal(t, ActionCreate, d.Action)
		assert.Equal(t, models.AttendanceStatusAbsent, d.Record.Status)
		assert.Equal(t, models.AttendanceMethodManual, d.Record.Method)
		assert.Nil(t, d.Record.ConfidenceScore)
	}
}

func TestBuildDecisionsUpgradesAbsentOnly(t *testing.T) {
	existingAbsent := models.AttendanceRecord{
		ClassID: "class-1", StudentID: "s1", Date: "2026-08-25",
		Status: models.AttendanceStatusAbsent, Method: models.AttendanceMethodManual,
	}
	existingPresent := models.AttendanceRecord{
		ClassID: "class-1", StudentID: "s2", Date: "2026-08-25",
		Status: models.AttendanceStatusPresent, Method: models.AttendanceMethodManual,
	}
	existingLate := models.AttendanceRecord{
		ClassID: "class-1", StudentID: "s3", Date: "2026-08-25",
		Status: models.AttendanceStatusLate, Method: models.AttendanceMethodManual,
	}

	in := DecisionInput{
		ClassID: "class-1", Date: "2026-08-25", MarkedBy: "teacher-1", SubmissionID: "sub-2",
		Matches: []ResolvedMatch{
			{FaceIndex: 0, StudentID: "s1", Score: 0.9},
			{FaceIndex: 1, StudentID: "s2", Score: 0.9},
			{FaceIndex: 2, StudentID: "s3", Score: 0.9},
		},
		Roster:   rosterOf("s1", "s2", "s3"),
		Existing: []models.AttendanceRecord{existingAbsent, existingPresent, existingLate},
	}

	decisions := BuildDecisions(in)
	require.Len(t, decisions, 3)

	byStudent := make(map[string]Decision)
	for _, d := range decisions {
		byStudent[d.Record.StudentID] = d
	}

	// absent upgrades to a face-match presence
	assert.Equal(t, ActionUpgrade, byStudent["s1"].Action)
	assert.Equal(t, models.AttendanceStatusPresent, byStudent["s1"].Record.Status)

	// a manual present or late mark is never downgraded or overwritten
	assert.Equal(t, ActionKeep, byStudent["s2"].Action)
	assert.Equal(t, ActionKeep, byStudent["s3"].Action)
}

func TestBuildDecisionsKeepsExistingForUnmatched(t *testing.T) {
	existing := models.AttendanceRecord{
		ClassID: "class-1", StudentID: "s1", Date: "2026-08-25",
		Status: models.AttendanceStatusLate, Method: models.AttendanceMethodManual,
	}

	in := DecisionInput{
		ClassID: "class-1", Date: "2026-08-25", MarkedBy: "teacher-1",
		Roster:   rosterOf("s1"),
		Existing: []models.AttendanceRecord{existing},
	}

	decisions := BuildDecisions(in)
	require.Len(t, decisions, 1)
	assert.Equal(t, ActionKeep, decisions[0].Action)
	assert.Equal(t, models.AttendanceStatusLate, decisions[0].Record.Status)
}

func TestBuildDecisionsIgnoresMatchesOutsideRoster(t *testing.T) {
	in := DecisionInput{
		ClassID: "class-1", Date: "2026-08-25", MarkedBy: "teacher-1", SubmissionID: "sub-3",
		Matches: []ResolvedMatch{
			{FaceIndex: 0, StudentID: "stranger", Score: 0.95},
		},
		Roster: rosterOf("s1"),
	}

	decisions := BuildDecisions(in)
	require.Len(t, decisions, 1)
	assert.Equal(t, "s1", decisions[0].Record.StudentID)
	assert.Equal(t, models.AttendanceStatusAbsent, decisions[0].Record.Status)
}

func TestBuildDecisionsEmptyRoster(t *testing.T) {
	in := DecisionInput{
		ClassID: "class-1", Date: "2026-08-25",
		Matches: []ResolvedMatch{{FaceIndex: 0, StudentID: "s1", Score: 0.9}},
	}
	assert.Empty(t, BuildDecisions(in))
}
