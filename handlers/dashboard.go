package handlers

import (
	"log"
	"net/http"
	"sort"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"

	"github.com/camden-git/attendsysbackend/database"
)

type dashboardStudent struct {
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	PresentCount int     `json:"present_count"`
	LateCount    int     `json:"late_count"`
	AbsentCount  int     `json:"absent_count"`
	Rate         float64 `json:"attendance_rate"`
}

type dashboardResponse struct {
	ClassID  string                        `json:"class_id"`
	Stats    database.ClassAttendanceStats `json:"stats"`
	Students []dashboardStudent            `json:"students"`
}

// Dashboard handles GET /api/classes/{class_id}/attendance/dashboard.
// Students are ordered by natural name order so "Student 2" sorts before
// "Student 10".
func (ah *AttendanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	stats, err := database.GetClassAttendanceStats(ah.DB, classID)
	if err != nil {
		log.Printf("Error aggregating attendance stats for class %s: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "stats_failed", "failed to aggregate attendance statistics")
		return
	}

	rates, err := database.GetStudentAttendanceRates(ah.DB, classID)
	if err != nil {
		log.Printf("Error aggregating student rates for class %s: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "stats_failed", "failed to aggregate student attendance rates")
		return
	}
	rateByStudent := make(map[string]database.StudentAttendanceRate, len(rates))
	for _, rate := range rates {
		rateByStudent[rate.StudentID] = rate
	}

	roster, err := ah.StudentRepo.ListByClassID(classID)
	if err != nil {
		log.Printf("Error loading roster for class %s: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "roster_failed", "failed to load class roster")
		return
	}

	students := make([]dashboardStudent, 0, len(roster))
	for _, s := range roster {
		rate := rateByStudent[s.ID]
		entry := dashboardStudent{
			StudentID:    s.ID,
			Name:         s.Name,
			PresentCount: rate.PresentCount,
			LateCount:    rate.LateCount,
			AbsentCount:  rate.AbsentCount,
		}
		if total := rate.PresentCount + rate.LateCount + rate.AbsentCount; total > 0 {
			entry.Rate = float64(rate.PresentCount+rate.LateCount) / float64(total)
		}
		students = append(students, entry)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return natsort.Compare(students[i].Name, students[j].Name)
		}
		return students[i].StudentID < students[j].StudentID
	})

	writeJSON(w, http.StatusOK, dashboardResponse{
		ClassID:  classID,
		Stats:    stats,
		Students: students,
	})
}
