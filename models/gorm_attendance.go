package models

// Attendance statuses
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLate    = "late"
)

// Attendance marking methods
const (
	AttendanceMethodManual    = "manual"
	AttendanceMethodFaceMatch = "face_match"
)

// AttendanceRecord represents one attendance decision for a student in a
// class on a given date. It corresponds to the 'attendance_records' table.
// The composite (class_id, student_id, date) is unique; a record is written
// once and only mutated by explicit manual correction.
type AttendanceRecord struct {
	ID              string   `gorm:"primaryKey;size:36" json:"id"`
	ClassID         string   `gorm:"not null;size:36;uniqueIndex:idx_attendance_class_student_date" json:"class_id"`
	StudentID       string   `gorm:"not null;size:36;uniqueIndex:idx_attendance_class_student_date" json:"student_id"`
	Date            string   `gorm:"not null;size:10;uniqueIndex:idx_attendance_class_student_date" json:"date"` // YYYY-MM-DD
	Status          string   `gorm:"not null" json:"status"`
	Method          string   `gorm:"not null;default:'manual'" json:"method"`
	ConfidenceScore *float64 `gorm:"column:confidence_score" json:"confidence_score,omitempty"` // only set for face_match
	MarkedBy        string   `gorm:"not null" json:"marked_by"`
	SubmissionID    *string  `gorm:"size:36" json:"submission_id,omitempty"` // photo submission that produced this record
	CreatedAt       int64    `gorm:"not null" json:"created_at"`             // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// IsValidAttendanceStatus reports whether s is one of the accepted statuses.
func IsValidAttendanceStatus(s string) bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	}
	return false
}
