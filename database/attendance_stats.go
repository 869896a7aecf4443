package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ClassAttendanceStats summarises recorded attendance for one class
type ClassAttendanceStats struct {
	TotalSessions  int `json:"total_sessions"`
	PresentRecords int `json:"total_present_records"`
	LateRecords    int `json:"total_late_records"`
	AbsentRecords  int `json:"total_absent_records"`
}

// StudentAttendanceRate is a per-student aggregation for the dashboard
type StudentAttendanceRate struct {
	StudentID    string `json:"student_id"`
	PresentCount int    `json:"present_count"`
	LateCount    int    `json:"late_count"`
	AbsentCount  int    `json:"absent_count"`
}

// GetClassAttendanceStats aggregates attendance counts for a class across all dates
func GetClassAttendanceStats(db *sql.DB, classID string) (ClassAttendanceStats, error) {
	var stats ClassAttendanceStats

	sessionQuery := psql.Select("COUNT(DISTINCT date)").
		From("attendance_records").
		Where(sq.Eq{"class_id": classID})

	sqlStr, args, err := sessionQuery.ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build SQL query for session count: %w", err)
	}
	if err := db.QueryRow(sqlStr, args...).Scan(&stats.TotalSessions); err != nil {
		return stats, fmt.Errorf("failed to count sessions for class %s: %w", classID, err)
	}

	statusQuery := psql.Select("status", "COUNT(*)").
		From("attendance_records").
		Where(sq.Eq{"class_id": classID}).
		GroupBy("status")

	sqlStr, args, err = statusQuery.ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build SQL query for status counts: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return stats, fmt.Errorf("failed to query status counts for class %s: %w", classID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan status count row: %w", err)
		}
		switch status {
		case "present":
			stats.PresentRecords = count
		case "late":
			stats.LateRecords = count
		case "absent":
			stats.AbsentRecords = count
		}
	}
	return stats, rows.Err()
}

// GetStudentAttendanceRates aggregates per-student attendance counts for a class
func GetStudentAttendanceRates(db *sql.DB, classID string) ([]StudentAttendanceRate, error) {
	query := psql.Select(
		"student_id",
		"SUM(CASE WHEN status = 'present' THEN 1 ELSE 0 END)",
		"SUM(CASE WHEN status = 'late' THEN 1 ELSE 0 END)",
		"SUM(CASE WHEN status = 'absent' THEN 1 ELSE 0 END)",
	).
		From("attendance_records").
		Where(sq.Eq{"class_id": classID}).
		GroupBy("student_id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for student rates: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query student rates for class %s: %w", classID, err)
	}
	defer rows.Close()

	var rates []StudentAttendanceRate
	for rows.Next() {
		var r StudentAttendanceRate
		if err := rows.Scan(&r.StudentID, &r.PresentCount, &r.LateCount, &r.AbsentCount); err != nil {
			return nil, fmt.Errorf("failed to scan student rate row: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}
