package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceRepository handles database operations for AttendanceRecord entities
type AttendanceRepository struct {
	DB *gorm.DB
}

// Ensure AttendanceRepository implements AttendanceRepositoryInterface
var _ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)

// NewAttendanceRepository creates a new instance of AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// CreateIfAbsent atomically inserts a record unless one already exists for
// (class_id, student_id, date). Two near-simultaneous submissions for the
// same class and date therefore cannot produce duplicate rows; the loser's
// insert is a no-op. Returns whether the row was created.
func (r *AttendanceRepository) CreateIfAbsent(record *models.AttendanceRecord) (bool, error) {
	return createIfAbsent(r.DB, record)
}

func createIfAbsent(db *gorm.DB, record *models.AttendanceRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "student_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert attendance for student %s in class %s on %s: %w",
			record.StudentID, record.ClassID, record.Date, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpsertManual inserts or overwrites a record for (class_id, student_id, date).
// Manual marks always win; this is the explicit-correction path.
func (r *AttendanceRepository) UpsertManual(record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}
	record.Method = models.AttendanceMethodManual
	record.ConfidenceScore = nil

	err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "class_id"}, {Name: "student_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "method", "confidence_score", "marked_by",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert manual attendance for student %s in class %s on %s: %w",
			record.StudentID, record.ClassID, record.Date, err)
	}
	return nil
}

// UpgradeAbsentToPresent conditionally flips an absent record to a
// face-match presence. The status guard in the WHERE clause makes the
// upgrade atomic: a manual present or late mark is never overwritten.
// Returns whether a row was upgraded.
func (r *AttendanceRepository) UpgradeAbsentToPresent(classID, studentID, date string, confidence float64, markedBy, submissionID string) (bool, error) {
	return upgradeAbsentToPresent(r.DB, classID, studentID, date, confidence, markedBy, submissionID)
}

func upgradeAbsentToPresent(db *gorm.DB, classID, studentID, date string, confidence float64, markedBy, submissionID string) (bool, error) {
	result := db.Model(&models.AttendanceRecord{}).
		Where("class_id = ? AND student_id = ? AND date = ? AND status = ?",
			classID, studentID, date, models.AttendanceStatusAbsent).
		Updates(map[string]interface{}{
			"status":           models.AttendanceStatusPresent,
			"method":           models.AttendanceMethodFaceMatch,
			"confidence_score": confidence,
			"marked_by":        markedBy,
			"submission_id":    submissionID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to upgrade attendance for student %s in class %s on %s: %w",
			studentID, classID, date, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ApplyDecisions persists one submission's decision set in a single
// transaction so a mid-set failure never leaves partial attendance behind.
// Per-row conflict policy still applies inside the transaction: creates
// no-op on an existing composite key, upgrades only touch absent rows.
func (r *AttendanceRepository) ApplyDecisions(decisions []recognition.Decision) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range decisions {
			d := &decisions[i]
			switch d.Action {
			case recognition.ActionCreate:
				record := d.Record
				if _, err := createIfAbsent(tx, &record); err != nil {
					return err
				}
			case recognition.ActionUpgrade:
				confidence := 0.0
				if d.Record.ConfidenceScore != nil {
					confidence = *d.Record.ConfidenceScore
				}
				submissionID := ""
				if d.Record.SubmissionID != nil {
					submissionID = *d.Record.SubmissionID
				}
				_, err := upgradeAbsentToPresent(tx, d.Record.ClassID, d.Record.StudentID, d.Record.Date,
					confidence, d.Record.MarkedBy, submissionID)
				if err != nil {
					return err
				}
			case recognition.ActionKeep:
				// existing record wins; nothing to write
			}
		}
		return nil
	})
}

// GetByCompositeKey retrieves the record for (class_id, student_id, date)
func (r *AttendanceRepository) GetByCompositeKey(classID, studentID, date string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.DB.Where("class_id = ? AND student_id = ? AND date = ?", classID, studentID, date).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get attendance for student %s in class %s on %s: %w",
			studentID, classID, date, err)
	}
	return &record, nil
}

// ListByClassAndDate retrieves all records for a class on a given date
func (r *AttendanceRepository) ListByClassAndDate(classID, date string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.DB.Where("class_id = ? AND date = ?", classID, date).
		Order("student_id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for class %s on %s: %w", classID, date, err)
	}
	return records, nil
}

// ListByClass retrieves all records for a class across all dates
func (r *AttendanceRepository) ListByClass(classID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.DB.Where("class_id = ?", classID).
		Order("date, student_id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for class %s: %w", classID, err)
	}
	return records, nil
}
