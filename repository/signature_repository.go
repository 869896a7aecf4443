package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SignatureRepository handles database operations for FaceSignature entities
type SignatureRepository struct {
	DB *gorm.DB
}

// Ensure SignatureRepository implements SignatureRepositoryInterface
var _ SignatureRepositoryInterface = (*SignatureRepository)(nil)

// NewSignatureRepository creates a new instance of SignatureRepository
func NewSignatureRepository(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{DB: db}
}

// Upsert stores the signature for a student, replacing any prior one.
// The unique index on student_id makes the replace atomic at the storage
// layer. Returns whether a prior signature was replaced.
func (r *SignatureRepository) Upsert(signature *models.FaceSignature) (bool, error) {
	now := time.Now().Unix()
	if signature.CreatedAt == 0 {
		signature.CreatedAt = now
	}
	signature.UpdatedAt = now

	var existing int64
	err := r.DB.Model(&models.FaceSignature{}).
		Where("student_id = ?", signature.StudentID).
		Count(&existing).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing signature for student %s: %w", signature.StudentID, err)
	}

	err = r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"embedding_data", "embedding_model", "dimension", "updated_at",
		}),
	}).Create(signature).Error
	if err != nil {
		return false, fmt.Errorf("failed to upsert signature for student %s: %w", signature.StudentID, err)
	}
	return existing > 0, nil
}

// GetByStudentID retrieves the live signature for a student
func (r *SignatureRepository) GetByStudentID(studentID string) (*models.FaceSignature, error) {
	var signature models.FaceSignature
	err := r.DB.Where("student_id = ?", studentID).First(&signature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get signature for student %s: %w", studentID, err)
	}
	return &signature, nil
}

// ListAll retrieves every stored signature, used to rebuild the in-memory
// registry index at startup
func (r *SignatureRepository) ListAll() ([]models.FaceSignature, error) {
	var signatures []models.FaceSignature
	if err := r.DB.Find(&signatures).Error; err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	return signatures, nil
}

// DeleteByStudentID removes the signature for a student (de-enrollment)
func (r *SignatureRepository) DeleteByStudentID(studentID string) error {
	result := r.DB.Where("student_id = ?", studentID).Delete(&models.FaceSignature{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete signature for student %s: %w", studentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
