package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClassRepository handles database operations for Class entities
type ClassRepository struct {
	DB *gorm.DB
}

// Ensure ClassRepository implements ClassRepositoryInterface
var _ ClassRepositoryInterface = (*ClassRepository)(nil)

// NewClassRepository creates a new instance of ClassRepository
func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

// Create creates a new class record in the database
func (r *ClassRepository) Create(class *models.Class) error {
	now := time.Now().Unix()
	if class.CreatedAt == 0 {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	if err := r.DB.Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class %s: %w", class.ID, err)
	}
	return nil
}

// GetByID retrieves a class by ID
func (r *ClassRepository) GetByID(id string) (*models.Class, error) {
	var class models.Class
	err := r.DB.First(&class, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get class by ID %s: %w", id, err)
	}
	return &class, nil
}

// ListAll retrieves all classes
func (r *ClassRepository) ListAll() ([]models.Class, error) {
	var classes []models.Class
	if err := r.DB.Order("name").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

// Enroll links a student to a class; enrolling twice is a no-op
func (r *ClassRepository) Enroll(classID, studentID string) error {
	enrollment := models.Enrollment{
		ClassID:   classID,
		StudentID: studentID,
		CreatedAt: time.Now().Unix(),
	}
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(&enrollment).Error
	if err != nil {
		return fmt.Errorf("failed to enroll student %s in class %s: %w", studentID, classID, err)
	}
	return nil
}

// IsStudentEnrolled reports whether a student is enrolled in a class
func (r *ClassRepository) IsStudentEnrolled(classID, studentID string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Enrollment{}).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment for student %s in class %s: %w", studentID, classID, err)
	}
	return count > 0, nil
}

// Delete removes a class by ID
func (r *ClassRepository) Delete(id string) error {
	result := r.DB.Delete(&models.Class{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete class %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
