package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
)

// StudentRepository handles database operations for Student entities
type StudentRepository struct {
	DB *gorm.DB
}

// Ensure StudentRepository implements StudentRepositoryInterface
var _ StudentRepositoryInterface = (*StudentRepository)(nil)

// NewStudentRepository creates a new instance of StudentRepository
func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

// Create creates a new student record in the database
func (r *StudentRepository) Create(student *models.Student) error {
	now := time.Now().Unix()
	if student.CreatedAt == 0 {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	if err := r.DB.Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student %s: %w", student.ID, err)
	}
	return nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(id string) (*models.Student, error) {
	var student models.Student
	err := r.DB.First(&student, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get student by ID %s: %w", id, err)
	}
	return &student, nil
}

// ListAll retrieves all students
func (r *StudentRepository) ListAll() ([]models.Student, error) {
	var students []models.Student
	if err := r.DB.Order("name").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// ListByClassID retrieves the enrolled roster for a class
func (r *StudentRepository) ListByClassID(classID string) ([]models.Student, error) {
	var students []models.Student
	err := r.DB.Joins("JOIN enrollments ON enrollments.student_id = students.id").
		Where("enrollments.class_id = ?", classID).
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students for class %s: %w", classID, err)
	}
	return students, nil
}

// Update updates an existing student
func (r *StudentRepository) Update(student *models.Student) error {
	student.UpdatedAt = time.Now().Unix()
	result := r.DB.Model(&models.Student{}).Where("id = ?", student.ID).Updates(models.Student{
		Name:      student.Name,
		UpdatedAt: student.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update student %s: %w", student.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a student by ID
func (r *StudentRepository) Delete(id string) error {
	result := r.DB.Delete(&models.Student{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete student %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
