package repository

import (
	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/recognition"
)

// StudentRepositoryInterface defines the methods for student data operations
type StudentRepositoryInterface interface {
	Create(student *models.Student) error
	GetByID(id string) (*models.Student, error)
	ListAll() ([]models.Student, error)
	ListByClassID(classID string) ([]models.Student, error)
	Update(student *models.Student) error
	Delete(id string) error
}

// ClassRepositoryInterface defines the methods for class data operations
type ClassRepositoryInterface interface {
	Create(class *models.Class) error
	GetByID(id string) (*models.Class, error)
	ListAll() ([]models.Class, error)
	Enroll(classID, studentID string) error
	IsStudentEnrolled(classID, studentID string) (bool, error)
	Delete(id string) error
}

// SignatureRepositoryInterface defines the methods for persisted face
// signature operations. At most one live signature exists per student;
// Upsert replaces any prior row atomically.
type SignatureRepositoryInterface interface {
	Upsert(signature *models.FaceSignature) (replaced bool, err error)
	GetByStudentID(studentID string) (*models.FaceSignature, error)
	ListAll() ([]models.FaceSignature, error)
	DeleteByStudentID(studentID string) error
}

// AttendanceRepositoryInterface defines the methods for attendance record
// operations. ApplyDecisions carries the engine's transactional guarantee:
// one submission's decision set is applied atomically, with each insert
// keyed on (class_id, student_id, date) no-oping when a record already
// exists and upgrades only touching absent rows.
type AttendanceRepositoryInterface interface {
	ApplyDecisions(decisions []recognition.Decision) error
	UpsertManual(record *models.AttendanceRecord) error
	GetByCompositeKey(classID, studentID, date string) (*models.AttendanceRecord, error)
	ListByClassAndDate(classID, date string) ([]models.AttendanceRecord, error)
	ListByClass(classID string) ([]models.AttendanceRecord, error)
}
