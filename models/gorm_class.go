package models

// Class represents a class/course against which attendance is recorded.
// It corresponds to the 'classes' table. Teacher identity is an opaque
// reference owned by the external auth layer.
type Class struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	TeacherID string `gorm:"not null;index" json:"teacher_id"`
	CreatedAt int64  `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt int64  `gorm:"not null" json:"updated_at"` // Stored as INTEGER in SQLite, Unix timestamp

	Enrollments []Enrollment `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Class) TableName() string {
	return "classes"
}

// Enrollment links a student to a class.
// It corresponds to the 'enrollments' table.
type Enrollment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID   string `gorm:"not null;size:36;uniqueIndex:idx_enrollment_class_student" json:"class_id"`
	StudentID string `gorm:"not null;size:36;uniqueIndex:idx_enrollment_class_student" json:"student_id"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Enrollment) TableName() string {
	return "enrollments"
}
