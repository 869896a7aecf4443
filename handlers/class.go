package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
)

type ClassHandler struct {
	ClassRepo   repository.ClassRepositoryInterface
	StudentRepo repository.StudentRepositoryInterface
}

func (ch *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		TeacherID string `json:"teacher_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_field", "missing required field: name")
		return
	}

	now := time.Now().Unix()
	class := &models.Class{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		TeacherID: req.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ch.ClassRepo.Create(class); err != nil {
		log.Printf("Error creating class '%s': %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "create_failed", "failed to create class")
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (ch *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := ch.ClassRepo.ListAll()
	if err != nil {
		log.Printf("Error listing classes: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to retrieve classes")
		return
	}
	if classes == nil {
		classes = []models.Class{}
	}
	writeJSON(w, http.StatusOK, classes)
}

func (ch *ClassHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	class, err := ch.ClassRepo.GetByID(classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "class_not_found", "class not found")
		} else {
			log.Printf("Error getting class %s: %v", classID, err)
			WriteAPIError(w, http.StatusInternalServerError, "get_failed", "failed to retrieve class")
		}
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (ch *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	if err := ch.ClassRepo.Delete(classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "class_not_found", "class not found")
		} else {
			log.Printf("Error deleting class %s: %v", classID, err)
			WriteAPIError(w, http.StatusInternalServerError, "delete_failed", "failed to delete class")
		}
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// EnrollStudent handles POST /api/classes/{class_id}/students. Enrolling
// an already-enrolled student is a no-op.
func (ch *ClassHandler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	var req struct {
		StudentID string `json:"student_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_field", "missing required field: student_id")
		return
	}

	if _, err := ch.ClassRepo.GetByID(classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "class_not_found", "class not found")
		} else {
			log.Printf("Error checking class %s before enrollment: %v", classID, err)
			WriteAPIError(w, http.StatusInternalServerError, "get_failed", "failed to verify class")
		}
		return
	}
	if _, err := ch.StudentRepo.GetByID(req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "student_not_found", "student not found")
		} else {
			log.Printf("Error checking student %s before enrollment: %v", req.StudentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "get_failed", "failed to verify student")
		}
		return
	}

	if err := ch.ClassRepo.Enroll(classID, req.StudentID); err != nil {
		log.Printf("Error enrolling student %s in class %s: %v", req.StudentID, classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "enroll_failed", "failed to enroll student")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"class_id":   classID,
		"student_id": req.StudentID,
	})
}

// ListRoster handles GET /api/classes/{class_id}/students
func (ch *ClassHandler) ListRoster(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	students, err := ch.StudentRepo.ListByClassID(classID)
	if err != nil {
		log.Printf("Error listing roster for class %s: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to retrieve class roster")
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}
