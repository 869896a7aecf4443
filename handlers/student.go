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
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/registry"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
	"github.com/camden-git/attendsysbackend/utils"
)

type StudentHandler struct {
	Service     *services.AttendanceService
	StudentRepo repository.StudentRepositoryInterface
}

func (sh *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
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
	student := &models.Student{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := sh.StudentRepo.Create(student); err != nil {
		log.Printf("Error creating student '%s': %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "create_failed", "failed to create student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (sh *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := sh.StudentRepo.ListAll()
	if err != nil {
		log.Printf("Error listing students: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to retrieve students")
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (sh *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	student, err := sh.StudentRepo.GetByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "student_not_found", "student not found")
		} else {
			log.Printf("Error getting student %s: %v", studentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "get_failed", "failed to retrieve student")
		}
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (sh *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_field", "missing required field: name")
		return
	}

	student := &models.Student{ID: studentID, Name: strings.TrimSpace(req.Name)}
	if err := sh.StudentRepo.Update(student); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "student_not_found", "student not found")
		} else {
			log.Printf("Error updating student %s: %v", studentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "update_failed", "failed to update student")
		}
		return
	}

	updated, err := sh.StudentRepo.GetByID(studentID)
	if err != nil {
		log.Printf("Error fetching updated student %s: %v", studentID, err)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Student updated successfully"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (sh *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	if err := sh.Service.RemoveFace(r.Context(), studentID); err != nil {
		log.Printf("Error removing signature while deleting student %s: %v", studentID, err)
	}
	if err := sh.StudentRepo.Delete(studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "student_not_found", "student not found")
		} else {
			log.Printf("Error deleting student %s: %v", studentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "delete_failed", "failed to delete student")
		}
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// EnrollFace handles POST /api/students/{student_id}/face. The uploaded
// photo becomes (or replaces) the student's signature.
func (sh *StudentHandler) EnrollFace(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	payload, ok := readUploadedImage(w, r)
	if !ok {
		return
	}

	if meta := utils.ExtractPhotoMetadata(payload); meta.CameraMake != nil && meta.CameraModel != nil {
		log.Printf("Enrollment photo for student %s: camera=%s %s", studentID, *meta.CameraMake, *meta.CameraModel)
	}

	replaced, err := sh.Service.EnrollFace(r.Context(), studentID, payload)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			WriteAPIError(w, http.StatusNotFound, "student_not_found", "student not found")
		case errors.Is(err, recognition.ErrInvalidImage):
			WriteAPIError(w, http.StatusBadRequest, "invalid_image", "uploaded payload could not be decoded as an image")
		case errors.Is(err, recognition.ErrNoFaceDetected):
			WriteAPIError(w, http.StatusUnprocessableEntity, "no_face_detected", "no usable face was found in the enrollment photo")
		case errors.Is(err, registry.ErrUnavailable):
			w.Header().Set("Retry-After", "5")
			WriteAPIError(w, http.StatusServiceUnavailable, "registry_unavailable", "signature registry is unavailable, retry the enrollment")
		default:
			log.Printf("Error enrolling face for student %s: %v", studentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "enroll_failed", "failed to enroll face signature")
		}
		return
	}

	status := http.StatusCreated
	message := "face signature enrolled"
	if replaced {
		status = http.StatusOK
		message = "face signature replaced"
	}
	writeJSON(w, status, map[string]interface{}{
		"student_id": studentID,
		"replaced":   replaced,
		"message":    message,
	})
}

// RemoveFace handles DELETE /api/students/{student_id}/face
func (sh *StudentHandler) RemoveFace(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	if _, err := sh.StudentRepo.GetByID(studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "student_not_found", "student not found")
		} else {
			log.Printf("Error checking student %s before removing face: %v", studentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "get_failed", "failed to verify student")
		}
		return
	}

	if err := sh.Service.RemoveFace(r.Context(), studentID); err != nil {
		log.Printf("Error removing face signature for student %s: %v", studentID, err)
		WriteAPIError(w, http.StatusInternalServerError, "remove_failed", "failed to remove face signature")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
