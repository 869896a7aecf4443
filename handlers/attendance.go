package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/registry"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
	"github.com/camden-git/attendsysbackend/utils"
)

// maxUploadSize caps attendance photo uploads at 20 MB
const maxUploadSize = 20 << 20

type AttendanceHandler struct {
	Service        *services.AttendanceService
	AttendanceRepo repository.AttendanceRepositoryInterface
	StudentRepo    repository.StudentRepositoryInterface
	DB             *sql.DB
}

// readUploadedImage pulls the "image" part out of a multipart form and
// returns its raw bytes
func readUploadedImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "could not parse multipart form: "+err.Error())
		return nil, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "missing_image", "multipart field 'image' is required")
		return nil, false
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		WriteAPIError(w, http.StatusBadRequest, "invalid_image", "uploaded file is not an image")
		return nil, false
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to read uploaded file")
		return nil, false
	}
	return payload, true
}

// MarkByFace handles POST /api/classes/{class_id}/attendance/face
func (ah *AttendanceHandler) MarkByFace(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	payload, ok := readUploadedImage(w, r)
	if !ok {
		return
	}

	markedBy := r.FormValue("marked_by")
	if markedBy == "" {
		markedBy = "system"
	}

	meta := utils.ExtractPhotoMetadata(payload)

	result, err := ah.Service.MarkAttendanceByFace(r.Context(), classID, markedBy, payload)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			WriteAPIError(w, http.StatusNotFound, "class_not_found", "class not found")
		case errors.Is(err, recognition.ErrInvalidImage):
			WriteAPIError(w, http.StatusBadRequest, "invalid_image", "uploaded payload could not be decoded as an image")
		case errors.Is(err, registry.ErrUnavailable):
			w.Header().Set("Retry-After", "5")
			WriteAPIError(w, http.StatusServiceUnavailable, "registry_unavailable", "signature registry is unavailable; no attendance was recorded, retry the submission")
		default:
			log.Printf("Error processing attendance submission for class %s: %v", classID, err)
			WriteAPIError(w, http.StatusInternalServerError, "submission_failed", "failed to process attendance submission")
		}
		return
	}

	result.PhotoTakenAt = meta.TakenAt
	writeJSON(w, http.StatusOK, result)
}

// MarkManual handles POST /api/classes/{class_id}/attendance
func (ah *AttendanceHandler) MarkManual(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	var req struct {
		StudentID string `json:"student_id"`
		Date      string `json:"date"`
		Status    string `json:"status"`
		MarkedBy  string `json:"marked_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_field", "missing required field: student_id")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
		return
	}
	if !models.IsValidAttendanceStatus(req.Status) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_status", "status must be one of present, absent, late")
		return
	}
	if req.MarkedBy == "" {
		req.MarkedBy = "system"
	}

	record, err := ah.Service.MarkManual(classID, req.StudentID, req.Date, req.Status, req.MarkedBy)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotEnrolled):
			WriteAPIError(w, http.StatusConflict, "not_enrolled", "student is not enrolled in this class")
		case errors.Is(err, gorm.ErrRecordNotFound):
			WriteAPIError(w, http.StatusNotFound, "not_found", "class or student not found")
		default:
			log.Printf("Error marking manual attendance for class %s student %s: %v", classID, req.StudentID, err)
			WriteAPIError(w, http.StatusInternalServerError, "mark_failed", "failed to record attendance")
		}
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// ListAttendance handles GET /api/classes/{class_id}/attendance. An
// optional ?date=YYYY-MM-DD narrows the listing to one session.
func (ah *AttendanceHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")
	date := r.URL.Query().Get("date")

	var records []models.AttendanceRecord
	var err error
	if date != "" {
		if _, perr := time.Parse("2006-01-02", date); perr != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
			return
		}
		records, err = ah.AttendanceRepo.ListByClassAndDate(classID, date)
	} else {
		records, err = ah.AttendanceRepo.ListByClass(classID)
	}
	if err != nil {
		log.Printf("Error listing attendance for class %s: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to retrieve attendance records")
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
