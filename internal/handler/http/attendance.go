package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
)

// maxImportSize caps punch spreadsheet uploads
const maxImportSize = 10 << 20

type AttendanceHandler interface {
	RecordPunches(w http.ResponseWriter, r *http.Request)
	ImportPunches(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// RecordPunches implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordPunches(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordPunchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.RecordPunches(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punches recorded", result)
}

// ImportPunches implements AttendanceHandler.
func (h *attendanceHandlerImpl) ImportPunches(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize+(1<<20))

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			response.BadRequest(w, "Punch spreadsheet is required in field 'file'", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	result, err := h.attendanceService.ImportPunches(r.Context(), fileHeader.Filename, file)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch file imported", result)
}

// Recompute implements AttendanceHandler.
func (h *attendanceHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.Recompute(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
