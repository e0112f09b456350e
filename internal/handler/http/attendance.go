package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	RecordEvent(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	ListMyEvents(w http.ResponseWriter, r *http.Request)
	WeeklySummary(w http.ResponseWriter, r *http.Request)
	DailySummary(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// RecordEvent implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.RecordEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock event recorded", result)
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListMyEvents implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	filter := attendance.EventFilter{
		StartDate: queryPtr(r, "start_date"),
		EndDate:   queryPtr(r, "end_date"),
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListMyEvents(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// WeeklySummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	req := attendance.SummaryRequest{Date: queryPtr(r, "date")}

	result, err := h.attendanceService.WeeklySummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DailySummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) DailySummary(w http.ResponseWriter, r *http.Request) {
	req := attendance.SummaryRequest{Date: queryPtr(r, "date")}

	result, err := h.attendanceService.DailySummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	req := attendance.ExportRequest{
		EmployeeID: queryPtr(r, "employee_id"),
		StartDate:  queryPtr(r, "start_date"),
		EndDate:    queryPtr(r, "end_date"),
		Format:     r.URL.Query().Get("format"),
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	file, err := h.attendanceService.Export(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Filename, file.ContentType, file.Data)
}
