package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/correction"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CorrectionHandler interface {
	Request(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
}

type correctionHandlerImpl struct {
	correctionService correction.CorrectionService
}

func NewCorrectionHandler(correctionService correction.CorrectionService) CorrectionHandler {
	return &correctionHandlerImpl{
		correctionService: correctionService,
	}
}

// Request implements CorrectionHandler.
func (h *correctionHandlerImpl) Request(w http.ResponseWriter, r *http.Request) {
	var req correction.CreateCorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EventID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.correctionService.Request(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction requested", result)
}

// Approve implements CorrectionHandler.
func (h *correctionHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction approved", result)
}

// Reject implements CorrectionHandler.
func (h *correctionHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction rejected", result)
}

// List implements CorrectionHandler.
func (h *correctionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.correctionService.List)
}

// ListMine implements CorrectionHandler.
func (h *correctionHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.correctionService.ListMine)
}

func (h *correctionHandlerImpl) list(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, filter correction.CorrectionFilter) (correction.ListCorrectionResponse, error),
) {
	filter := correction.CorrectionFilter{
		EmployeeID: queryPtr(r, "employee_id"),
		Status:     queryPtr(r, "status"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}

	result, err := fetch(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Corrections, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}
