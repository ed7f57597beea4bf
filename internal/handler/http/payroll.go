package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Generation
	Generate(w http.ResponseWriter, r *http.Request)
	ShouldGenerate(w http.ResponseWriter, r *http.Request)
	ListResults(w http.ResponseWriter, r *http.Request)

	// Schedules
	CreateSchedule(w http.ResponseWriter, r *http.Request)
	ActivateSchedule(w http.ResponseWriter, r *http.Request)
	GetActiveSchedule(w http.ResponseWriter, r *http.Request)

	// Rules
	CreateRule(w http.ResponseWriter, r *http.Request)
	ListRules(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== GENERATION ==========

func (h *payrollHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Generate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Generated {
		response.SuccessWithMessage(w, "No payroll results were generated", result)
		return
	}
	response.SuccessWithMessage(w, "Payroll generated", result)
}

func (h *payrollHandlerImpl) ShouldGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ShouldGenerateToday(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListResults(w http.ResponseWriter, r *http.Request) {
	req := payroll.ListResultsRequest{
		PeriodStart: r.URL.Query().Get("period_start"),
		PeriodEnd:   r.URL.Query().Get("period_end"),
	}

	result, err := h.payrollService.ListResults(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}

// ========== SCHEDULES ==========

func (h *payrollHandlerImpl) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateSchedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll schedule created", result)
}

func (h *payrollHandlerImpl) ActivateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Schedule ID is required", nil)
		return
	}

	result, err := h.payrollService.SetActiveSchedule(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll schedule activated", result)
}

func (h *payrollHandlerImpl) GetActiveSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetActiveSchedule(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RULES ==========

func (h *payrollHandlerImpl) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateRule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll rule created", result)
}

func (h *payrollHandlerImpl) ListRules(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "true"

	result, err := h.payrollService.ListRules(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
