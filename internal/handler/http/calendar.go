package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
)

type CalendarHandler interface {
	GetWorkingDays(w http.ResponseWriter, r *http.Request)
	SaveOverride(w http.ResponseWriter, r *http.Request)
}

type calendarHandlerImpl struct {
	calendarService calendar.CalendarService
}

func NewCalendarHandler(calendarService calendar.CalendarService) CalendarHandler {
	return &calendarHandlerImpl{calendarService: calendarService}
}

func (h *calendarHandlerImpl) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "Query parameter 'year' must be a number", nil)
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "Query parameter 'month' must be a number", nil)
		return
	}

	result, err := h.calendarService.GetWorkingDays(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *calendarHandlerImpl) SaveOverride(w http.ResponseWriter, r *http.Request) {
	var req calendar.SaveOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.calendarService.SaveOverride(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work calendar override saved", result)
}
