/*
handlers.go - HTTP handlers for the scheduling engine

PURPOSE:
  Thin request layer over the engine: decode the request, read a snapshot
  from the store, call the pure engine, persist results where the endpoint
  registers something, serialize the response.

ERROR HANDLING:
  - 400: input/shape errors (unparseable timestamp, inverted range,
         malformed schedule, bad extension)
  - 404: unknown employee or incapacity group
  - 409: overlap guard veto, with the machine-readable blocked code
  - 500: storage failures

  Engine warnings are never errors; they pass through in response bodies
  so the caller can flag them for review.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/planilla/schedule-engine/incapacity"
	"github.com/planilla/schedule-engine/schedule"
	"github.com/planilla/schedule-engine/store/sqlite"
	"github.com/planilla/schedule-engine/timeline"
)

// Handler holds the dependencies for the HTTP layer.
type Handler struct {
	Store *sqlite.Store
}

// NewHandler creates a handler over the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// EMPLOYEES AND TEMPLATES
// =============================================================================

// CreateEmployee registers an employee together with their weekly schedule.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if _, err := schedule.BuildTemplate(req.Schedule.toShift()); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), sqlite.Employee{ID: req.ID, Name: req.Name}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save employee", err)
		return
	}
	if err := h.Store.SaveSchedule(r.Context(), req.ID, req.Schedule.toShift()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// PreviewTemplate derives the per-weekday windows for a shift definition
// without persisting anything.
func (h *Handler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req WeeklyShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	tpl, err := schedule.BuildTemplate(req.toShift())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	preview := TemplatePreviewDTO{
		Timezone:  tpl.Timezone.String(),
		Overnight: tpl.IsOvernight(),
		Virtual:   make(map[int][]MinuteRangeDTO),
	}
	for weekday := 0; weekday < 7; weekday++ {
		if tpl.IsRestDay(weekday) {
			preview.RestDays = append(preview.RestDays, weekday)
		}
		for _, window := range tpl.VirtualFor(weekday) {
			preview.Virtual[weekday] = append(preview.Virtual[weekday],
				MinuteRangeDTO{Start: window.Start, End: window.End})
		}
	}
	writeJSON(w, http.StatusOK, preview)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// CreateHoliday inserts or replaces a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if _, err := schedule.NormalizeDate(req.Date, nil); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.Store.SaveHoliday(r.Context(), req.Date, req.Name, req.Mandatory); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListHolidays returns the holidays in [from, to].
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}

	index, err := h.Store.HolidayIndexFor(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load holidays", err)
		return
	}

	holidays := make([]HolidayRequest, 0, len(index))
	for date, info := range index {
		holidays = append(holidays, HolidayRequest{Date: date, Name: info.Name, Mandatory: info.Mandatory})
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date < holidays[j].Date })
	writeJSON(w, http.StatusOK, holidays)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// RegisterAttendance classifies a punch pair, clamps extra hours against
// the approved overtime for the day, and persists the aggregate. Anomalies
// come back as warnings; the aggregate is always persisted.
func (h *Handler) RegisterAttendance(w http.ResponseWriter, r *http.Request) {
	var req RegisterAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tpl, err := h.loadTemplate(r, req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown employee schedule", err)
		return
	}
	entry, err := schedule.Normalize(req.Entry, tpl.Timezone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	exit, err := schedule.Normalize(req.Exit, tpl.Timezone)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	classification, err := schedule.Classify(entry, exit, tpl)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// Punches attribute to the window they opened, so an overnight exit
	// charges the previous day.
	date := tpl.WindowOpenDate(entry)

	approved, err := h.Store.ApprovedOvertimeFor(r.Context(), req.EmployeeID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load approved overtime", err)
		return
	}
	decision := schedule.ApplyOvertimeApproval(classification.ExtraHours, approved)

	aggregate := timeline.AttendanceAggregate{
		WorkedMinutes: classification.WorkedMinutes,
		OrdinaryHours: classification.OrdinaryHours,
		ExtraHours:    decision.ApprovedHours,
	}
	if err := h.Store.SaveAttendanceDay(r.Context(), req.EmployeeID, date, aggregate); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save attendance", err)
		return
	}

	warnings := append(classification.Warnings, decision.Warnings...)
	writeJSON(w, http.StatusCreated, AttendanceDTO{
		Date:                 date,
		WorkedMinutes:        classification.WorkedMinutes,
		OrdinaryMinutes:      classification.OrdinaryMinutes,
		ExtraMinutes:         classification.ExtraMinutes,
		OrdinaryHours:        classification.OrdinaryHours.String(),
		ExtraHours:           classification.ExtraHours.String(),
		ApprovedExtraHours:   decision.ApprovedHours.String(),
		UnapprovedExtraHours: decision.UnapprovedHours.String(),
		Warnings:             warningStrings(warnings),
	})
}

// ApproveOvertime records the pre-approved extra hours for a date. The
// attendance classifier clamps extra hours against this amount.
func (h *Handler) ApproveOvertime(w http.ResponseWriter, r *http.Request) {
	var req ApproveOvertimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil || hours.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid hours", err)
		return
	}
	if _, err := schedule.NormalizeDate(req.Date, nil); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.Store.SaveApprovedOvertime(r.Context(), req.EmployeeID, req.Date, hours); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save approval", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// VACATIONS
// =============================================================================

// ValidateVacation runs the date-range validator without persisting.
func (h *Handler) ValidateVacation(w http.ResponseWriter, r *http.Request) {
	result, _, err := h.vacationValidation(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toValidationDTO(result))
}

// RegisterVacation validates, guards against existing blocks, and persists.
func (h *Handler) RegisterVacation(w http.ResponseWriter, r *http.Request) {
	result, req, err := h.vacationValidation(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	existing, err := h.Store.VacationsFor(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load vacations", err)
		return
	}
	if err := schedule.GuardVacationOverlap(req.EmployeeID, req.StartDate, req.EndDate, existing, nil, ""); err != nil {
		writeEngineError(w, err)
		return
	}

	dto := toValidationDTO(result)
	if result.Allowed {
		id, err := h.Store.SaveVacation(r.Context(), req.EmployeeID, schedule.VacationBlock{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			StatusID:  schedule.StatusRequested,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save vacation", err)
			return
		}
		dto.BlockID = id
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) vacationValidation(r *http.Request) (schedule.RangeValidation, VacationRequest, error) {
	var req VacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return schedule.RangeValidation{}, req, schedule.ErrInvalidDate
	}
	tpl, err := h.loadTemplate(r, req.EmployeeID)
	if err != nil {
		return schedule.RangeValidation{}, req, err
	}
	holidays, err := h.Store.HolidayIndexFor(r.Context(), req.StartDate, req.EndDate)
	if err != nil {
		return schedule.RangeValidation{}, req, err
	}
	result, err := schedule.ValidateDateRange(req.StartDate, req.EndDate, tpl, holidays,
		schedule.ValidateOptions{Cutoff: req.Cutoff})
	return result, req, err
}

// =============================================================================
// LEAVES
// =============================================================================

// ValidateLeave runs the datetime-range validator without persisting.
func (h *Handler) ValidateLeave(w http.ResponseWriter, r *http.Request) {
	result, _, _, err := h.leaveValidation(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toValidationDTO(result))
}

// RegisterLeave validates, guards, and persists a leave block.
func (h *Handler) RegisterLeave(w http.ResponseWriter, r *http.Request) {
	result, req, span, err := h.leaveValidation(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	tpl, err := h.loadTemplate(r, req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown employee schedule", err)
		return
	}
	existing, err := h.Store.LeavesFor(r.Context(), req.EmployeeID, tpl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaves", err)
		return
	}
	if err := schedule.GuardLeaveOverlap(req.EmployeeID, span[0], span[1], existing, nil, ""); err != nil {
		writeEngineError(w, err)
		return
	}

	dto := toValidationDTO(result)
	if result.Allowed {
		id, err := h.Store.SaveLeave(r.Context(), req.EmployeeID, schedule.LeaveBlock{
			Start:    span[0],
			End:      span[1],
			StatusID: schedule.StatusRequested,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save leave", err)
			return
		}
		dto.BlockID = id
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) leaveValidation(r *http.Request) (schedule.RangeValidation, LeaveRequest, [2]schedule.Instant, error) {
	var req LeaveRequest
	var span [2]schedule.Instant
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return schedule.RangeValidation{}, req, span, schedule.ErrInvalidTimestamp
	}
	tpl, err := h.loadTemplate(r, req.EmployeeID)
	if err != nil {
		return schedule.RangeValidation{}, req, span, err
	}
	if span[0], err = schedule.Normalize(req.Start, tpl.Timezone); err != nil {
		return schedule.RangeValidation{}, req, span, err
	}
	if span[1], err = schedule.Normalize(req.End, tpl.Timezone); err != nil {
		return schedule.RangeValidation{}, req, span, err
	}
	holidays, err := h.Store.HolidayIndexFor(r.Context(), span[0].DateString(), span[1].DateString())
	if err != nil {
		return schedule.RangeValidation{}, req, span, err
	}
	result, err := schedule.ValidateDateTimeRange(span[0], span[1], tpl, holidays,
		schedule.ValidateOptions{Cutoff: req.Cutoff})
	return result, req, span, err
}

// =============================================================================
// INCAPACITIES
// =============================================================================

// RegisterIncapacity guards against overlap, builds the episode-relative
// percentage snapshots, and persists everything in one transaction.
func (h *Handler) RegisterIncapacity(w http.ResponseWriter, r *http.Request) {
	var req RegisterIncapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tpl, err := h.loadTemplate(r, req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown employee schedule", err)
		return
	}
	existing, err := h.Store.IncapacityRecordsFor(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load incapacities", err)
		return
	}
	if err := incapacity.GuardOverlap(req.EmployeeID, req.StartDate, req.EndDate, existing); err != nil {
		writeEngineError(w, err)
		return
	}

	holidays, err := h.Store.HolidayIndexFor(r.Context(), req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load holidays", err)
		return
	}
	cal := incapacity.TemplateCalendar{Template: tpl, Holidays: holidays}

	reg, err := incapacity.Register(req.EmployeeID, incapacity.Type(req.TypeName),
		"", req.StartDate, req.EndDate, existing, cal)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	groupID, err := h.Store.SaveRegistration(r.Context(), reg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save incapacity", err)
		return
	}

	writeJSON(w, http.StatusCreated, IncapacityDTO{
		GroupID:     groupID,
		TypeName:    req.TypeName,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Assignments: toAssignmentDTOs(reg.Assignments),
	})
}

// ExtendIncapacity rolls a group's end date forward, replaying the episode
// day counter for the new dates.
func (h *Handler) ExtendIncapacity(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group")
	var req ExtendIncapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tpl, err := h.loadTemplate(r, req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown employee schedule", err)
		return
	}
	existing, err := h.Store.IncapacityRecordsFor(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load incapacities", err)
		return
	}
	holidays, err := h.Store.HolidayIndexFor(r.Context(), "0000-01-01", "9999-12-31")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load holidays", err)
		return
	}
	cal := incapacity.TemplateCalendar{Template: tpl, Holidays: holidays}

	ext, err := incapacity.Extend(existing, groupID, req.NewEndDate, cal)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := h.Store.AppendExtension(r.Context(), req.EmployeeID, ext); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save extension", err)
		return
	}

	writeJSON(w, http.StatusOK, IncapacityDTO{
		GroupID:     groupID,
		StartDate:   ext.UpdatedRecords[0].StartDate,
		EndDate:     ext.NewEndDate,
		Assignments: toAssignmentDTOs(ext.Assignments),
	})
}

// GetEpisode returns the derived episode containing the group.
func (h *Handler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group")
	employeeID := r.URL.Query().Get("employee_id")

	records, err := h.Store.IncapacityRecordsFor(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load incapacities", err)
		return
	}
	episodes := incapacity.BuildEpisodes(records)
	episode, ok := incapacity.EpisodeOfGroup(episodes, groupID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown incapacity group", incapacity.ErrUnknownGroup)
		return
	}
	writeJSON(w, http.StatusOK, EpisodeDTO{
		EpisodeID: episode.EpisodeID,
		TypeName:  string(episode.TypeName),
		StartDate: episode.StartDate,
		EndDate:   episode.EndDate,
		Members:   len(episode.Members),
	})
}

// =============================================================================
// TIMELINE
// =============================================================================

// GetTimeline resolves the per-day payroll timeline for a date range.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	snapshot, err := h.Store.SnapshotFor(r.Context(), employeeID, from, to)
	if err != nil {
		writeError(w, http.StatusNotFound, "failed to assemble snapshot", err)
		return
	}
	days, err := timeline.Build(*snapshot, from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineDTOs(days))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadTemplate(r *http.Request, employeeID string) (*schedule.ScheduleTemplate, error) {
	shift, err := h.Store.ScheduleFor(r.Context(), employeeID)
	if err != nil {
		return nil, err
	}
	return schedule.BuildTemplate(shift)
}

func warningStrings(warnings []schedule.Warning) []string {
	out := make([]string, len(warnings))
	for i, warning := range warnings {
		out[i] = string(warning)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := ErrorDTO{Error: message}
	if err != nil {
		body.Error = message + ": " + err.Error()
	}
	writeJSON(w, status, body)
}

// writeEngineError maps engine errors to HTTP statuses and codes.
func writeEngineError(w http.ResponseWriter, err error) {
	type coded interface{ Code() string }

	var blocked coded
	switch {
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusConflict, ErrorDTO{Error: err.Error(), Code: blocked.Code()})
	case incapacity.IsNotFound(err):
		writeError(w, http.StatusNotFound, "unknown incapacity group", err)
	case errors.Is(err, incapacity.ErrInvalidExtension), schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
