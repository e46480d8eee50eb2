/*
handlers_test.go - HTTP-level tests for the API layer

Exercises the full request path through the chi router: decode, engine
call, persistence, error mapping, response shape.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planilla/schedule-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(NewRouter(NewHandler(store)))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, body any, out any) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, server *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createTestEmployee(t *testing.T, server *httptest.Server, id string) {
	t.Helper()
	status := postJSON(t, server, "/api/employees", CreateEmployeeRequest{
		ID:   id,
		Name: "Test User",
		Schedule: WeeklyShiftDTO{
			StartClock:   "08:00",
			EndClock:     "17:00",
			WorkDays:     "L,M,X,J,V",
			RestDays:     "S,D",
			BreakMinutes: 60,
		},
	}, nil)
	require.Equal(t, http.StatusCreated, status)
}

// =============================================================================
// EMPLOYEES AND SCHEDULES
// =============================================================================

func TestCreateEmployee_InvalidSchedule_Rejected(t *testing.T) {
	server := newTestServer(t)

	status := postJSON(t, server, "/api/employees", CreateEmployeeRequest{
		ID:   "emp-bad",
		Name: "Broken",
		Schedule: WeeklyShiftDTO{
			StartClock: "25:00",
			EndClock:   "17:00",
			WorkDays:   "L",
		},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPreviewTemplate_Overnight(t *testing.T) {
	server := newTestServer(t)

	var preview TemplatePreviewDTO
	status := postJSON(t, server, "/api/schedules/preview", WeeklyShiftDTO{
		StartClock: "22:00",
		EndClock:   "06:00",
		WorkDays:   "L,M,X,J,V",
		RestDays:   "S,D",
	}, &preview)

	require.Equal(t, http.StatusOK, status)
	assert.True(t, preview.Overnight)
	assert.ElementsMatch(t, []int{5, 6}, preview.RestDays)
	assert.Len(t, preview.Virtual[0], 2)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestRegisterAttendance_ExtraWithoutApproval_NotCounted(t *testing.T) {
	// GIVEN: A punch pair running an hour past the shift, no approval on file
	// WHEN: Registering the attendance
	// THEN: The extra hour surfaces as unapproved with a warning

	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	var att AttendanceDTO
	status := postJSON(t, server, "/api/attendance", RegisterAttendanceRequest{
		EmployeeID: "emp-1",
		Entry:      "2026-01-05T08:00",
		Exit:       "2026-01-05T18:00",
	}, &att)

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2026-01-05", att.Date)
	assert.Equal(t, "8", att.OrdinaryHours)
	assert.Equal(t, "0", att.ApprovedExtraHours)
	assert.Equal(t, "1", att.UnapprovedExtraHours)
	assert.Contains(t, att.Warnings, "EXTRA_NOT_COUNTED_UNAPPROVED")
}

func TestRegisterAttendance_ApprovedOvertimeCounts(t *testing.T) {
	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	status := postJSON(t, server, "/api/attendance/overtime", ApproveOvertimeRequest{
		EmployeeID: "emp-1", Date: "2026-01-05", Hours: "2",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var att AttendanceDTO
	status = postJSON(t, server, "/api/attendance", RegisterAttendanceRequest{
		EmployeeID: "emp-1",
		Entry:      "2026-01-05T08:00",
		Exit:       "2026-01-05T18:00",
	}, &att)

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "1", att.ApprovedExtraHours)
	assert.Equal(t, "0", att.UnapprovedExtraHours)
}

// =============================================================================
// VACATIONS
// =============================================================================

func TestVacationFlow_ValidateRegisterAndConflict(t *testing.T) {
	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	request := VacationRequest{
		EmployeeID: "emp-1",
		StartDate:  "2026-01-05",
		EndDate:    "2026-01-11",
	}

	var validation RangeValidationDTO
	status := postJSON(t, server, "/api/vacations/validate", request, &validation)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, validation.Allowed)
	assert.Equal(t, 5, validation.TotalDays, "weekend days skipped")
	assert.Equal(t, "40", validation.TotalHours)

	var registered RangeValidationDTO
	status = postJSON(t, server, "/api/vacations", request, &registered)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, registered.BlockID)

	// A second overlapping registration is vetoed with the blocked code.
	var conflict ErrorDTO
	status = postJSON(t, server, "/api/vacations", request, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "VacationOverlapBlocked", conflict.Code)
}

// =============================================================================
// LEAVES
// =============================================================================

func TestLeaveFlow_OutsideWindowBlocks(t *testing.T) {
	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	var validation RangeValidationDTO
	status := postJSON(t, server, "/api/leaves/validate", LeaveRequest{
		EmployeeID: "emp-1",
		Start:      "2026-01-05T06:00",
		End:        "2026-01-05T09:00",
	}, &validation)

	require.Equal(t, http.StatusOK, status)
	assert.False(t, validation.Allowed)
	require.Len(t, validation.Violations, 1)
	assert.Equal(t, "OUTSIDE_VIRTUAL_WINDOW", validation.Violations[0].Reason)
}

func TestLeaveFlow_RegisterInsideWindow(t *testing.T) {
	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	var registered RangeValidationDTO
	status := postJSON(t, server, "/api/leaves", LeaveRequest{
		EmployeeID: "emp-1",
		Start:      "2026-01-05T09:00",
		End:        "2026-01-05T11:00",
	}, &registered)

	require.Equal(t, http.StatusCreated, status)
	assert.True(t, registered.Allowed)
	assert.Equal(t, "2", registered.TotalHours)
	assert.NotEmpty(t, registered.BlockID)
}

// =============================================================================
// INCAPACITIES
// =============================================================================

func TestIncapacityFlow_RegisterConflictExtend(t *testing.T) {
	// GIVEN: A registered three-day sickness
	// WHEN: Registering an overlap, then extending the group
	// THEN: The overlap is vetoed and the extension replays the day counter

	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	var created IncapacityDTO
	status := postJSON(t, server, "/api/incapacities", RegisterIncapacityRequest{
		EmployeeID: "emp-1",
		TypeName:   "sickness",
		StartDate:  "2026-01-05",
		EndDate:    "2026-01-07",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.GroupID)
	require.Len(t, created.Assignments, 3)
	assert.Equal(t, "50", created.Assignments[0].EmployerPct)

	var conflict ErrorDTO
	status = postJSON(t, server, "/api/incapacities", RegisterIncapacityRequest{
		EmployeeID: "emp-1",
		TypeName:   "sickness",
		StartDate:  "2026-01-07",
		EndDate:    "2026-01-09",
	}, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "IncapacityBlocked", conflict.Code)

	var extended IncapacityDTO
	status = postJSON(t, server,
		fmt.Sprintf("/api/incapacities/%s/extend", created.GroupID),
		ExtendIncapacityRequest{EmployeeID: "emp-1", NewEndDate: "2026-01-09"}, &extended)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-01-09", extended.EndDate)
	require.Len(t, extended.Assignments, 2)
	assert.Equal(t, 4, extended.Assignments[0].DayNumber)
	assert.Equal(t, "60", extended.Assignments[0].ProviderPct)

	var episode EpisodeDTO
	status = getJSON(t, server,
		fmt.Sprintf("/api/incapacities/%s/episode?employee_id=emp-1", created.GroupID), &episode)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-01-05", episode.StartDate)
	assert.Equal(t, "2026-01-09", episode.EndDate)
}

func TestExtendIncapacity_ErrorMapping(t *testing.T) {
	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	var created IncapacityDTO
	status := postJSON(t, server, "/api/incapacities", RegisterIncapacityRequest{
		EmployeeID: "emp-1",
		TypeName:   "sickness",
		StartDate:  "2026-01-05",
		EndDate:    "2026-01-07",
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	// Not moving the end forward is a client error.
	status = postJSON(t, server,
		fmt.Sprintf("/api/incapacities/%s/extend", created.GroupID),
		ExtendIncapacityRequest{EmployeeID: "emp-1", NewEndDate: "2026-01-06"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// An unknown group is not found.
	status = postJSON(t, server, "/api/incapacities/missing/extend",
		ExtendIncapacityRequest{EmployeeID: "emp-1", NewEndDate: "2026-01-09"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// =============================================================================
// TIMELINE
// =============================================================================

func TestGetTimeline_ResolvesDominantEvents(t *testing.T) {
	server := newTestServer(t)
	createTestEmployee(t, server, "emp-1")

	status := postJSON(t, server, "/api/incapacities", RegisterIncapacityRequest{
		EmployeeID: "emp-1",
		TypeName:   "sickness",
		StartDate:  "2026-01-05",
		EndDate:    "2026-01-06",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var days []TimelineDayDTO
	status = getJSON(t, server,
		"/api/employees/emp-1/timeline?from=2026-01-05&to=2026-01-11", &days)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, days, 7)

	assert.Equal(t, "incapacity", days[0].DominantType)
	assert.Equal(t, "50", days[0].EmployerPct)
	assert.True(t, days[0].Payable)
	assert.Equal(t, "none", days[2].DominantType)
	assert.True(t, days[5].IsRestDay)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestCreateHoliday_MalformedDateRejected(t *testing.T) {
	server := newTestServer(t)

	status := postJSON(t, server, "/api/holidays", HolidayRequest{
		Date: "01/05/2026", Name: "Feriado",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
