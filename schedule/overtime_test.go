package schedule_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/planilla/schedule-engine/schedule"
)

func hours(n float64) decimal.Decimal { return decimal.NewFromFloat(n) }

// =============================================================================
// OVERTIME APPROVAL CLAMPING
// =============================================================================

func TestApplyOvertimeApproval_FullyApproved(t *testing.T) {
	decision := schedule.ApplyOvertimeApproval(hours(2), hours(3))

	assert.True(t, decision.ApprovedHours.Equal(hours(2)))
	assert.True(t, decision.UnapprovedHours.IsZero())
	assert.Empty(t, decision.Warnings)
}

func TestApplyOvertimeApproval_PartiallyApproved(t *testing.T) {
	// GIVEN: 3 candidate extra hours against 1.5 approved
	// WHEN: Clamping
	// THEN: 1.5 approved, 1.5 unapproved, partial-approval warning

	decision := schedule.ApplyOvertimeApproval(hours(3), hours(1.5))

	assert.True(t, decision.ApprovedHours.Equal(hours(1.5)))
	assert.True(t, decision.UnapprovedHours.Equal(hours(1.5)))
	assert.Contains(t, decision.Warnings, schedule.WarnExtraPartiallyApproved)
}

func TestApplyOvertimeApproval_NothingApproved(t *testing.T) {
	decision := schedule.ApplyOvertimeApproval(hours(2), decimal.Zero)

	assert.True(t, decision.ApprovedHours.IsZero())
	assert.True(t, decision.UnapprovedHours.Equal(hours(2)))
	assert.Contains(t, decision.Warnings, schedule.WarnExtraNotCounted)
}

func TestApplyOvertimeApproval_NoCandidate_NoWarnings(t *testing.T) {
	decision := schedule.ApplyOvertimeApproval(decimal.Zero, hours(2))

	assert.True(t, decision.ApprovedHours.IsZero())
	assert.True(t, decision.UnapprovedHours.IsZero())
	assert.Empty(t, decision.Warnings)
}

func TestApplyOvertimeApproval_NegativeInputs_ClampToZero(t *testing.T) {
	decision := schedule.ApplyOvertimeApproval(hours(-1), hours(-2))

	assert.True(t, decision.ApprovedHours.IsZero())
	assert.True(t, decision.UnapprovedHours.IsZero())
}
