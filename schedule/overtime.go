package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// OVERTIME APPROVAL POLICY
// =============================================================================

// OvertimeDecision is the outcome of clamping candidate extra hours against
// the pre-approved hours available for the day.
type OvertimeDecision struct {
	ApprovedHours   decimal.Decimal
	UnapprovedHours decimal.Decimal
	Warnings        []Warning
}

// ApplyOvertimeApproval clamps candidate extra hours to [0, approvedAvailable].
// Never fails: unapproved overtime is a payroll-review anomaly, not an error.
func ApplyOvertimeApproval(candidate, approvedAvailable decimal.Decimal) OvertimeDecision {
	approved := candidate
	if approved.IsNegative() {
		approved = decimal.Zero
	}
	if approved.GreaterThan(approvedAvailable) {
		approved = approvedAvailable
	}
	if approved.IsNegative() {
		approved = decimal.Zero
	}

	unapproved := candidate.Sub(approved)
	if unapproved.IsNegative() {
		unapproved = decimal.Zero
	}

	decision := OvertimeDecision{ApprovedHours: approved, UnapprovedHours: unapproved}
	switch {
	case candidate.IsPositive() && approved.IsZero():
		decision.Warnings = append(decision.Warnings, WarnExtraNotCounted)
	case approved.IsPositive() && unapproved.IsPositive():
		decision.Warnings = append(decision.Warnings, WarnExtraPartiallyApproved)
	}
	return decision
}
