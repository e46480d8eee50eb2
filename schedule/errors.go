/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Input/shape errors - unparseable or inverted input, thrown immediately,
     never retried; callers map them to validation failures.
  2. Blocked errors - overlap guards reject a registration against existing
     records. These carry a machine-readable code and the conflicting record.

NOTE ON ASYMMETRY:
  Range validators RETURN a {Allowed, Violations} value; overlap guards
  THROW a typed blocked error. The asymmetry is deliberate: a validator
  answers "which days count", a guard vetoes a write.

USAGE:
  if errors.Is(err, schedule.ErrOverlapBlocked) { ... }

  var blocked *schedule.VacationOverlapBlockedError
  if errors.As(err, &blocked) { code := blocked.Code() }

SEE ALSO:
  - validate.go: validators and guards raising these errors
  - incapacity package: ErrInvalidExtension, ErrUnknownGroup
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTimestamp is returned when a timestamp input cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidInterval is returned when an interval has end <= start.
	ErrInvalidInterval = errors.New("invalid interval: end not after start")

	// ErrInvalidTimeRange is returned when weekly-shift clock inputs are
	// malformed, zero-length, or out of bounds.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrInvalidDate is returned when a YYYY-MM-DD date input is malformed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrOverlapBlocked is the common sentinel wrapped by all guard errors.
	ErrOverlapBlocked = errors.New("range overlaps an existing record")
)

// =============================================================================
// BLOCKED ERRORS - Thrown by overlap guards, carry machine-readable codes
// =============================================================================

// IncapacityBlockedError rejects a registration overlapping an existing
// incapacity record.
type IncapacityBlockedError struct {
	EmployeeID string
	RecordID   string
	GroupID    string
	StartDate  string
	EndDate    string
}

func (e *IncapacityBlockedError) Code() string { return "IncapacityBlocked" }

func (e *IncapacityBlockedError) Error() string {
	return fmt.Sprintf("incapacity blocked: overlaps record %s (group %s, %s..%s)",
		e.RecordID, e.GroupID, e.StartDate, e.EndDate)
}

func (e *IncapacityBlockedError) Unwrap() error { return ErrOverlapBlocked }

// LeaveOverlapBlockedError rejects a leave overlapping an active leave block.
type LeaveOverlapBlockedError struct {
	EmployeeID string
	BlockID    string
	StatusID   string
}

func (e *LeaveOverlapBlockedError) Code() string { return "LeaveOverlapBlocked" }

func (e *LeaveOverlapBlockedError) Error() string {
	return fmt.Sprintf("leave blocked: overlaps block %s (status %s)", e.BlockID, e.StatusID)
}

func (e *LeaveOverlapBlockedError) Unwrap() error { return ErrOverlapBlocked }

// VacationOverlapBlockedError rejects a vacation overlapping an active block.
type VacationOverlapBlockedError struct {
	EmployeeID string
	BlockID    string
	StatusID   string
}

func (e *VacationOverlapBlockedError) Code() string { return "VacationOverlapBlocked" }

func (e *VacationOverlapBlockedError) Error() string {
	return fmt.Sprintf("vacation blocked: overlaps block %s (status %s)", e.BlockID, e.StatusID)
}

func (e *VacationOverlapBlockedError) Unwrap() error { return ErrOverlapBlocked }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid input shape.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimestamp) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidDate)
}

// IsBlocked reports whether the error came from an overlap guard.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrOverlapBlocked)
}
