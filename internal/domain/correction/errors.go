package correction

import "errors"

var (
	ErrCorrectionNotFound = errors.New("correction request not found")
	ErrNotEventOwner      = errors.New("only the employee who owns the event can request a correction")
	ErrReviewerForbidden  = errors.New("reviewer must be a manager or owner of the event's company")
	ErrEventMismatch      = errors.New("correction request does not belong to this event")
	ErrFutureTimestamp    = errors.New("requested timestamp cannot be in the future")
	ErrSameTimestamp      = errors.New("requested timestamp equals the current event timestamp")
	ErrReasonRequired     = errors.New("a reason is required to request a correction")

	// ErrPendingExists is returned by the repository when a concurrent request
	// created the pending row first.
	ErrPendingExists = errors.New("event already has a pending correction request")

	// ErrAlreadyResolved is returned by Resolve for settled requests. Callers
	// treat it as a successful no-op.
	ErrAlreadyResolved = errors.New("correction request is already resolved")
)
