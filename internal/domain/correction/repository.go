package correction

import "context"

type CorrectionRepository interface {
	// Create inserts a new pending request. It returns ErrPendingExists when
	// the event already has one.
	Create(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error)

	// ReplacePending overwrites the proposal of a request that is still pending.
	// It returns ErrAlreadyResolved when the request was settled meanwhile.
	ReplacePending(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error)

	// GetByID retrieves a request with company isolation
	GetByID(ctx context.Context, id string, companyID string) (CorrectionRequest, error)

	// GetPendingByEventID returns the pending request of an event, nil when there is none
	GetPendingByEventID(ctx context.Context, eventID string) (*CorrectionRequest, error)

	// Settle stores the resolution only while the request is still pending and
	// reports whether this call settled it.
	Settle(ctx context.Context, req CorrectionRequest) (bool, error)

	List(ctx context.Context, companyID string, filter CorrectionFilter) ([]CorrectionRequest, int64, error)
}
