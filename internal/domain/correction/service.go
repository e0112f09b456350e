package correction

import "context"

type CorrectionService interface {
	// Request proposes a new timestamp for one of the caller's own events
	Request(ctx context.Context, req CreateCorrectionRequest) (CorrectionResponse, error)

	// Approve moves the event to the requested timestamp (manager+)
	Approve(ctx context.Context, id string) (CorrectionResponse, error)

	// Reject settles the request without touching the event (manager+)
	Reject(ctx context.Context, id string) (CorrectionResponse, error)

	// List returns the company's requests (manager+)
	List(ctx context.Context, filter CorrectionFilter) (ListCorrectionResponse, error)

	// ListMine returns the caller's own requests
	ListMine(ctx context.Context, filter CorrectionFilter) (ListCorrectionResponse, error)
}
