package correction

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
)

const (
	requesterLink = "/attendance/corrections/my"
	reviewerLink  = "/attendance/corrections?status=pending"
)

// Proposal is an employee's request to move an event.
type Proposal struct {
	Event               attendance.ClockEvent
	RequesterEmployeeID string
	RequesterUserID     string
	RequestedTimestamp  time.Time
	Reason              string
	Now                 time.Time
}

// Propose builds the pending request for p. When existing is a pending
// request for the same event it is replaced in place, so the last proposal
// wins. The event itself is never modified.
func Propose(existing *CorrectionRequest, p Proposal) (CorrectionRequest, error) {
	if p.RequesterEmployeeID != p.Event.EmployeeID {
		return CorrectionRequest{}, ErrNotEventOwner
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return CorrectionRequest{}, ErrReasonRequired
	}
	if p.RequestedTimestamp.After(p.Now) {
		return CorrectionRequest{}, ErrFutureTimestamp
	}
	if p.RequestedTimestamp.Equal(p.Event.Timestamp) {
		return CorrectionRequest{}, ErrSameTimestamp
	}

	if existing != nil && existing.Status == StatusPending && existing.EventID == p.Event.ID {
		req := *existing
		req.RequesterID = p.RequesterUserID
		req.OriginalTimestamp = p.Event.Timestamp
		req.RequestedTimestamp = p.RequestedTimestamp
		req.Reason = reason
		req.UpdatedAt = p.Now
		return req, nil
	}

	return CorrectionRequest{
		EventID:            p.Event.ID,
		EmployeeID:         p.Event.EmployeeID,
		CompanyID:          p.Event.CompanyID,
		RequesterID:        p.RequesterUserID,
		EventType:          p.Event.Type,
		OriginalTimestamp:  p.Event.Timestamp,
		RequestedTimestamp: p.RequestedTimestamp,
		Reason:             reason,
		Status:             StatusPending,
		CreatedAt:          p.Now,
		UpdatedAt:          p.Now,
	}, nil
}

// ReviewNotice is the message sent to each reviewer when a request is waiting.
func ReviewNotice(req CorrectionRequest, employeeName string) notification.Outbound {
	return notification.Outbound{
		CompanyID: req.CompanyID,
		SenderID:  &req.RequesterID,
		Type:      notification.TypeCorrectionRequested,
		Title:     "Attendance correction requested",
		Message: fmt.Sprintf("%s asked to move a %s event from %s to %s: %s",
			employeeName, req.EventType,
			req.OriginalTimestamp.UTC().Format(time.RFC3339),
			req.RequestedTimestamp.UTC().Format(time.RFC3339),
			req.Reason),
		Link: reviewerLink,
		Data: map[string]interface{}{
			"correction_id": req.ID,
			"event_id":      req.EventID,
			"employee_id":   req.EmployeeID,
		},
	}
}

// Resolution is the outcome of resolving a request: what to persist and
// the single message for the requester.
type Resolution struct {
	Request CorrectionRequest
	Event   attendance.ClockEvent
	Notice  notification.Outbound
}

// Resolve settles a pending request. Approval moves the event to the requested
// timestamp; rejection leaves it untouched. A settled request yields
// ErrAlreadyResolved together with its current state.
func Resolve(req CorrectionRequest, event attendance.ClockEvent, reviewerID string, approve bool, now time.Time) (Resolution, error) {
	if req.IsSettled() {
		return Resolution{Request: req, Event: event}, ErrAlreadyResolved
	}
	if req.EventID != event.ID {
		return Resolution{}, ErrEventMismatch
	}

	reviewer := reviewerID
	reviewedAt := now
	req.ReviewerID = &reviewer
	req.ReviewedAt = &reviewedAt
	req.UpdatedAt = now

	notice := notification.Outbound{
		CompanyID:   req.CompanyID,
		RecipientID: req.RequesterID,
		SenderID:    &reviewer,
		Link:        requesterLink,
		Data: map[string]interface{}{
			"correction_id": req.ID,
			"event_id":      req.EventID,
		},
	}

	if approve {
		req.Status = StatusApproved
		event.Timestamp = req.RequestedTimestamp
		notice.Type = notification.TypeCorrectionApproved
		notice.Title = "Attendance correction approved"
		notice.Message = fmt.Sprintf("Your %s event was moved to %s",
			req.EventType, req.RequestedTimestamp.UTC().Format(time.RFC3339))
	} else {
		req.Status = StatusRejected
		notice.Type = notification.TypeCorrectionRejected
		notice.Title = "Attendance correction rejected"
		notice.Message = fmt.Sprintf("Your request to move the %s event of %s was rejected",
			req.EventType, req.OriginalTimestamp.UTC().Format(time.RFC3339))
	}
	notice.Data["status"] = string(req.Status)

	return Resolution{Request: req, Event: event, Notice: notice}, nil
}
