package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/correction"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
)

type CorrectionServiceImpl struct {
	database.Transactor
	correction.CorrectionRepository
	attendance.EventRepository
	employee.EmployeeRepository
	sink notification.Sink
	now  func() time.Time
}

func NewCorrectionService(
	transactor database.Transactor,
	correctionRepo correction.CorrectionRepository,
	eventRepo attendance.EventRepository,
	employeeRepo employee.EmployeeRepository,
	sink notification.Sink,
) correction.CorrectionService {
	return &CorrectionServiceImpl{
		Transactor:           transactor,
		CorrectionRepository: correctionRepo,
		EventRepository:      eventRepo,
		EmployeeRepository:   employeeRepo,
		sink:                 sink,
		now:                  time.Now,
	}
}

func (s *CorrectionServiceImpl) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// notify hands messages to the sink. Delivery failures never undo the mutation.
func (s *CorrectionServiceImpl) notify(ctx context.Context, msgs ...notification.Outbound) {
	if s.sink == nil {
		return
	}
	for _, msg := range msgs {
		if msg.RecipientID == "" {
			continue
		}
		if err := s.sink.Send(ctx, msg); err != nil {
			slog.Error("failed to deliver notification",
				"type", msg.Type,
				"recipient_id", msg.RecipientID,
				"error", err,
			)
		}
	}
}

// Request implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Request(ctx context.Context, req correction.CreateCorrectionRequest) (correction.CorrectionResponse, error) {
	if err := req.Validate(); err != nil {
		return correction.CorrectionResponse{}, err
	}

	claims, err := jwt.RequireEmployee(ctx)
	if err != nil {
		return correction.CorrectionResponse{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		return correction.CorrectionResponse{}, err
	}

	var saved correction.CorrectionRequest
	err = s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		event, err := s.EventRepository.GetByID(ctx, req.EventID, claims.CompanyID)
		if err != nil {
			return err
		}

		saved, err = s.propose(ctx, event, claims, req)
		return err
	})
	if err != nil {
		return correction.CorrectionResponse{}, err
	}
	saved.EmployeeName = &emp.FullName

	slog.Info("correction requested",
		"correction_id", saved.ID,
		"event_id", saved.EventID,
		"employee_id", saved.EmployeeID,
	)

	reviewers, err := s.EmployeeRepository.ListReviewerUserIDs(ctx, claims.CompanyID)
	if err != nil {
		slog.Error("failed to list reviewers", "company_id", claims.CompanyID, "error", err)
	}
	notice := correction.ReviewNotice(saved, emp.FullName)
	msgs := make([]notification.Outbound, 0, len(reviewers))
	for _, reviewerID := range reviewers {
		if reviewerID == claims.UserID {
			continue
		}
		msgs = append(msgs, notice.To(reviewerID))
	}
	s.notify(ctx, msgs...)

	return correction.NewCorrectionResponse(saved), nil
}

// proposeAttempts bounds the retries when a reviewer or a second request
// changes the pending row between the read and the write.
const proposeAttempts = 3

// propose writes the employee's proposal. A pending request settled in the
// meantime is followed by a fresh one, and a pending row created
// concurrently is replaced, so the last proposal always wins.
func (s *CorrectionServiceImpl) propose(ctx context.Context, event attendance.ClockEvent, claims jwt.Claims, req correction.CreateCorrectionRequest) (correction.CorrectionRequest, error) {
	var lastErr error
	for attempt := 0; attempt < proposeAttempts; attempt++ {
		existing, err := s.CorrectionRepository.GetPendingByEventID(ctx, event.ID)
		if err != nil {
			return correction.CorrectionRequest{}, fmt.Errorf("failed to get pending correction: %w", err)
		}

		proposal, err := correction.Propose(existing, correction.Proposal{
			Event:               event,
			RequesterEmployeeID: claims.EmployeeID,
			RequesterUserID:     claims.UserID,
			RequestedTimestamp:  req.Timestamp(),
			Reason:              req.Reason,
			Now:                 s.clock(),
		})
		if err != nil {
			return correction.CorrectionRequest{}, err
		}

		var saved correction.CorrectionRequest
		if existing != nil && proposal.ID == existing.ID {
			saved, err = s.CorrectionRepository.ReplacePending(ctx, proposal)
		} else {
			saved, err = s.CorrectionRepository.Create(ctx, proposal)
		}
		if errors.Is(err, correction.ErrAlreadyResolved) || errors.Is(err, correction.ErrPendingExists) {
			slog.Warn("pending correction changed concurrently, retrying",
				"event_id", event.ID,
				"attempt", attempt+1,
				"error", err,
			)
			lastErr = err
			continue
		}
		return saved, err
	}
	return correction.CorrectionRequest{}, fmt.Errorf("failed to record correction after %d attempts: %w", proposeAttempts, lastErr)
}

// Approve implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Approve(ctx context.Context, id string) (correction.CorrectionResponse, error) {
	return s.resolve(ctx, id, true)
}

// Reject implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Reject(ctx context.Context, id string) (correction.CorrectionResponse, error) {
	return s.resolve(ctx, id, false)
}

// resolve settles a request. Resolving an already settled request returns its
// current state without side effects.
func (s *CorrectionServiceImpl) resolve(ctx context.Context, id string, approve bool) (correction.CorrectionResponse, error) {
	claims, err := jwt.RequireCompany(ctx)
	if err != nil {
		return correction.CorrectionResponse{}, err
	}
	if !claims.Role.IsReviewer() {
		return correction.CorrectionResponse{}, correction.ErrReviewerForbidden
	}

	var (
		result  correction.CorrectionRequest
		notice  *notification.Outbound
		settled bool
	)
	err = s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.CorrectionRepository.GetByID(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		event, err := s.EventRepository.GetByID(ctx, req.EventID, claims.CompanyID)
		if err != nil {
			return err
		}

		res, err := correction.Resolve(req, event, claims.UserID, approve, s.clock())
		if errors.Is(err, correction.ErrAlreadyResolved) {
			result = res.Request
			return nil
		}
		if err != nil {
			return err
		}

		ok, err := s.CorrectionRepository.Settle(ctx, res.Request)
		if err != nil {
			return fmt.Errorf("failed to settle correction: %w", err)
		}
		if !ok {
			// Settled concurrently; report the stored outcome.
			return nil
		}

		if res.Request.Status == correction.StatusApproved {
			if err := s.EventRepository.UpdateTimestamp(ctx, res.Event.ID, res.Event.Timestamp); err != nil {
				return fmt.Errorf("failed to apply correction: %w", err)
			}
		}

		result = res.Request
		notice = &res.Notice
		settled = true
		return nil
	})
	if err != nil {
		return correction.CorrectionResponse{}, err
	}

	if result.ID == "" {
		result, err = s.CorrectionRepository.GetByID(ctx, id, claims.CompanyID)
		if err != nil {
			return correction.CorrectionResponse{}, err
		}
	}

	if settled {
		slog.Info("correction resolved",
			"correction_id", result.ID,
			"status", result.Status,
			"reviewer_id", claims.UserID,
		)
		s.notify(ctx, *notice)
	}

	return correction.NewCorrectionResponse(result), nil
}

// List implements correction.CorrectionService.
func (s *CorrectionServiceImpl) List(ctx context.Context, filter correction.CorrectionFilter) (correction.ListCorrectionResponse, error) {
	if err := filter.Validate(); err != nil {
		return correction.ListCorrectionResponse{}, err
	}

	claims, err := jwt.RequireCompany(ctx)
	if err != nil {
		return correction.ListCorrectionResponse{}, err
	}
	if !user.HasPermission(claims.Role, user.PermissionAttendanceApprove) {
		return correction.ListCorrectionResponse{}, correction.ErrReviewerForbidden
	}

	return s.list(ctx, claims.CompanyID, filter)
}

// ListMine implements correction.CorrectionService.
func (s *CorrectionServiceImpl) ListMine(ctx context.Context, filter correction.CorrectionFilter) (correction.ListCorrectionResponse, error) {
	claims, err := jwt.RequireEmployee(ctx)
	if err != nil {
		return correction.ListCorrectionResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return correction.ListCorrectionResponse{}, err
	}
	filter.EmployeeID = &claims.EmployeeID

	return s.list(ctx, claims.CompanyID, filter)
}

func (s *CorrectionServiceImpl) list(ctx context.Context, companyID string, filter correction.CorrectionFilter) (correction.ListCorrectionResponse, error) {
	requests, total, err := s.CorrectionRepository.List(ctx, companyID, filter)
	if err != nil {
		return correction.ListCorrectionResponse{}, fmt.Errorf("failed to list corrections: %w", err)
	}

	resp := correction.ListCorrectionResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Corrections: make([]correction.CorrectionResponse, 0, len(requests)),
	}
	for _, r := range requests {
		resp.Corrections = append(resp.Corrections, correction.NewCorrectionResponse(r))
	}
	return resp, nil
}
