package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/correction"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type correctionRepository struct {
	db *database.DB
}

func NewCorrectionRepository(db *database.DB) correction.CorrectionRepository {
	return &correctionRepository{db: db}
}

const correctionColumns = `
	cr.id, cr.event_id, cr.employee_id, cr.company_id, cr.requester_id, cr.event_type,
	cr.original_timestamp, cr.requested_timestamp, cr.reason, cr.status,
	cr.reviewer_id, cr.reviewed_at, cr.created_at, cr.updated_at,
	e.full_name
`

func scanCorrection(row pgx.Row) (correction.CorrectionRequest, error) {
	var c correction.CorrectionRequest
	err := row.Scan(
		&c.ID, &c.EventID, &c.EmployeeID, &c.CompanyID, &c.RequesterID, &c.EventType,
		&c.OriginalTimestamp, &c.RequestedTimestamp, &c.Reason, &c.Status,
		&c.ReviewerID, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt,
		&c.EmployeeName,
	)
	return c, err
}

// Create implements correction.CorrectionRepository.
func (r *correctionRepository) Create(ctx context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO correction_requests (
			event_id, employee_id, company_id, requester_id, event_type,
			original_timestamp, requested_timestamp, reason, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) WHERE status = 'pending' DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		req.EventID, req.EmployeeID, req.CompanyID, req.RequesterID, string(req.EventType),
		req.OriginalTimestamp, req.RequestedTimestamp, req.Reason, string(correction.StatusPending),
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race for uq_correction_requests_pending.
			return correction.CorrectionRequest{}, correction.ErrPendingExists
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to create correction request: %w", err)
	}

	req.Status = correction.StatusPending
	return req, nil
}

// ReplacePending implements correction.CorrectionRepository.
func (r *correctionRepository) ReplacePending(ctx context.Context, req correction.CorrectionRequest) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE correction_requests
		SET requester_id = $1, original_timestamp = $2, requested_timestamp = $3, reason = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'pending'
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		req.RequesterID, req.OriginalTimestamp, req.RequestedTimestamp, req.Reason, req.ID,
	).Scan(&req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Settled between read and write.
			return correction.CorrectionRequest{}, correction.ErrAlreadyResolved
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to replace correction request: %w", err)
	}

	return req, nil
}

// GetByID implements correction.CorrectionRepository.
func (r *correctionRepository) GetByID(ctx context.Context, id string, companyID string) (correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + correctionColumns + `
		FROM correction_requests cr
		JOIN employees e ON e.id = cr.employee_id
		WHERE cr.id = $1 AND cr.company_id = $2
	`

	c, err := scanCorrection(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.CorrectionRequest{}, correction.ErrCorrectionNotFound
		}
		return correction.CorrectionRequest{}, fmt.Errorf("failed to get correction request: %w", err)
	}

	return c, nil
}

// GetPendingByEventID implements correction.CorrectionRepository.
func (r *correctionRepository) GetPendingByEventID(ctx context.Context, eventID string) (*correction.CorrectionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + correctionColumns + `
		FROM correction_requests cr
		JOIN employees e ON e.id = cr.employee_id
		WHERE cr.event_id = $1 AND cr.status = 'pending'
	`

	c, err := scanCorrection(q.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending correction request: %w", err)
	}

	return &c, nil
}

// Settle implements correction.CorrectionRepository.
func (r *correctionRepository) Settle(ctx context.Context, req correction.CorrectionRequest) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE correction_requests
		SET status = $1, reviewer_id = $2, reviewed_at = $3, updated_at = $4
		WHERE id = $5 AND status = 'pending'
	`

	tag, err := q.Exec(ctx, query, string(req.Status), req.ReviewerID, req.ReviewedAt, req.UpdatedAt, req.ID)
	if err != nil {
		return false, fmt.Errorf("failed to settle correction request: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// List implements correction.CorrectionRepository.
func (r *correctionRepository) List(ctx context.Context, companyID string, filter correction.CorrectionFilter) ([]correction.CorrectionRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"cr.company_id = $1"}
	args := []interface{}{companyID}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		args = append(args, *filter.EmployeeID)
		where = append(where, fmt.Sprintf("cr.employee_id = $%d", len(args)))
	}
	if filter.Status != nil && *filter.Status != "" {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("cr.status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM correction_requests cr WHERE ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction requests: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT %s
		FROM correction_requests cr
		JOIN employees e ON e.id = cr.employee_id
		WHERE %s
		ORDER BY cr.created_at DESC, cr.id DESC
		LIMIT $%d OFFSET $%d
	`, correctionColumns, whereClause, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list correction requests: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (correction.CorrectionRequest, error) {
		return scanCorrection(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan correction requests: %w", err)
	}

	return list, total, nil
}
