package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/correction"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectionRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	f := setup.createFixture(t, ctx)

	events := postgresql.NewClockEventRepository(setup.DB)
	repo := postgresql.NewCorrectionRepository(setup.DB)
	transactor := postgresql.NewTransactor(setup.DB)

	base := time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC)
	ev, err := events.Append(ctx, attendance.ClockEvent{
		EmployeeID: f.EmployeeID, CompanyID: f.CompanyID, Type: attendance.EventClockOut, Timestamp: base,
	})
	require.NoError(t, err)

	req := correction.CorrectionRequest{
		EventID:            ev.ID,
		EmployeeID:         f.EmployeeID,
		CompanyID:          f.CompanyID,
		RequesterID:        f.EmployeeUserID,
		EventType:          ev.Type,
		OriginalTimestamp:  base,
		RequestedTimestamp: base.Add(30 * time.Minute),
		Reason:             "left later than recorded",
	}

	created, err := repo.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusPending, created.Status)

	_, err = repo.Create(ctx, req)
	assert.ErrorIs(t, err, correction.ErrPendingExists, "only one pending request per event")

	pending, err := repo.GetPendingByEventID(ctx, ev.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, created.ID, pending.ID)

	created.RequestedTimestamp = base.Add(45 * time.Minute)
	_, err = repo.ReplacePending(ctx, created)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, created.ID, f.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, base.Add(45*time.Minute), stored.RequestedTimestamp.UTC())

	list, total, err := repo.List(ctx, f.CompanyID, correction.CorrectionFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)

	// Approve inside a transaction the way the service does.
	reviewedAt := base.Add(2 * time.Hour)
	stored.Status = correction.StatusApproved
	stored.ReviewerID = &f.ManagerUserID
	stored.ReviewedAt = &reviewedAt
	stored.UpdatedAt = reviewedAt

	err = transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		settled, err := repo.Settle(ctx, stored)
		if err != nil {
			return err
		}
		require.True(t, settled)
		return events.UpdateTimestamp(ctx, ev.ID, stored.RequestedTimestamp)
	})
	require.NoError(t, err)

	settled, err := repo.Settle(ctx, stored)
	require.NoError(t, err)
	assert.False(t, settled, "a settled request is not settled twice")

	_, err = repo.ReplacePending(ctx, stored)
	assert.ErrorIs(t, err, correction.ErrAlreadyResolved)

	moved, err := events.GetByID(ctx, ev.ID, f.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, base.Add(45*time.Minute), moved.Timestamp.UTC())

	pending, err = repo.GetPendingByEventID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	f := setup.createFixture(t, ctx)

	events := postgresql.NewClockEventRepository(setup.DB)
	transactor := postgresql.NewTransactor(setup.DB)

	base := time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC)
	err := transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := events.Append(ctx, attendance.ClockEvent{
			EmployeeID: f.EmployeeID, CompanyID: f.CompanyID, Type: attendance.EventClockIn, Timestamp: base,
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	latest, err := events.Latest(ctx, f.EmployeeID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
