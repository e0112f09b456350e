package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockEventRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	f := setup.createFixture(t, ctx)
	repo := postgresql.NewClockEventRepository(setup.DB)

	latest, err := repo.Latest(ctx, f.EmployeeID)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty log has no latest event")

	base := time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC)
	onSite := employee.ModalityOnSite

	clockIn, err := repo.Append(ctx, attendance.ClockEvent{
		EmployeeID: f.EmployeeID, CompanyID: f.CompanyID,
		Type: attendance.EventClockIn, Timestamp: base, WorkModality: &onSite,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, clockIn.ID)

	breakStart, err := repo.Append(ctx, attendance.ClockEvent{
		EmployeeID: f.EmployeeID, CompanyID: f.CompanyID,
		Type: attendance.EventBreakStart, Timestamp: base.Add(4 * time.Hour),
		BreakDetails: &attendance.BreakDetails{IsJustified: true, JustificationType: "medical"},
	})
	require.NoError(t, err)

	// Same timestamp: insertion order breaks the tie.
	breakEnd, err := repo.Append(ctx, attendance.ClockEvent{
		EmployeeID: f.EmployeeID, CompanyID: f.CompanyID,
		Type: attendance.EventBreakEnd, Timestamp: base.Add(4 * time.Hour), WorkModality: &onSite,
	})
	require.NoError(t, err)

	latest, err = repo.Latest(ctx, f.EmployeeID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, breakEnd.ID, latest.ID)

	events, err := repo.Query(ctx, f.EmployeeID, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{clockIn.ID, breakStart.ID, breakEnd.ID}, []string{events[0].ID, events[1].ID, events[2].ID})
	require.NotNil(t, events[1].BreakDetails)
	assert.Equal(t, "medical", events[1].BreakDetails.JustificationType)
	require.NotNil(t, events[0].EmployeeName)
	assert.Equal(t, "Ana Torres", *events[0].EmployeeName)

	t.Run("company isolation", func(t *testing.T) {
		_, err := repo.GetByID(ctx, clockIn.ID, f.ManagerUserID)
		assert.True(t, errors.Is(err, attendance.ErrEventNotFound))

		got, err := repo.GetByID(ctx, clockIn.ID, f.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, base, got.Timestamp.UTC())
	})

	t.Run("update timestamp", func(t *testing.T) {
		require.NoError(t, repo.UpdateTimestamp(ctx, clockIn.ID, base.Add(-15*time.Minute)))
		got, err := repo.GetByID(ctx, clockIn.ID, f.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, base.Add(-15*time.Minute), got.Timestamp.UTC())

		err = repo.UpdateTimestamp(ctx, f.EmployeeID, base)
		assert.ErrorIs(t, err, attendance.ErrEventNotFound)
	})

	t.Run("open sessions", func(t *testing.T) {
		sessions, err := repo.ListOpenSessions(ctx, base.Add(5*time.Hour))
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, f.EmployeeID, sessions[0].EmployeeID)
		require.NotNil(t, sessions[0].UserID)
		assert.Equal(t, f.EmployeeUserID, *sessions[0].UserID)

		_, err = repo.Append(ctx, attendance.ClockEvent{
			EmployeeID: f.EmployeeID, CompanyID: f.CompanyID,
			Type: attendance.EventClockOut, Timestamp: base.Add(8 * time.Hour),
		})
		require.NoError(t, err)

		sessions, err = repo.ListOpenSessions(ctx, base.Add(9*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("break details only on break_start", func(t *testing.T) {
		_, err := repo.Append(ctx, attendance.ClockEvent{
			EmployeeID: f.EmployeeID, CompanyID: f.CompanyID,
			Type: attendance.EventClockIn, Timestamp: base.Add(24 * time.Hour),
			BreakDetails: &attendance.BreakDetails{IsPersonal: true},
		})
		assert.Error(t, err)
	})
}
