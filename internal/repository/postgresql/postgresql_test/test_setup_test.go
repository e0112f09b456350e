package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds a connection to a disposable test database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when no database is configured.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(t, err, "failed to connect to test database")

	setup := &TestDatabaseSetup{DB: db}
	t.Cleanup(setup.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "001_timeclock.sql"))
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err, "failed to apply schema")

	require.NoError(t, setup.TruncateAllTables(ctx))
	return setup
}

// TruncateAllTables removes all rows from the attendance tables
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"notifications",
		"correction_requests",
		"clock_events",
		"absences",
		"employees",
		"users",
	}

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

// fixture is one company with a manager and an employee.
type fixture struct {
	CompanyID      string
	ManagerUserID  string
	EmployeeUserID string
	EmployeeID     string
}

func (s *TestDatabaseSetup) createFixture(t *testing.T, ctx context.Context) fixture {
	t.Helper()

	var f fixture
	require.NoError(t, s.DB.QueryRow(ctx, `SELECT uuidv7()`).Scan(&f.CompanyID))

	require.NoError(t, s.DB.QueryRow(ctx, `
		INSERT INTO users (company_id, email, role) VALUES ($1, 'manager@example.com', 'manager')
		RETURNING id
	`, f.CompanyID).Scan(&f.ManagerUserID))

	require.NoError(t, s.DB.QueryRow(ctx, `
		INSERT INTO users (company_id, email, role) VALUES ($1, 'employee@example.com', 'employee')
		RETURNING id
	`, f.CompanyID).Scan(&f.EmployeeUserID))

	require.NoError(t, s.DB.QueryRow(ctx, `
		INSERT INTO employees (user_id, company_id, employee_code, full_name, weekly_hours, timezone)
		VALUES ($1, $2, 'EMP-001', 'Ana Torres', 37.5, 'Europe/Madrid')
		RETURNING id
	`, f.EmployeeUserID, f.CompanyID).Scan(&f.EmployeeID))

	return f
}
