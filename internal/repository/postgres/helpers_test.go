package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StayGo/pkg/database"
	"github.com/utafrali/StayGo/pkg/pagination"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

var (
	uniqueErr     = pgError(database.UniqueViolation)
	foreignKeyErr = pgError(database.ForeignKeyViolation)
)

func fixedTime() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

func firstPage() pagination.Params {
	return pagination.Params{Page: 1, PerPage: 10}
}

func countRows(n int) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"count"}).AddRow(n)
}
