// Package postgres holds the PostgreSQL implementations of the repository
// interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StayGo/pkg/database"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
)

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	return database.IsPgError(err, database.UniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return database.IsPgError(err, database.ForeignKeyViolation)
}

// notFound maps pgx.ErrNoRows to apperrors.ErrNotFound and wraps anything
// else with what.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// listPage counts the rows selected by base, then fetches one page of them
// ordered by orderBy. base must carry FROM and WHERE but no columns.
func listPage[T any](
	ctx context.Context,
	db database.DBTX,
	what string,
	base sq.SelectBuilder,
	columns []string,
	orderBy string,
	page pagination.Params,
	scan func(row pgx.Row, dst *T) error,
) ([]T, int, error) {
	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s count: %w", what, err)
	}

	ctx, end := database.TraceQuery(ctx, "List"+what, countSQL)
	var total int
	err = db.QueryRow(ctx, countSQL, countArgs...).Scan(&total)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", what, err)
	}

	limit, offset := page.SQL()
	listSQL, listArgs, err := base.Columns(columns...).OrderBy(orderBy).Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s list: %w", what, err)
	}

	rows, err := db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", what, err)
	}
	defer rows.Close()

	items := make([]T, 0, page.PerPage)
	for rows.Next() {
		var item T
		if err := scan(rows, &item); err != nil {
			return nil, 0, fmt.Errorf("scan %s row: %w", what, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s rows: %w", what, err)
	}

	return items, total, nil
}
