// Package sqlxrepos implements the domain repositories on Postgres via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// trapNoRowsErr maps psql "no rows" to the given domain sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// deleteByID expands an IN clause and runs the delete, returning the number
// of affected rows.
func deleteByID(ctx context.Context, db *sqlx.DB, query string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return 0, errors.Wrap(err, "expanding IN clause")
	}
	res, err := db.ExecContext(ctx, db.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(cnt), nil
}
