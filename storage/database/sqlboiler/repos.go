// Package boiledrepos implements the app repositories on PostgreSQL with sqlboiler raw queries.
package boiledrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/mwalimu/core"
)

// postgres error codes
const (
	uniqueViolation      = "23505"
	foreignKeyViolation  = "23503"
	serializationFailure = "40001"

	maxTxAttempts = 3
)

// pqError returns the postgres error behind `err`, if any.
func pqError(err error) (*pq.Error, bool) {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return pqErr, ok
}

func isCode(err error, code pq.ErrorCode) bool {
	pqErr, ok := pqError(err)
	return ok && pqErr.Code == code
}

// trapNoRowsErr maps "no rows" to `notFound`.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns `notFound` if the statement did not touch any row.
func checkAffected(res sql.Result, err, notFound error, msg string) error {
	if err != nil {
		return errors.Wrap(err, msg)
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if cnt == 0 {
		return notFound
	}
	return nil
}

// inQuery expands the `?` bindvars of `query` (slices included) into postgres `$n` bindvars.
func inQuery(query string, args ...interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), args, nil
}

// whereClause joins `conds` with AND.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// orderClause maps the API ordering fields to columns; unknown fields are ignored.
func orderClause(ordering []core.DBOrdering, columns map[string]string, fallback string) string {
	list := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			list = append(list, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	list = append(list, fallback)
	return " ORDER BY " + strings.Join(list, ", ")
}

// existingIDs returns the subset of `ids` found in `table`.
func existingIDs(ctx context.Context, exec core.DBExecutor, table string, ids []int) (map[int]bool, error) {
	found := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	q, args, err := inQuery("SELECT id FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID int `boil:"id"`
	}
	if err = queries.Raw(q, args...).Bind(ctx, exec, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		found[r.ID] = true
	}
	return found, nil
}
