package core

import (
	"context"
	"database/sql"
	"time"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// DateRange is a half-open [From, To) interval used to scope calendar queries.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (dr DateRange) Contains(t time.Time) bool {
	return !t.Before(dr.From) && t.Before(dr.To)
}

// Overlaps reports whether [start, end) intersects the range.
// A zero-length interval overlaps when its start is in range.
func (dr DateRange) Overlaps(start, end time.Time) bool {
	return start.Before(dr.To) && (end.After(dr.From) || !start.Before(dr.From))
}
