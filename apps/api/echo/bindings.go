package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mwalimu/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// intParam reads the integer path parameter `name`; anything else is a 404.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// dateParam reads the YYYY-MM-DD path parameter `name`.
func dateParam(ctx echo.Context, name string) (time.Time, error) {
	date, err := core.ParseDate(ctx.Param(name))
	if err != nil {
		return time.Time{}, core.NewFieldError(name, name+" must be a date formatted as YYYY-MM-DD")
	}
	return date, nil
}

// queryInt reads the optional integer query parameter `name`.
func queryInt(ctx echo.Context, name string) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, core.NewFieldError(name, name+" must be an integer")
	}
	return n, nil
}

// queryBool reads the optional boolean query parameter `name`.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewFieldError(name, name+" must be a boolean")
	}
	return &b, nil
}

// queryTime reads the optional query parameter `name`, as a YYYY-MM-DD date or an RFC 3339 timestamp.
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := core.ParseDate(val); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, core.NewFieldError(name, name+" must be a date or an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}
