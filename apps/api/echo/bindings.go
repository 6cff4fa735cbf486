package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/folio"
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
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindExpenseFilter reads ?campus_id=&missing_folio=&has_folio= ; malformed values are ignored.
func bindExpenseFilter(ctx echo.Context) folio.ExpenseFilter {
	var filter folio.ExpenseFilter
	if id, err := strconv.ParseInt(ctx.QueryParam("campus_id"), 10, 64); err == nil {
		filter.CampusID = id
	}
	if b, err := strconv.ParseBool(ctx.QueryParam("missing_folio")); err == nil {
		filter.MissingFolio = b
	}
	if b, err := strconv.ParseBool(ctx.QueryParam("has_folio")); err == nil {
		filter.HasFolio = b
	}
	return filter
}
