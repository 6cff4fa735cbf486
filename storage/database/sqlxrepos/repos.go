// Package sqlxrepos implements the app repositories with sqlx.
// Queries use `?` placeholders and are rebound for the executor's driver (postgres or sqlite).
package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/folio"
)

type base struct {
	exec core.DBExecutor
}

func (repo base) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps "no rows" errors to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// folioText is how folios are stored: text, so hand-edited legacy values survive.
func folioText(v null.Int64) null.String {
	if !v.Valid {
		return null.String{}
	}
	return null.StringFrom(strconv.FormatInt(v.Int64, 10))
}

// parseFolioText reads a stored folio leniently; values that do not parse to a positive number are null.
func parseFolioText(s null.String) null.Int64 {
	if !s.Valid {
		return null.Int64{}
	}
	if n := folio.ParseFolio(s.String); n > 0 {
		return null.Int64From(n)
	}
	return null.Int64{}
}

// orderBy renders orderings restricted to the allowed columns.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
