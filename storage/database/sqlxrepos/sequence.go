package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/folio"
)

// seriesSource is where the folios of a series already live, used to seed a new counter.
type seriesSource struct {
	table      string
	column     string
	dateColumn string
}

var seriesSources = map[folio.Series]seriesSource{
	folio.SeriesTransaction: {table: "transactions", column: "folio_new", dateColumn: "paid_at"},
	folio.SeriesCash:        {table: "transactions", column: "folio_cash", dateColumn: "paid_at"},
	folio.SeriesTransfer:    {table: "transactions", column: "folio_transfer", dateColumn: "paid_at"},
	folio.SeriesCard:        {table: "transactions", column: "folio_card", dateColumn: "paid_at"},
	folio.SeriesExpense:     {table: "expenses", column: "folio", dateColumn: "expense_date"},

	folio.SeriesExpenseMonthly: {table: "expenses", column: "folio", dateColumn: "expense_date"},
}

type sequenceRepository struct {
	base
	loc *time.Location
}

var _ folio.SequenceRepository = (*sequenceRepository)(nil) // interface compliance check

// NewSequenceRepository seeds monthly counters from stored folios whose month, in loc, matches the bucket.
// loc must be the allocator's location; nil is UTC.
func NewSequenceRepository(exec core.DBExecutor, loc *time.Location) *sequenceRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &sequenceRepository{base: base{exec: exec}, loc: loc}
}

// NextValue increments the counter of key and returns the new value.
// A missing counter is created from the highest folio already stored in its bucket.
func (repo sequenceRepository) NextValue(ctx context.Context, key folio.SequenceKey, exec ...core.DBExecutor) (int64, error) {
	ex := repo.getExec(exec)
	if _, ok := seriesSources[key.Series]; !ok {
		return 0, errors.Errorf("unknown folio series %q", key.Series)
	}

	v, err := repo.increment(ctx, ex, key)
	if err == nil {
		return v, nil
	}
	if errors.Cause(err) != sql.ErrNoRows {
		return 0, err
	}

	seed, err := repo.MaxStoredFolio(ctx, key, ex)
	if err != nil {
		return 0, err
	}
	// a concurrent caller may have created the counter in between; keep theirs
	q := ex.Rebind(`INSERT INTO folio_sequences (campus_id, series, period, last_value, updated_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (campus_id, series, period) DO NOTHING`)
	if _, err := ex.ExecContext(ctx, q, key.CampusID, string(key.Series), key.Period, seed, time.Now().UTC()); err != nil {
		return 0, errors.Wrap(err, "creating folio sequence")
	}

	v, err = repo.increment(ctx, ex, key)
	if err != nil {
		return 0, errors.Wrap(err, "incrementing folio sequence")
	}
	return v, nil
}

func (repo sequenceRepository) increment(ctx context.Context, ex core.DBExecutor, key folio.SequenceKey) (int64, error) {
	q := ex.Rebind(`UPDATE folio_sequences SET last_value = last_value + 1, updated_at = ?
		WHERE campus_id = ? AND series = ? AND period = ? RETURNING last_value`)
	var v int64
	err := ex.QueryRowxContext(ctx, q, time.Now().UTC(), key.CampusID, string(key.Series), key.Period).Scan(&v)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, errors.Wrap(err, "incrementing folio sequence")
	}
	return v, nil
}

// ResetValue sets the counter of key so the next value handed out is value+1.
func (repo sequenceRepository) ResetValue(ctx context.Context, key folio.SequenceKey, value int64, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO folio_sequences (campus_id, series, period, last_value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (campus_id, series, period) DO UPDATE SET last_value = excluded.last_value, updated_at = excluded.updated_at`)
	if _, err := ex.ExecContext(ctx, q, key.CampusID, string(key.Series), key.Period, value, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "resetting folio sequence")
	}
	return nil
}

// CurrentValue returns the last value handed out for key, 0 when the counter does not exist yet.
func (repo sequenceRepository) CurrentValue(ctx context.Context, key folio.SequenceKey, exec ...core.DBExecutor) (int64, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`SELECT last_value FROM folio_sequences WHERE campus_id = ? AND series = ? AND period = ?`)
	var v int64
	if err := sqlx.GetContext(ctx, ex, &v, q, key.CampusID, string(key.Series), key.Period); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.Wrap(err, "getting folio sequence")
	}
	return v, nil
}

type storedFolio struct {
	Folio null.String `db:"folio"`
	Date  time.Time   `db:"occurred_at"`
}

// MaxStoredFolio returns the highest folio stored for key's campus & bucket.
// Values are parsed leniently; the month filter runs in Go so it is the same on every engine.
func (repo sequenceRepository) MaxStoredFolio(ctx context.Context, key folio.SequenceKey, exec ...core.DBExecutor) (int64, error) {
	ex := repo.getExec(exec)
	src, ok := seriesSources[key.Series]
	if !ok {
		return 0, errors.Errorf("unknown folio series %q", key.Series)
	}

	// table & columns come from seriesSources, never from input
	q := ex.Rebind(`SELECT ` + src.column + ` AS folio, ` + src.dateColumn + ` AS occurred_at FROM ` + src.table +
		` WHERE campus_id = ? AND ` + src.column + ` IS NOT NULL`)
	var rows []storedFolio
	if err := sqlx.SelectContext(ctx, ex, &rows, q, key.CampusID); err != nil {
		return 0, errors.Wrap(err, "reading stored folios")
	}

	var max int64
	for _, r := range rows {
		if key.Period != "" && folio.Period(r.Date, repo.loc) != key.Period {
			continue
		}
		if v := parseFolioText(r.Folio); v.Valid && v.Int64 > max {
			max = v.Int64
		}
	}
	return max, nil
}
