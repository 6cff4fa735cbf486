package folio

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
)

type (
	ReassignOptions struct {
		CampusID int64 // 0: every campus
		All      bool  // also renumber expenses that already have a folio
		DryRun   bool
	}

	// ReassignChange is the before/after trace of one expense.
	ReassignChange struct {
		ExpenseID   string      `json:"expense_id"`
		CampusID    int64       `json:"campus_id"`
		ExpenseDate time.Time   `json:"expense_date"`
		OldFolio    null.Int64  `json:"old_folio"`
		OldPrefix   null.String `json:"old_prefix"`
		NewFolio    int64       `json:"new_folio"`
		NewPrefix   string      `json:"new_prefix"`
		Changed     bool        `json:"changed"`
	}

	ReassignReport struct {
		DryRun    bool             `json:"dry_run"`
		Processed int              `json:"processed"`
		Updated   int              `json:"updated"`
		Changes   []ReassignChange `json:"changes"`
	}
)

var expenseOrdering = []core.DBOrdering{
	{Field: "campus_id", Ascending: true},
	{Field: "expense_date", Ascending: true},
	{Field: "created_at", Ascending: true},
}

// ReassignExpenseFolios renumbers expenses 1, 2, 3... per campus in expense date order.
// Without opts.All only expenses missing a folio are numbered, continuing after the campus's highest folio.
// A dry run computes the same report and persists nothing; otherwise the whole batch is one DB transaction.
func (svc *Service) ReassignExpenseFolios(ctx context.Context, opts ReassignOptions) (ReassignReport, error) {
	if opts.CampusID != 0 {
		if _, err := svc.alloc.campusLetter(ctx, opts.CampusID, nil); err != nil {
			return ReassignReport{}, err
		}
	}

	var report ReassignReport
	run := func(exec core.DBExecutor) error {
		var err error
		report, err = svc.reassign(ctx, opts, exec)
		return err
	}
	if opts.DryRun {
		if err := run(svc.db); err != nil {
			return ReassignReport{}, err
		}
	} else {
		if err := core.InTx(ctx, svc.db, run); err != nil {
			return ReassignReport{}, errors.Wrap(err, "reassigning expense folios")
		}
		svc.alloc.obs.FoliosReassigned(report.Updated)
	}

	svc.logger.Info("expense folios reassigned", map[string]interface{}{
		"campus_id": opts.CampusID,
		"all":       opts.All,
		"dry_run":   opts.DryRun,
		"processed": report.Processed,
		"updated":   report.Updated,
	})
	return report, nil
}

func (svc *Service) reassign(ctx context.Context, opts ReassignOptions, exec core.DBExecutor) (ReassignReport, error) {
	report := ReassignReport{DryRun: opts.DryRun}

	filter := ExpenseFilter{CampusID: opts.CampusID, MissingFolio: !opts.All}
	expenses, err := svc.expRepo.QueryExpenses(ctx, filter, expenseOrdering, exec)
	if err != nil {
		return report, errors.Wrap(err, "querying expenses")
	}
	for _, group := range groupByCampus(expenses) {
		campusID := group[0].CampusID
		prefix, err := svc.alloc.GenerateExpenseFolioPrefix(ctx, campusID, exec)
		if err != nil {
			return report, err
		}

		var offset int64
		if !opts.All {
			if offset, err = svc.maxExpenseFolio(ctx, campusID, exec); err != nil {
				return report, err
			}
		}

		var last int64
		monthMax := make(map[string]int64)
		for i, exp := range group {
			last = offset + int64(i) + 1
			monthMax[Period(exp.ExpenseDate, svc.alloc.loc)] = last
			change := ReassignChange{
				ExpenseID:   exp.ID,
				CampusID:    campusID,
				ExpenseDate: exp.ExpenseDate,
				OldFolio:    exp.Folio,
				OldPrefix:   exp.FolioPrefix,
				NewFolio:    last,
				NewPrefix:   prefix,
			}
			change.Changed = !exp.Folio.Valid || exp.Folio.Int64 != last ||
				!exp.FolioPrefix.Valid || exp.FolioPrefix.String != prefix

			report.Processed++
			if change.Changed {
				report.Updated++
				if !opts.DryRun {
					if err := svc.expRepo.UpdateExpenseFolio(ctx, exp.ID, last, prefix, exec); err != nil {
						return report, errors.Wrapf(err, "saving expense %s", exp.ID)
					}
				}
			}
			report.Changes = append(report.Changes, change)
		}

		// the live allocator continues after the batch
		if !opts.DryRun {
			if err := svc.alloc.seqs.ResetValue(ctx, ExpenseKey(campusID), last, exec); err != nil {
				return report, errors.Wrap(err, "resetting expense folio sequence")
			}
			for period, top := range monthMax {
				key := SequenceKey{CampusID: campusID, Series: SeriesExpenseMonthly, Period: period}
				if err := svc.alloc.seqs.ResetValue(ctx, key, top, exec); err != nil {
					return report, errors.Wrap(err, "resetting monthly expense folio sequence")
				}
			}
		}
	}
	return report, nil
}

func (svc *Service) maxExpenseFolio(ctx context.Context, campusID int64, exec core.DBExecutor) (int64, error) {
	numbered, err := svc.expRepo.QueryExpenses(ctx, ExpenseFilter{CampusID: campusID, HasFolio: true}, nil, exec)
	if err != nil {
		return 0, errors.Wrap(err, "querying numbered expenses")
	}
	var max int64
	for _, exp := range numbered {
		if exp.Folio.Valid && exp.Folio.Int64 > max {
			max = exp.Folio.Int64
		}
	}
	return max, nil
}

// groupByCampus splits campus-sorted expenses into one slice per campus, keeping their order.
func groupByCampus(expenses []Expense) [][]Expense {
	var groups [][]Expense
	for i := 0; i < len(expenses); {
		j := i + 1
		for j < len(expenses) && expenses[j].CampusID == expenses[i].CampusID {
			j++
		}
		groups = append(groups, expenses[i:j])
		i = j
	}
	return groups
}
