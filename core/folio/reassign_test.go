package folio_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	"github.com/kampus/backend/tests"
)

func TestService_ReassignExpenseFolios(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	saltillo := testutil.CreateCampus(t, env.campusRepo, "Saltillo")
	other := testutil.CreateCampus(t, env.campusRepo, "Oaxaca")

	jan5 := testutil.CreateExpense(t, env.expRepo, saltillo.ID, testutil.Date(2024, 1, 5), null.Int64From(9), null.StringFrom("XX-"))
	jan2 := testutil.CreateExpense(t, env.expRepo, saltillo.ID, testutil.Date(2024, 1, 2), null.Int64{}, null.String{})
	jan9 := testutil.CreateExpense(t, env.expRepo, saltillo.ID, testutil.Date(2024, 1, 9), null.Int64From(3), null.StringFrom("SG-"))
	oax := testutil.CreateExpense(t, env.expRepo, other.ID, testutil.Date(2023, 12, 1), null.Int64From(1), null.StringFrom("OG-"))

	opts := folio.ReassignOptions{CampusID: saltillo.ID, All: true, DryRun: true}
	dry, err := env.svc.ReassignExpenseFolios(ctx, opts)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 3, dry.Processed)
	assert.Equal(t, 2, dry.Updated) // jan9 already holds SG-3
	require.Len(t, dry.Changes, 3)

	want := []struct {
		id      string
		folio   int64
		changed bool
	}{{jan2.ID, 1, true}, {jan5.ID, 2, true}, {jan9.ID, 3, false}}
	for i, w := range want {
		assert.Equal(t, w.id, dry.Changes[i].ExpenseID)
		assert.Equal(t, w.folio, dry.Changes[i].NewFolio)
		assert.Equal(t, "SG-", dry.Changes[i].NewPrefix)
		assert.Equal(t, w.changed, dry.Changes[i].Changed)
	}

	// dry run persisted nothing
	got, err := env.expRepo.GetExpense(ctx, jan5.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Int64From(9), got.Folio)
	assert.Equal(t, null.StringFrom("XX-"), got.FolioPrefix)

	opts.DryRun = false
	report, err := env.svc.ReassignExpenseFolios(ctx, opts)
	require.NoError(t, err)
	assert.False(t, report.DryRun)
	assert.Equal(t, dry.Processed, report.Processed)
	assert.Equal(t, dry.Updated, report.Updated)
	assert.Equal(t, dry.Changes, report.Changes)

	for _, w := range want {
		got, err := env.expRepo.GetExpense(ctx, w.id)
		require.NoError(t, err)
		assert.Equal(t, null.Int64From(w.folio), got.Folio)
		assert.Equal(t, null.StringFrom("SG-"), got.FolioPrefix)
	}

	// other campuses are untouched
	got, err = env.expRepo.GetExpense(ctx, oax.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Int64From(1), got.Folio)

	// rerunning is a no-op
	again, err := env.svc.ReassignExpenseFolios(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Processed)
	assert.Equal(t, 0, again.Updated)

	// the live allocator continues after the batch
	rec, err := env.svc.RecordExpense(ctx, folio.NewExpense{
		CampusID:    saltillo.ID,
		Amount:      jan5.Amount,
		ExpenseDate: testutil.Date(2024, 2, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "SG-4", rec.Display)

	// so does the monthly expense series of the renumbered month
	monthly, err := env.svc.Allocator().NextMonthlyFolio(ctx, saltillo.ID, folio.KindExpense, testutil.Date(2024, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(4), monthly)
}

func TestService_ReassignExpenseFolios_onlyMissing(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	c := testutil.CreateCampus(t, env.campusRepo, "Puebla")

	testutil.CreateExpense(t, env.expRepo, c.ID, testutil.Date(2024, 3, 1), null.Int64From(5), null.StringFrom("PG-"))
	b := testutil.CreateExpense(t, env.expRepo, c.ID, testutil.Date(2024, 3, 4), null.Int64{}, null.String{})
	a := testutil.CreateExpense(t, env.expRepo, c.ID, testutil.Date(2024, 3, 2), null.Int64{}, null.String{})

	report, err := env.svc.ReassignExpenseFolios(ctx, folio.ReassignOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Updated)

	for id, want := range map[string]int64{a.ID: 6, b.ID: 7} {
		got, err := env.expRepo.GetExpense(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, null.Int64From(want), got.Folio)
		assert.Equal(t, null.StringFrom("PG-"), got.FolioPrefix)
	}

	// nothing left to number
	report, err = env.svc.ReassignExpenseFolios(ctx, folio.ReassignOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Empty(t, report.Changes)
}

func TestService_ReassignExpenseFolios_invalidCampus(t *testing.T) {
	env := setup(t)

	_, err := env.svc.ReassignExpenseFolios(context.Background(), folio.ReassignOptions{CampusID: 404})
	assert.Equal(t, campus.ErrCampusNotFound, errors.Cause(err))
}
