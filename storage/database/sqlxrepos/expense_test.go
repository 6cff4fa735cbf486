package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	"github.com/kampus/backend/tests"
)

func TestExpenseRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	campusRepo := NewCampusRepository(db)
	repo := NewExpenseRepository(db)

	a := testutil.CreateCampus(t, campusRepo, "Acapulco")
	b := testutil.CreateCampus(t, campusRepo, "Bacalar")

	e1 := testutil.CreateExpense(t, repo, a.ID, testutil.Date(2024, 1, 9), null.Int64From(2), null.StringFrom("AG-"))
	e2 := testutil.CreateExpense(t, repo, a.ID, testutil.Date(2024, 1, 2), null.Int64{}, null.String{})
	e3 := testutil.CreateExpense(t, repo, b.ID, testutil.Date(2024, 1, 1), null.Int64From(1), null.String{})
	testutil.ExecRaw(t, db, `UPDATE expenses SET folio = ? WHERE id = ?`, "n/a", e3.ID)

	got, err := repo.GetExpense(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1.ID, got.ID)
	assert.Equal(t, null.Int64From(2), got.Folio)
	assert.True(t, testutil.Date(2024, 1, 9).Equal(got.ExpenseDate), "expense_date = %v", got.ExpenseDate)

	ids := func(exps []folio.Expense) []string {
		out := make([]string, 0, len(exps))
		for _, e := range exps {
			out = append(out, e.ID)
		}
		return out
	}
	byDate := []core.DBOrdering{{Field: "expense_date", Ascending: true}}

	tests := []struct {
		name     string
		filter   folio.ExpenseFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all by date", ordering: byDate, want: []string{e3.ID, e2.ID, e1.ID}},
		{name: "campus", filter: folio.ExpenseFilter{CampusID: a.ID}, ordering: byDate, want: []string{e2.ID, e1.ID}},
		{name: "missing folio", filter: folio.ExpenseFilter{MissingFolio: true}, ordering: byDate, want: []string{e3.ID, e2.ID}},
		{name: "has folio", filter: folio.ExpenseFilter{HasFolio: true}, ordering: byDate, want: []string{e1.ID}},
		{
			name:     "descending, unknown fields ignored",
			filter:   folio.ExpenseFilter{CampusID: a.ID},
			ordering: []core.DBOrdering{{Field: "1; DROP TABLE expenses"}, {Field: "expense_date"}},
			want:     []string{e1.ID, e2.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exps, err := repo.QueryExpenses(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(exps))
		})
	}

	require.NoError(t, repo.UpdateExpenseFolio(ctx, e2.ID, 1, "AG-"))
	got, err = repo.GetExpense(ctx, e2.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Int64From(1), got.Folio)
	assert.Equal(t, null.StringFrom("AG-"), got.FolioPrefix)

	assert.Equal(t, folio.ErrExpenseNotFound, repo.UpdateExpenseFolio(ctx, "nope", 1, "AG-"))
	_, err = repo.GetExpense(ctx, "nope")
	assert.Equal(t, folio.ErrExpenseNotFound, err)
}

func TestCampusRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewCampusRepository(db)

	c := testutil.CreateCampus(t, repo, "Zacatecas")
	got, err := repo.GetCampus(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zacatecas", got.Name)
	assert.True(t, got.IsActive)

	_, err = repo.GetCampus(ctx, c.ID+1)
	assert.Equal(t, campus.ErrCampusNotFound, err)

	card := testutil.CreateCard(t, repo, "SAT", true)
	gotCard, err := repo.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, gotCard.Sat)

	_, err = repo.GetCard(ctx, card.ID+1)
	assert.Equal(t, campus.ErrCardNotFound, err)

	all, err := repo.QueryCampuses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
