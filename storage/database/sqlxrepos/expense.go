package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/folio"
)

type expenseRepository struct {
	base
}

var _ folio.ExpenseRepository = (*expenseRepository)(nil) // interface compliance check

func NewExpenseRepository(exec core.DBExecutor) *expenseRepository {
	return &expenseRepository{base{exec: exec}}
}

const expenseColumns = `id, campus_id, category, concept, amount, payment_method, expense_date, folio, folio_prefix, created_at`

var expenseOrderFields = map[string]bool{
	"campus_id":    true,
	"expense_date": true,
	"created_at":   true,
	"id":           true,
}

type expenseRow struct {
	ID            string          `db:"id"`
	CampusID      int64           `db:"campus_id"`
	Category      string          `db:"category"`
	Concept       string          `db:"concept"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod string          `db:"payment_method"`
	ExpenseDate   time.Time       `db:"expense_date"`
	Folio         null.String     `db:"folio"`
	FolioPrefix   null.String     `db:"folio_prefix"`
	CreatedAt     time.Time       `db:"created_at"`
}

func boilExpense(e folio.Expense) expenseRow {
	return expenseRow{
		ID:            e.ID,
		CampusID:      e.CampusID,
		Category:      e.Category,
		Concept:       e.Concept,
		Amount:        e.Amount,
		PaymentMethod: string(e.PaymentMethod),
		ExpenseDate:   e.ExpenseDate.UTC(),
		Folio:         folioText(e.Folio),
		FolioPrefix:   e.FolioPrefix,
		CreatedAt:     e.CreatedAt.UTC(),
	}
}

func (r expenseRow) unboil() folio.Expense {
	return folio.Expense{
		ID:            r.ID,
		CampusID:      r.CampusID,
		Category:      r.Category,
		Concept:       r.Concept,
		Amount:        r.Amount,
		PaymentMethod: folio.CanonicalPaymentMethod(r.PaymentMethod),
		ExpenseDate:   r.ExpenseDate.UTC(),
		Folio:         parseFolioText(r.Folio),
		FolioPrefix:   r.FolioPrefix,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (repo expenseRepository) CreateExpense(ctx context.Context, e folio.Expense, exec ...core.DBExecutor) (folio.Expense, error) {
	ex := repo.getExec(exec)
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = folio.PaymentCash
	}
	row := boilExpense(e)
	q := `INSERT INTO expenses (` + expenseColumns + `) VALUES (
		:id, :campus_id, :category, :concept, :amount, :payment_method, :expense_date, :folio, :folio_prefix, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, row); err != nil {
		return folio.Expense{}, errors.Wrap(err, "inserting expense")
	}
	return row.unboil(), nil
}

func (repo expenseRepository) GetExpense(ctx context.Context, id string, exec ...core.DBExecutor) (folio.Expense, error) {
	ex := repo.getExec(exec)
	if _, err := uuid.Parse(id); err != nil {
		return folio.Expense{}, folio.ErrExpenseNotFound
	}
	var row expenseRow
	q := ex.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ex, &row, q, id); err != nil {
		return folio.Expense{}, trapNoRowsErr(err, folio.ErrExpenseNotFound, "getting expense")
	}
	return row.unboil(), nil
}

// QueryExpenses applies the folio filters after reading, since stored folios are parsed leniently.
func (repo expenseRepository) QueryExpenses(ctx context.Context, filter folio.ExpenseFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]folio.Expense, error) {
	ex := repo.getExec(exec)

	q := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []interface{}
	if filter.CampusID != 0 {
		q += ` WHERE campus_id = ?`
		args = append(args, filter.CampusID)
	}
	q += orderBy(ordering, expenseOrderFields)

	var rows []expenseRow
	if err := sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying expenses")
	}

	expenses := make([]folio.Expense, 0, len(rows))
	for _, r := range rows {
		e := r.unboil()
		if filter.MissingFolio && e.Folio.Valid {
			continue
		}
		if filter.HasFolio && !e.Folio.Valid {
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (repo expenseRepository) UpdateExpenseFolio(ctx context.Context, id string, folioNum int64, prefix string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := ex.Rebind(`UPDATE expenses SET folio = ?, folio_prefix = ? WHERE id = ?`)
	res, err := ex.ExecContext(ctx, q, folioText(null.Int64From(folioNum)), prefix, id)
	if err != nil {
		return errors.Wrap(err, "updating expense folio")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating expense folio")
	}
	if n == 0 {
		return folio.ErrExpenseNotFound
	}
	return nil
}
