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

type transactionRepository struct {
	base
}

var _ folio.TransactionRepository = (*transactionRepository)(nil) // interface compliance check

func NewTransactionRepository(exec core.DBExecutor) *transactionRepository {
	return &transactionRepository{base{exec: exec}}
}

const transactionColumns = `id, campus_id, concept, amount, payment_method, card_id, paid_at,
	folio_new, folio_prefix, folio_cash, folio_transfer, folio_card, created_at`

type transactionRow struct {
	ID            string          `db:"id"`
	CampusID      int64           `db:"campus_id"`
	Concept       string          `db:"concept"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod string          `db:"payment_method"`
	CardID        null.Int64      `db:"card_id"`
	PaidAt        time.Time       `db:"paid_at"`
	FolioNew      null.String     `db:"folio_new"`
	FolioPrefix   null.String     `db:"folio_prefix"`
	FolioCash     null.String     `db:"folio_cash"`
	FolioTransfer null.String     `db:"folio_transfer"`
	FolioCard     null.String     `db:"folio_card"`
	CreatedAt     time.Time       `db:"created_at"`
}

func boilTransaction(t folio.Transaction) transactionRow {
	return transactionRow{
		ID:            t.ID,
		CampusID:      t.CampusID,
		Concept:       t.Concept,
		Amount:        t.Amount,
		PaymentMethod: string(t.PaymentMethod),
		CardID:        t.CardID,
		PaidAt:        t.PaidAt.UTC(),
		FolioNew:      folioText(t.FolioNew),
		FolioPrefix:   t.FolioPrefix,
		FolioCash:     folioText(t.FolioCash),
		FolioTransfer: folioText(t.FolioTransfer),
		FolioCard:     folioText(t.FolioCard),
		CreatedAt:     t.CreatedAt.UTC(),
	}
}

func (r transactionRow) unboil() folio.Transaction {
	return folio.Transaction{
		ID:            r.ID,
		CampusID:      r.CampusID,
		Concept:       r.Concept,
		Amount:        r.Amount,
		PaymentMethod: folio.CanonicalPaymentMethod(r.PaymentMethod),
		CardID:        r.CardID,
		PaidAt:        r.PaidAt.UTC(),
		FolioNew:      parseFolioText(r.FolioNew),
		FolioPrefix:   r.FolioPrefix,
		FolioCash:     parseFolioText(r.FolioCash),
		FolioTransfer: parseFolioText(r.FolioTransfer),
		FolioCard:     parseFolioText(r.FolioCard),
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (repo transactionRepository) CreateTransaction(ctx context.Context, t folio.Transaction, exec ...core.DBExecutor) (folio.Transaction, error) {
	ex := repo.getExec(exec)
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	row := boilTransaction(t)
	q := `INSERT INTO transactions (` + transactionColumns + `) VALUES (
		:id, :campus_id, :concept, :amount, :payment_method, :card_id, :paid_at,
		:folio_new, :folio_prefix, :folio_cash, :folio_transfer, :folio_card, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, row); err != nil {
		return folio.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return row.unboil(), nil
}

func (repo transactionRepository) GetTransaction(ctx context.Context, id string, exec ...core.DBExecutor) (folio.Transaction, error) {
	ex := repo.getExec(exec)
	if _, err := uuid.Parse(id); err != nil {
		return folio.Transaction{}, folio.ErrTransactionNotFound
	}
	var row transactionRow
	q := ex.Rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ex, &row, q, id); err != nil {
		return folio.Transaction{}, trapNoRowsErr(err, folio.ErrTransactionNotFound, "getting transaction")
	}
	return row.unboil(), nil
}
