package folio

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrExpenseNotFound     = errors.New("expense not found")
)

type (
	TransactionRepository interface {
		CreateTransaction(ctx context.Context, t Transaction, exec ...core.DBExecutor) (Transaction, error)
		GetTransaction(ctx context.Context, id string, exec ...core.DBExecutor) (Transaction, error)
	}

	ExpenseRepository interface {
		CreateExpense(ctx context.Context, e Expense, exec ...core.DBExecutor) (Expense, error)
		GetExpense(ctx context.Context, id string, exec ...core.DBExecutor) (Expense, error)
		QueryExpenses(ctx context.Context, filter ExpenseFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Expense, error)
		UpdateExpenseFolio(ctx context.Context, id string, folio int64, prefix string, exec ...core.DBExecutor) error
	}

	// Service records financial records with their folios.
	Service struct {
		db      core.DB
		alloc   *Allocator
		trxRepo TransactionRepository
		expRepo ExpenseRepository
		logger  core.Logger
	}

	// RecordedTransaction pairs a transaction with its display folio.
	RecordedTransaction struct {
		Transaction
		Display string `json:"folio_display"`
	}

	RecordedExpense struct {
		Expense
		Display string `json:"folio_display"`
	}
)

func NewService(db core.DB, alloc *Allocator, trxRepo TransactionRepository, expRepo ExpenseRepository, logger core.Logger) *Service {
	return &Service{
		db:      db,
		alloc:   alloc,
		trxRepo: trxRepo,
		expRepo: expRepo,
		logger:  logger,
	}
}

func (svc *Service) Allocator() *Allocator {
	return svc.alloc
}

// RecordTransaction stores a payment, reserving its folios in the same DB transaction as the insert.
// nt must have been validated.
func (svc *Service) RecordTransaction(ctx context.Context, nt NewTransaction) (RecordedTransaction, error) {
	now := time.Now().UTC()
	trx := Transaction{
		CampusID:      nt.CampusID,
		Concept:       nt.Concept,
		Amount:        nt.Amount,
		PaymentMethod: CanonicalPaymentMethod(nt.PaymentMethod),
		CardID:        nt.CardID,
		PaidAt:        nt.PaidAt.UTC(),
		CreatedAt:     now,
	}

	var rec RecordedTransaction
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		specific, err := svc.alloc.ShouldAssignSpecificFolio(ctx, trx.PaymentMethod, trx.CardID, tx)
		if err != nil {
			return err
		}
		if specific {
			mf, err := svc.alloc.NextPaymentMethodFolio(ctx, trx.CampusID, trx.PaymentMethod, trx.CardID, trx.PaidAt, tx)
			if err != nil {
				return err
			}
			if mf != nil {
				trx.SetColumnValue(mf.Column, mf.Value)
			}
		}

		prefix, ok, err := svc.alloc.BuildFolioPrefix(ctx, trx.CampusID, trx.PaymentMethod, trx.CardID, trx.PaidAt, tx)
		if err != nil {
			return err
		}
		if ok {
			n, err := svc.alloc.NextMonthlyFolio(ctx, trx.CampusID, KindTransaction, trx.PaidAt, tx)
			if err != nil {
				return err
			}
			trx.FolioNew = null.Int64From(n)
			trx.FolioPrefix = null.StringFrom(prefix)
		}

		created, err := svc.trxRepo.CreateTransaction(ctx, trx, tx)
		if err != nil {
			return err
		}
		display, err := svc.alloc.DisplayFolio(ctx, created, tx)
		if err != nil {
			return err
		}
		rec = RecordedTransaction{Transaction: created, Display: display}
		return nil
	})
	if err != nil {
		return RecordedTransaction{}, errors.Wrap(err, "recording transaction")
	}

	svc.logger.Debug("transaction recorded", map[string]interface{}{
		"id":        rec.ID,
		"campus_id": rec.CampusID,
		"method":    rec.PaymentMethod,
		"folio":     rec.Display,
	})
	return rec, nil
}

// RecordExpense stores an expense with the next campus-lifetime expense folio.
// ne must have been validated.
func (svc *Service) RecordExpense(ctx context.Context, ne NewExpense) (RecordedExpense, error) {
	exp := Expense{
		CampusID:      ne.CampusID,
		Category:      ne.Category,
		Concept:       ne.Concept,
		Amount:        ne.Amount,
		PaymentMethod: CanonicalPaymentMethod(ne.PaymentMethod),
		ExpenseDate:   ne.ExpenseDate.UTC(),
		CreatedAt:     time.Now().UTC(),
	}
	if ne.PaymentMethod == "" {
		exp.PaymentMethod = PaymentCash
	}

	var rec RecordedExpense
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		prefix, err := svc.alloc.GenerateExpenseFolioPrefix(ctx, exp.CampusID, tx)
		if err != nil {
			return err
		}
		n, err := svc.alloc.NextExpenseFolio(ctx, exp.CampusID, tx)
		if err != nil {
			return err
		}
		exp.Folio = null.Int64From(n)
		exp.FolioPrefix = null.StringFrom(prefix)

		created, err := svc.expRepo.CreateExpense(ctx, exp, tx)
		if err != nil {
			return err
		}
		display, err := svc.alloc.DisplayExpenseFolio(ctx, created, tx)
		if err != nil {
			return err
		}
		rec = RecordedExpense{Expense: created, Display: display}
		return nil
	})
	if err != nil {
		return RecordedExpense{}, errors.Wrap(err, "recording expense")
	}

	svc.logger.Debug("expense recorded", map[string]interface{}{
		"id":        rec.ID,
		"campus_id": rec.CampusID,
		"folio":     rec.Display,
	})
	return rec, nil
}

func (svc *Service) GetTransaction(ctx context.Context, id string) (RecordedTransaction, error) {
	trx, err := svc.trxRepo.GetTransaction(ctx, id)
	if err != nil {
		return RecordedTransaction{}, err
	}
	display, err := svc.alloc.DisplayFolio(ctx, trx)
	if err != nil {
		return RecordedTransaction{}, err
	}
	return RecordedTransaction{Transaction: trx, Display: display}, nil
}

func (svc *Service) GetExpense(ctx context.Context, id string) (RecordedExpense, error) {
	exp, err := svc.expRepo.GetExpense(ctx, id)
	if err != nil {
		return RecordedExpense{}, err
	}
	display, err := svc.alloc.DisplayExpenseFolio(ctx, exp)
	if err != nil {
		return RecordedExpense{}, err
	}
	return RecordedExpense{Expense: exp, Display: display}, nil
}

// QueryExpenses lists expenses with their display folios, oldest first unless ordering says otherwise.
func (svc *Service) QueryExpenses(ctx context.Context, filter ExpenseFilter, ordering []core.DBOrdering) ([]RecordedExpense, error) {
	if len(ordering) == 0 {
		ordering = expenseOrdering
	}
	exps, err := svc.expRepo.QueryExpenses(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	recs := make([]RecordedExpense, 0, len(exps))
	for _, exp := range exps {
		display, err := svc.alloc.DisplayExpenseFolio(ctx, exp)
		if err != nil {
			return nil, err
		}
		recs = append(recs, RecordedExpense{Expense: exp, Display: display})
	}
	return recs, nil
}
