// Package testutil sets up migrated test databases & fixtures.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	"github.com/kampus/backend/storage/database"
)

// NewConfig is a TEST config backed by a sqlite file in dir.
func NewConfig(dir string) *core.Config {
	return &core.Config{
		Env:      "TEST",
		AppName:  "Kampus",
		TestMode: true,
		WorkDir:  dir,
		Server: core.ServerConfig{
			Host:            "localhost",
			Port:            8000,
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Database: core.DatabaseConfig{
			Engine: core.EngineSQLite,
			Path:   filepath.Join(dir, "kampus_test.db"),
		},
	}
}

// PrepareDB opens a fresh migrated database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conf := NewConfig(t.TempDir())
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// Date is midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func CreateCampus(t *testing.T, repo campus.Repository, name string) campus.Campus {
	t.Helper()
	c, err := repo.CreateCampus(context.Background(), campus.Campus{
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCampus() failed: %v", err)
	}
	return c
}

func CreateCard(t *testing.T, repo campus.Repository, name string, sat bool) campus.Card {
	t.Helper()
	c, err := repo.CreateCard(context.Background(), campus.Card{Name: name, Sat: sat, IsActive: true})
	if err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}
	return c
}

// CreateExpense inserts an expense as is: folio is stored verbatim, no allocation happens.
func CreateExpense(
	t *testing.T,
	repo folio.ExpenseRepository,
	campusID int64,
	date time.Time,
	folioNum null.Int64,
	prefix null.String,
) folio.Expense {
	t.Helper()
	exp, err := repo.CreateExpense(context.Background(), folio.Expense{
		CampusID:      campusID,
		Category:      "supplies",
		Concept:       "test expense",
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: folio.PaymentCash,
		ExpenseDate:   date.UTC(),
		Folio:         folioNum,
		FolioPrefix:   prefix,
	})
	if err != nil {
		t.Fatalf("CreateExpense() failed: %v", err)
	}
	return exp
}

// CreateTransaction inserts trx as is, filling the fields a fixture does not care about.
func CreateTransaction(t *testing.T, repo folio.TransactionRepository, trx folio.Transaction) folio.Transaction {
	t.Helper()
	if trx.Amount.IsZero() {
		trx.Amount = decimal.NewFromInt(100)
	}
	if trx.PaymentMethod == "" {
		trx.PaymentMethod = folio.PaymentCash
	}
	if trx.Concept == "" {
		trx.Concept = "test payment"
	}
	trx, err := repo.CreateTransaction(context.Background(), trx)
	if err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}
	return trx
}

// ExecRaw runs a statement directly, eg. to store a hand-edited folio.
func ExecRaw(t *testing.T, db *sqlx.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(db.Rebind(query), args...); err != nil {
		t.Fatalf("ExecRaw() failed: %v", err)
	}
}
