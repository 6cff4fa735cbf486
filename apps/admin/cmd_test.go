package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	logsvc "github.com/kampus/backend/services/logger"
	"github.com/kampus/backend/storage/database/sqlxrepos"
	"github.com/kampus/backend/tests"
)

var (
	campusRepo campus.Repository
	expRepo    folio.ExpenseRepository
)

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	campusRepo = sqlxrepos.NewCampusRepository(db)
	expRepo = sqlxrepos.NewExpenseRepository(db)

	// set up services
	logger := logsvc.NewDiscardLogger()
	campusSvc := campus.NewService(campusRepo)
	alloc := folio.NewAllocator(campusSvc, campusSvc, sqlxrepos.NewSequenceRepository(db, nil), nil, nil)
	folioSvc := folio.NewService(db, alloc, sqlxrepos.NewTransactionRepository(db), expRepo, logger)

	return &commandLine{
		db:        db,
		engine:    core.EngineSQLite,
		campusSvc: campusSvc,
		folioSvc:  folioSvc,
		logger:    logger,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	stdin      string
	terminal   bool
	wantErr    error
	wantErrStr string
	wantOut    []string
}

// fdReader is stdin with a file descriptor, so isTerminal decides whether it is a TTY.
type fdReader struct {
	*strings.Reader
	fd uintptr
}

func (r fdReader) Fd() uintptr { return r.fd }

// run executes args against a fresh root command, returning stdout & stderr.
func run(cli *commandLine, tt cliTest) (string, string, error) {
	isTerminal = func(int) bool { return tt.terminal }

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(cli)
	cmd.SetArgs(tt.args)
	cmd.SetIn(fdReader{Reader: strings.NewReader(tt.stdin)})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_inputIsTerminal(t *testing.T) {
	var gotFd int
	isTerminal = func(fd int) bool {
		gotFd = fd
		return fd == 7
	}

	assert.True(t, inputIsTerminal(fdReader{Reader: strings.NewReader(""), fd: 7}))
	assert.Equal(t, 7, gotFd)
	assert.False(t, inputIsTerminal(fdReader{Reader: strings.NewReader(""), fd: 3}))
	assert.Equal(t, 3, gotFd)

	// plain readers are never terminals
	gotFd = -1
	assert.False(t, inputIsTerminal(strings.NewReader("y\n")))
	assert.Equal(t, -1, gotFd)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sql.DB, engine, command string, args ...string) error {
		if engine != core.EngineSQLite {
			return fmt.Errorf("unexpected engine %q", engine)
		}
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s)"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(cli, tt)
			checkErr(t, tt, err)
		})
	}
}

func Test_commandLine_addcampus(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no name", args: []string{"addcampus"}, wantErrStr: `required flag(s) "name" not set`},
		{name: "blank name", args: []string{"addcampus", "--name", "  "}, wantErrStr: "name: this field is required"},
		{name: "campus", args: []string{"addcampus", "--name", "Saltillo"}, wantOut: []string{"campus 1 created: Saltillo (folio letter S)"}},
		{name: "card", args: []string{"addcard", "--name", "SAT", "--sat"}, wantOut: []string{"card 1 created: SAT (tax exempt: true)"}},
		{name: "plain card", args: []string{"addcard", "--name", "Bank"}, wantOut: []string{"card 2 created: Bank (tax exempt: false)"}},
		{name: "list", args: []string{"campuses"}, wantOut: []string{"LETTER", "Saltillo", "true"}},
		{name: "list args", args: []string{"campuses", "x"}, wantErrStr: `unknown command "x" for "admin campuses"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(cli, tt)
			checkErr(t, tt, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func Test_commandLine_reassignExpenseFolios(t *testing.T) {
	cli := setup(t)

	saltillo := testutil.CreateCampus(t, campusRepo, "Saltillo")
	e1 := testutil.CreateExpense(t, expRepo, saltillo.ID, testutil.Date(2024, 1, 5), null.Int64{}, null.String{})
	e2 := testutil.CreateExpense(t, expRepo, saltillo.ID, testutil.Date(2024, 1, 2), null.Int64From(8), null.StringFrom("SG-"))
	campusFlag := "--campus_id=" + strconv.FormatInt(saltillo.ID, 10)

	folioOf := func(t *testing.T, id string) null.Int64 {
		exp, err := expRepo.GetExpense(context.Background(), id)
		require.NoError(t, err)
		return exp.Folio
	}

	tests := []struct {
		cliTest
		wantE1 null.Int64
		wantE2 null.Int64
	}{
		{
			cliTest: cliTest{name: "invalid campus", args: []string{"reassign-expense-folios", "--campus_id=404"}, wantErr: campus.ErrCampusNotFound},
			wantE2:  null.Int64From(8),
		},
		{
			cliTest: cliTest{
				name:    "dry run",
				args:    []string{"reassign-expense-folios", campusFlag, "--all", "--dry-run"},
				wantOut: []string{"2 processed, 2 to update", "dry run: nothing was saved"},
			},
			wantE2: null.Int64From(8),
		},
		{
			cliTest: cliTest{
				name:    "not a terminal",
				args:    []string{"reassign-expense-folios", campusFlag, "--all"},
				wantErr: errConfirmationRequired,
			},
			wantE2: null.Int64From(8),
		},
		{
			cliTest: cliTest{
				name:     "declined",
				args:     []string{"reassign-expense-folios", campusFlag, "--all"},
				terminal: true,
				stdin:    "n\n",
				wantErr:  errDeclined,
				wantOut:  []string{"Save 2 folio changes? [y/N]: ", "cancelled: nothing was saved"},
			},
			wantE2: null.Int64From(8),
		},
		{
			cliTest: cliTest{
				name:     "only missing, confirmed",
				args:     []string{"reassign-expense-folios"},
				terminal: true,
				stdin:    "yes\n",
				wantOut:  []string{"saved: 1 processed, 1 updated"},
			},
			wantE1: null.Int64From(9),
			wantE2: null.Int64From(8),
		},
		{
			cliTest: cliTest{
				name:    "all, --yes",
				args:    []string{"reassign-expense-folios", campusFlag, "--all", "--yes"},
				wantOut: []string{"saved: 2 processed, 2 updated"},
			},
			wantE1: null.Int64From(2),
			wantE2: null.Int64From(1),
		},
		{
			cliTest: cliTest{
				name:    "nothing to do",
				args:    []string{"reassign-expense-folios", campusFlag, "--all"},
				wantOut: []string{"nothing to update"},
			},
			wantE1: null.Int64From(2),
			wantE2: null.Int64From(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(cli, tt.cliTest)
			checkErr(t, tt.cliTest, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			assert.Equal(t, tt.wantE1, folioOf(t, e1.ID))
			assert.Equal(t, tt.wantE2, folioOf(t, e2.ID))
		})
	}
}
