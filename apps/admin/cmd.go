package main

import (
	"io"
	"os"
	"os/user"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	"github.com/kampus/backend/storage/database"
)

var (
	isTerminal   = term.IsTerminal        // mockable
	gooseRunFunc = database.RunMigrations // mockable

	errDeclined             = errors.New("operation cancelled")
	errConfirmationRequired = errors.New("confirmation required: stdin is not a terminal, pass --yes to proceed")
)

// inputIsTerminal reports whether in is an interactive terminal; readers without a file descriptor never are.
func inputIsTerminal(in io.Reader) bool {
	f, ok := in.(interface{ Fd() uintptr })
	return ok && isTerminal(int(f.Fd()))
}

type commandLine struct {
	db        *sqlx.DB
	engine    string
	campusSvc *campus.Service
	folioSvc  *folio.Service
	logger    core.Logger
}

func newRootCommand(cli *commandLine) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "Kampus administration commands",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		cli.newMigrateCommand(),
		cli.newAddCampusCommand(),
		cli.newAddCardCommand(),
		cli.newCampusesCommand(),
		cli.newReassignExpenseFoliosCommand(),
	)
	return rootCmd
}

// operator is the OS user running the command, for audit logs.
func operator() core.Actor {
	if u, err := user.Current(); err == nil {
		return core.Actor{ID: u.Uid, Name: u.Username}
	}
	return core.Actor{Name: os.Getenv("USER")}
}
