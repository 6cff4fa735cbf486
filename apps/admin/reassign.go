package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
)

func (cli *commandLine) newReassignExpenseFoliosCommand() *cobra.Command {
	var opts folio.ReassignOptions
	var yes bool

	cmd := &cobra.Command{
		Use:   "reassign-expense-folios",
		Short: "Renumber expense folios 1, 2, 3... per campus in expense date order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.reassignExpenseFolios(cmd, opts, yes)
		},
	}

	cmd.Flags().Int64Var(&opts.CampusID, "campus_id", 0, "only renumber this campus's expenses")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show the changes without saving them")
	cmd.Flags().BoolVar(&opts.All, "all", false, "also renumber expenses that already have a folio")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (cli *commandLine) reassignExpenseFolios(cmd *cobra.Command, opts folio.ReassignOptions, yes bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	actor := operator()

	if opts.CampusID != 0 {
		if _, err := cli.campusSvc.GetCampus(ctx, opts.CampusID); err != nil {
			if errors.Cause(err) == campus.ErrCampusNotFound {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: campus %d not found\n", opts.CampusID)
			}
			cli.logger.Error("reassign-expense-folios: invalid campus", err, actor)
			return err
		}
	}

	// always preview first; the real run recomputes inside its own transaction
	preview := opts
	preview.DryRun = true
	report, err := cli.folioSvc.ReassignExpenseFolios(ctx, preview)
	if err != nil {
		cli.logger.Error("reassign-expense-folios: preview failed", err, actor)
		return err
	}
	printReassignReport(out, report)

	if opts.DryRun {
		fmt.Fprintln(out, "dry run: nothing was saved")
		return nil
	}
	if report.Updated == 0 {
		fmt.Fprintln(out, "nothing to update")
		return nil
	}

	if !yes {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Save %d folio changes?", report.Updated))
		if err != nil {
			cli.logger.Error("reassign-expense-folios: confirmation", err, actor)
			return err
		}
		if !ok {
			fmt.Fprintln(out, "cancelled: nothing was saved")
			return errDeclined
		}
	}

	report, err = cli.folioSvc.ReassignExpenseFolios(ctx, opts)
	if err != nil {
		cli.logger.Error("reassign-expense-folios failed", err, actor)
		return err
	}
	fmt.Fprintf(out, "saved: %d processed, %d updated\n", report.Processed, report.Updated)
	cli.logger.Info("reassign-expense-folios saved", map[string]interface{}{
		"campus_id": opts.CampusID,
		"all":       opts.All,
		"processed": report.Processed,
		"updated":   report.Updated,
	}, actor)
	return nil
}

func printReassignReport(w io.Writer, report folio.ReassignReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CAMPUS\tEXPENSE\tDATE\tOLD\tNEW\t")
	for _, c := range report.Changes {
		if !c.Changed {
			continue
		}
		old := "-"
		if c.OldFolio.Valid {
			old = c.OldPrefix.String + fmt.Sprint(c.OldFolio.Int64)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s%d\t\n",
			c.CampusID, c.ExpenseID, c.ExpenseDate.Format("2006-01-02"), old, c.NewPrefix, c.NewFolio)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d processed, %d to update\n", report.Processed, report.Updated)
}

// confirm asks a yes/no question on a terminal; anything but y|yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if !inputIsTerminal(in) {
		return false, errConfirmationRequired
	}
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "reading answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
