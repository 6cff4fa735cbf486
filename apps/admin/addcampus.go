package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (cli *commandLine) newAddCampusCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "addcampus",
		Short: "Create a campus",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.campusSvc.CreateCampus(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "campus %d created: %s (folio letter %s)\n", c.ID, c.Name, c.PrefixLetter())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "campus name (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) newAddCardCommand() *cobra.Command {
	var name string
	var sat bool

	cmd := &cobra.Command{
		Use:   "addcard",
		Short: "Register a payment card",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.campusSvc.CreateCard(cmd.Context(), name, sat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "card %d created: %s (tax exempt: %t)\n", c.ID, c.Name, c.Sat)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "card name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&sat, "sat", false, "the card is tax exempt")
	return cmd
}

func (cli *commandLine) newCampusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "campuses",
		Short: "List campuses with their folio letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			campuses, err := cli.campusSvc.QueryCampuses(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLETTER\tACTIVE\t")
			for _, c := range campuses {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t\n", c.ID, c.Name, c.PrefixLetter(), c.IsActive)
			}
			return tw.Flush()
		},
	}
}
