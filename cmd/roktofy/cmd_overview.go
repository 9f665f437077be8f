package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/views"
)

func overviewCommands() []*cobra.Command {
	return []*cobra.Command{dashboardCmd(), statsCmd()}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Short:   "Show your requests, events and donations",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewOverview(cli.client, cli.session, cli.logger)
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			d := v.Dashboard()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Units donated: %d\n\n", d.TotalDonated)
			fmt.Fprintln(out, "My requests:")
			if err := printRequests(cmd, d.MyRequests); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nMy events:")
			if err := printEvents(cmd, d.MyEvents); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nEvents I accepted:")
			if err := printEvents(cmd, d.AcceptedEvents); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nMy donations:")
			if err := printDonations(cmd, d.MyDonations); err != nil {
				return err
			}
			fmt.Fprintln(out)
			printStats(cmd, v.Stats())
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show public statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewOverview(cli.client, cli.session, cli.logger)
			if err := v.LoadStats(cmd.Context()); err != nil {
				return err
			}
			printStats(cmd, v.Stats())
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, s *model.PublicStats) {
	if s == nil {
		return
	}
	tw := newTable(cmd.OutOrStdout(), "DONORS", "AVAILABLE", "EVENTS", "DONATIONS")
	row(tw, s.TotalDonors, s.AvailableDonor, s.TotalEvents, s.TotalDonations)
	_ = tw.Flush()
}

func paymentCommands() []*cobra.Command {
	pay := &cobra.Command{
		Use:     "pay <amount>",
		Short:   "Start a monetary donation",
		Args:    cobra.ExactArgs(1),
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewPayments(cli.client, cli.session, cli.logger)
			ps, err := v.Initiate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s\nComplete the payment at %s\n", ps.TransactionID, ps.PaymentURL)
			return nil
		},
	}

	history := &cobra.Command{
		Use:     "payments",
		Short:   "List your monetary donations",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewPayments(cli.client, cli.session, cli.logger)
			if err := v.History(cmd.Context()); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "TRANSACTION", "AMOUNT", "STATUS", "CREATED")
			for _, p := range v.Items() {
				row(tw, p.ID, p.TransactionID, p.Amount, p.Status, p.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	return []*cobra.Command{pay, history}
}
