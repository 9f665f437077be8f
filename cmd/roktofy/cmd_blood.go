package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/views"
)

func bloodCommands() []*cobra.Command {
	return []*cobra.Command{donorsCmd(), eventsCmd(), requestsCmd(), donationsCmd()}
}

func donorsCmd() *cobra.Command {
	var (
		filter    views.DonorFilter
		available bool
	)
	cmd := &cobra.Command{
		Use:   "donors",
		Short: "List donors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("available") {
				filter.Available = &available
			}
			v := views.NewDonors(cli.client, cli.logger)
			if err := v.Load(cmd.Context(), filter); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "BLOOD", "AVAILABLE", "ADDRESS", "LAST DONATION")
			for _, d := range v.Items() {
				row(tw, d.ID, d.FullName, orDash(d.BloodType), yesNo(d.IsAvailable), orDash(d.Address), orDash(d.LastDonationDate))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.BloodType, "blood-type", "", "Only this blood type")
	cmd.Flags().BoolVar(&available, "available", true, "Only donors with this availability")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Match name, email or address")
	return cmd
}

func printEvents(cmd *cobra.Command, events []model.BloodEvent) error {
	tw := newTable(cmd.OutOrStdout(), "ID", "TITLE", "BLOOD", "UNITS", "LOCATION", "DATE", "STATUS", "ACCEPTED BY")
	for _, ev := range events {
		row(tw, ev.ID, ev.Title, ev.BloodType, ev.UnitsNeeded, ev.Location, ev.EventDate, ev.Status, joinIDs(ev.AcceptedBy))
	}
	return tw.Flush()
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Blood events",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List blood events",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewEvents(cli.client, cli.session, cli.logger)
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			return printEvents(cmd, v.Items())
		},
	}

	var in model.NewBloodEvent
	create := &cobra.Command{
		Use:     "create",
		Short:   "Post a blood event",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewEvents(cli.client, cli.session, cli.logger)
			ev, err := v.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created event %d.\n", ev.ID)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&in.Title, "title", "", "Title (required)")
	f.StringVar(&in.Description, "description", "", "Description")
	f.StringVar(&in.BloodType, "blood-type", "", "Blood type needed (required)")
	f.IntVar(&in.UnitsNeeded, "units", 1, "Units needed")
	f.StringVar(&in.Location, "location", "", "Location (required)")
	f.StringVar(&in.EventDate, "date", "", "Event date, YYYY-MM-DD (required)")
	for _, name := range []string{"title", "blood-type", "location", "date"} {
		_ = create.MarkFlagRequired(name)
	}

	accept := &cobra.Command{
		Use:     "accept <id>",
		Short:   "Pledge to donate at an event",
		Args:    cobra.ExactArgs(1),
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			v := views.NewEvents(cli.client, cli.session, cli.logger)
			// load first so the local checks can run
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			if err := v.Accept(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted event %d.\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, accept)
	return cmd
}

func printRequests(cmd *cobra.Command, reqs []model.BloodRequest) error {
	tw := newTable(cmd.OutOrStdout(), "ID", "REQUESTER", "DONOR", "BLOOD", "UNITS", "HOSPITAL", "STATUS", "ACCEPTED BY")
	for _, r := range reqs {
		donor := "-"
		if r.Donor != 0 {
			donor = fmt.Sprint(r.Donor)
		}
		row(tw, r.ID, r.Requester, donor, r.BloodType, r.UnitsNeeded, r.Hospital, r.Status, joinIDs(r.AcceptedBy))
	}
	return tw.Flush()
}

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Blood requests",
	}

	list := &cobra.Command{
		Use:     "list",
		Short:   "List blood requests",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewRequests(cli.client, cli.session, cli.logger)
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			return printRequests(cmd, v.Items())
		},
	}

	var in model.NewBloodRequest
	create := &cobra.Command{
		Use:     "create",
		Short:   "Request blood, optionally from a specific donor",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewRequests(cli.client, cli.session, cli.logger)
			req, err := v.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created request %d.\n", req.ID)
			return nil
		},
	}
	f := create.Flags()
	f.Int64Var(&in.Donor, "donor", 0, "Donor id (omit for an open request)")
	f.StringVar(&in.BloodType, "blood-type", "", "Blood type needed (required)")
	f.IntVar(&in.UnitsNeeded, "units", 1, "Units needed")
	f.StringVar(&in.Hospital, "hospital", "", "Hospital (required)")
	f.StringVar(&in.Message, "message", "", "Message to the donor")
	_ = create.MarkFlagRequired("blood-type")
	_ = create.MarkFlagRequired("hospital")

	act := func(use, short, done string, fn func(*views.Requests, *cobra.Command, int64) error) *cobra.Command {
		return &cobra.Command{
			Use:     use + " <id>",
			Short:   short,
			Args:    cobra.ExactArgs(1),
			PreRunE: loggedIn,
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseIDArg(args[0])
				if err != nil {
					return err
				}
				v := views.NewRequests(cli.client, cli.session, cli.logger)
				if err := v.Load(cmd.Context()); err != nil {
					return err
				}
				if err := fn(v, cmd, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), done+"\n", id)
				return nil
			},
		}
	}
	accept := act("accept", "Accept a blood request", "Accepted request %d.",
		func(v *views.Requests, cmd *cobra.Command, id int64) error { return v.Accept(cmd.Context(), id) })
	cancel := act("cancel", "Cancel one of your requests", "Cancelled request %d.",
		func(v *views.Requests, cmd *cobra.Command, id int64) error { return v.Cancel(cmd.Context(), id) })

	cmd.AddCommand(list, create, accept, cancel)
	return cmd
}

func donationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donations",
		Short: "Your donations",
	}

	list := &cobra.Command{
		Use:     "list",
		Short:   "List your donations",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewDonations(cli.client, cli.session, cli.logger)
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			return printDonations(cmd, v.Items())
		},
	}

	var requestID, eventID int64
	var units int
	create := &cobra.Command{
		Use:     "create",
		Short:   "Record a donation to a request or an event",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (requestID == 0) == (eventID == 0) {
				return errors.New("pass exactly one of --request or --event")
			}
			in := model.NewDonation{Units: units}
			if requestID != 0 {
				in.BloodRequest = &requestID
			} else {
				in.BloodEvent = &eventID
			}
			v := views.NewDonations(cli.client, cli.session, cli.logger)
			d, err := v.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded donation %d.\n", d.ID)
			return nil
		},
	}
	create.Flags().Int64Var(&requestID, "request", 0, "Blood request id")
	create.Flags().Int64Var(&eventID, "event", 0, "Blood event id")
	create.Flags().IntVar(&units, "units", 1, "Units donated")

	cmd.AddCommand(list, create)
	return cmd
}

func printDonations(cmd *cobra.Command, donations []model.Donation) error {
	tw := newTable(cmd.OutOrStdout(), "ID", "DONOR", "REQUEST", "EVENT", "UNITS", "VERIFIED", "DATE")
	for _, d := range donations {
		donor := fmt.Sprint(d.Donor)
		if d.DonorEmail != "" {
			donor = d.DonorEmail
		}
		row(tw, d.ID, donor, optionalID(d.BloodRequest), optionalID(d.BloodEvent), d.Units, yesNo(d.IsVerified), d.DonatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}
