package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roktofy/client/internal/views"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Staff panel",
	}

	users := &cobra.Command{
		Use:     "users",
		Short:   "List users",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewAdmin(cli.client, cli.session, cli.logger)
			if err := v.LoadUsers(cmd.Context()); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "EMAIL", "NAME", "TYPE", "STAFF", "ACTIVE")
			for _, u := range v.Users() {
				row(tw, u.ID, u.Email, u.FullName(), u.UserType, yesNo(u.IsStaff), yesNo(u.IsActive))
			}
			return tw.Flush()
		},
	}

	donations := &cobra.Command{
		Use:     "donations",
		Short:   "List all donations, unverified first",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewAdmin(cli.client, cli.session, cli.logger)
			if err := v.LoadDonations(cmd.Context()); err != nil {
				return err
			}
			return printDonations(cmd, v.Donations())
		},
	}

	events := &cobra.Command{
		Use:     "events",
		Short:   "List all blood events",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := views.NewAdmin(cli.client, cli.session, cli.logger)
			if err := v.LoadEvents(cmd.Context()); err != nil {
				return err
			}
			return printEvents(cmd, v.Events())
		},
	}

	act := func(use, short, done string, fn func(*views.Admin, *cobra.Command, int64) error) *cobra.Command {
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
				v := views.NewAdmin(cli.client, cli.session, cli.logger)
				if err := fn(v, cmd, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), done+"\n", id)
				return nil
			},
		}
	}

	cmd.AddCommand(
		users,
		donations,
		events,
		act("toggle-user", "Activate or deactivate a user", "Toggled user %d.",
			func(v *views.Admin, cmd *cobra.Command, id int64) error {
				// the toggle needs the current flag
				if err := v.LoadUsers(cmd.Context()); err != nil {
					return err
				}
				return v.ToggleActive(cmd.Context(), id)
			}),
		act("delete-user", "Delete a user", "Deleted user %d.",
			func(v *views.Admin, cmd *cobra.Command, id int64) error { return v.DeleteUser(cmd.Context(), id) }),
		act("verify-donation", "Mark a donation as verified", "Verified donation %d.",
			func(v *views.Admin, cmd *cobra.Command, id int64) error { return v.VerifyDonation(cmd.Context(), id) }),
		act("delete-event", "Delete a blood event", "Deleted event %d.",
			func(v *views.Admin, cmd *cobra.Command, id int64) error { return v.DeleteEvent(cmd.Context(), id) }),
	)
	return cmd
}
