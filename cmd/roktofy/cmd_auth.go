package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/model"
)

func authCommands() []*cobra.Command {
	return []*cobra.Command{
		loginCmd(),
		logoutCmd(),
		registerCmd(),
		activateCmd(),
		resendActivationCmd(),
		passwordCmd(),
		whoamiCmd(),
		profileCmd(),
	}
}

// promptLine reads one line from the command's input
func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the credential pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptLine(cmd, "Password: "); err != nil {
					return err
				}
			}
			if err := cli.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			u := cli.session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.FullName(), u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	var reg model.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Creates an account. The server mails an activation link; finish with
  roktofy activate <uid> <token>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.RePassword == "" {
				reg.RePassword = reg.Password
			}
			msg, err := cli.session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.Email, "email", "", "Email (required)")
	f.StringVar(&reg.FirstName, "first-name", "", "First name (required)")
	f.StringVar(&reg.LastName, "last-name", "", "Last name")
	f.StringVar(&reg.UserType, "user-type", model.UserTypeDonor, "donor, recipient or both")
	f.StringVar(&reg.BloodType, "blood-type", "", "Blood type, e.g. O+")
	f.StringVar(&reg.Address, "address", "", "Address")
	f.StringVar(&reg.Phone, "phone", "", "Phone number")
	f.StringVar(&reg.Password, "password", "", "Password (required)")
	f.StringVar(&reg.RePassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func activateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <uid> <token>",
		Short: "Activate an account from its activation link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := cli.session.Activate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func resendActivationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend-activation <email>",
		Short: "Send the activation email again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := cli.session.ResendActivation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func passwordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset or change your password",
	}

	reset := &cobra.Command{
		Use:   "reset <email>",
		Short: "Mail a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := cli.session.RequestPasswordReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	var newPassword string
	confirm := &cobra.Command{
		Use:   "confirm <uid> <token>",
		Short: "Set a new password from a reset link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := cli.session.ConfirmPasswordReset(cmd.Context(), model.PasswordResetConfirm{
				UID: args[0], Token: args[1], NewPassword: newPassword,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	confirm.Flags().StringVar(&newPassword, "new-password", "", "New password (required)")
	_ = confirm.MarkFlagRequired("new-password")

	var change model.PasswordChange
	changeCmd := &cobra.Command{
		Use:     "change",
		Short:   "Change the password of the logged-in account",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.session.ChangePassword(cmd.Context(), change); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}
	changeCmd.Flags().StringVar(&change.CurrentPassword, "current", "", "Current password (required)")
	changeCmd.Flags().StringVar(&change.NewPassword, "new", "", "New password (required)")
	_ = changeCmd.MarkFlagRequired("current")
	_ = changeCmd.MarkFlagRequired("new")

	cmd.AddCommand(reset, confirm, changeCmd)
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the logged-in account and its token",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := cli.session.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.FullName(), u.Email)
			fmt.Fprintf(out, "id: %d  type: %s  staff: %s\n", u.ID, u.UserType, yesNo(u.IsStaff))

			creds, err := cli.tokens.Load(cmd.Context())
			if err != nil {
				return err
			}
			if creds == nil {
				return auth.ErrNoCredentials
			}
			claims, err := auth.Inspect(creds.Access)
			if err != nil {
				// opaque tokens are fine, there is just nothing to show
				if errors.Is(err, auth.ErrInvalidToken) {
					return nil
				}
				return err
			}
			if left := claims.ExpiresIn(time.Now()); left > 0 {
				fmt.Fprintf(out, "access token expires in %s\n", left.Round(time.Second))
			} else {
				fmt.Fprintln(out, "access token has expired")
			}
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}

	show := &cobra.Command{
		Use:     "show",
		Short:   "Show your profile",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			printProfile(cmd, cli.session.User())
			return nil
		},
	}

	var (
		upd       model.ProfileUpdate
		firstName string
		lastName  string
		userType  string
		bloodType string
		address   string
		phone     string
		age       int
		available bool
		lastDate  string
	)
	update := &cobra.Command{
		Use:     "update",
		Short:   "Update your profile; only the given flags are sent",
		PreRunE: loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("first-name") {
				upd.FirstName = &firstName
			}
			if f.Changed("last-name") {
				upd.LastName = &lastName
			}
			if f.Changed("user-type") {
				upd.UserType = &userType
			}
			if f.Changed("blood-type") {
				upd.BloodType = &bloodType
			}
			if f.Changed("address") {
				upd.Address = &address
			}
			if f.Changed("phone") {
				upd.Phone = &phone
			}
			if f.Changed("age") {
				upd.Age = &age
			}
			if f.Changed("available") {
				upd.IsAvailable = &available
			}
			if f.Changed("last-donation-date") {
				upd.LastDonationDate = &lastDate
			}
			if upd.Empty() {
				return errors.New("nothing to update; pass at least one flag")
			}
			if err := cli.session.UpdateProfile(cmd.Context(), upd); err != nil {
				return err
			}
			printProfile(cmd, cli.session.User())
			return nil
		},
	}
	f := update.Flags()
	f.StringVar(&firstName, "first-name", "", "First name")
	f.StringVar(&lastName, "last-name", "", "Last name")
	f.StringVar(&userType, "user-type", "", "donor, recipient or both")
	f.StringVar(&bloodType, "blood-type", "", "Blood type")
	f.StringVar(&address, "address", "", "Address")
	f.StringVar(&phone, "phone", "", "Phone number")
	f.IntVar(&age, "age", 0, "Age")
	f.BoolVar(&available, "available", true, "Available to donate")
	f.StringVar(&lastDate, "last-donation-date", "", "Last donation date (YYYY-MM-DD)")

	cmd.AddCommand(show, update)
	return cmd
}

func printProfile(cmd *cobra.Command, u *model.User) {
	tw := newTable(cmd.OutOrStdout(), "FIELD", "VALUE")
	row(tw, "name", u.FullName())
	row(tw, "email", u.Email)
	row(tw, "type", u.UserType)
	row(tw, "active", yesNo(u.IsActive))
	if p := u.Profile; p != nil {
		row(tw, "blood type", orDash(p.BloodType))
		row(tw, "available", yesNo(p.IsAvailable))
		row(tw, "address", orDash(p.Address))
		row(tw, "phone", orDash(p.Phone))
		if p.Age > 0 {
			row(tw, "age", p.Age)
		}
		row(tw, "last donation", orDash(p.LastDonationDate))
	}
	_ = tw.Flush()
}
