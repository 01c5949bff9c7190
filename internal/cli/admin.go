package cli

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newCloseResolvedCmd(load Loader, u *ui) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "close-resolved",
		Short: "Close issues resolved longer ago than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), load, func(d *Deps) error {
				age := olderThan
				if !cmd.Flags().Changed("older-than") && d.CloseAfter > 0 {
					age = d.CloseAfter
				}
				closed, err := d.Issues.CloseResolved(cmd.Context(), age)
				if err != nil {
					u.warning("closed %d issues before failing", closed)
					return err
				}
				u.success("closed %d issues resolved more than %s ago", closed, age)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Minimum time since resolution")
	return cmd
}

func newCreateAdminCmd(load Loader, u *ui) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("VITAL_ADMIN_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or VITAL_ADMIN_PASSWORD) required")
			}
			return withDeps(cmd.Context(), load, func(d *Deps) error {
				profile, err := d.Admins.CreateAdmin(cmd.Context(), name, email, password)
				if err != nil {
					return err
				}
				u.success("created admin %s (uid %s)", profile.Email, profile.UID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Sign-in email")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	return cmd
}
