package cmd

import (
	"fmt"
	"io"

	"storefront/internal/app"
	"storefront/internal/config"

	"github.com/spf13/cobra"
)

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("create-admin needs a persistent database, DB_DRIVER is %s", cfg.Database.Driver)
			}

			a, err := app.New(cmd.Context(), cfg, log, app.Options{AccessLog: io.Discard})
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Auth.CreateAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q created with id %d\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
