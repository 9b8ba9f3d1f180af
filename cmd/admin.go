package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-interviewer/usecase"
)

var (
	adminUsername string
	adminPassword string

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create or promote the admin account and print its API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB(db)

			username := adminUsername
			if username == "" {
				username = cfg.Admin.Username
			}
			password := adminPassword
			if password == "" {
				password = cfg.Admin.Password
			}

			accounts := usecase.NewAccounts(store, usecase.NewValidator(), logger)
			creds, err := accounts.EnsureAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (id %d)\napi key: %s\n", creds.Username, creds.UserID, creds.APIKey)
			return nil
		},
	}
)

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username (default admin.username)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (default admin.password)")
}
