package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garrettladley/bellhop/internal/config"
	"github.com/garrettladley/bellhop/internal/session"
	"github.com/garrettladley/bellhop/internal/storage"
)

func loginCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Record the signed-in user",
		Long:  "Writes the session file that every other command reads the current user from.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sessionPath()
			if err != nil {
				return err
			}

			u := session.User{ID: storage.ID(args[0]), Name: name}
			if err := session.Save(path, u); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name stored with the session")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := sessionPath()
			if err != nil {
				return err
			}
			if err := session.Remove(path); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func sessionPath() (string, error) {
	cfg, err := config.Read()
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return session.PathOrDefault(cfg.SessionFile)
}
