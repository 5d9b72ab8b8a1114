//go:build !release

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garrettladley/bellhop/internal/client/notifications"
	"github.com/garrettladley/bellhop/internal/xslog"
)

func sendTestCmd() *cobra.Command {
	var eventDeleted bool

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Ask the backend to push a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(xslog.NewLoggerFromEnv(os.Stderr))
			if err != nil {
				return err
			}

			kind := notifications.TestGeneral
			if eventDeleted {
				kind = notifications.TestEventDeleted
			}

			reply, err := a.client.SendTest(cmd.Context(), kind)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().BoolVar(&eventDeleted, "event-deleted", false, "send the event-deleted sample instead of a generic one")
	return cmd
}
