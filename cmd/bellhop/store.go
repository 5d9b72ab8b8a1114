package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xslog"
)

// oneShot builds the app for commands that make a single store call and
// exit. Logs go to stderr so stdout stays clean.
func oneShot() (*app, error) {
	a, err := newApp(xslog.NewLoggerFromEnv(os.Stderr))
	if err != nil {
		return nil, err
	}
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	return a, nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the current notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := oneShot()
			if err != nil {
				return err
			}

			list, err := a.client.FetchAll(cmd.Context(), a.userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				_, _ = fmt.Fprintln(out, "No notifications")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "\tID\tTYPE\tTIMESTAMP\tTITLE\tMESSAGE")
			for _, n := range list {
				marker := " "
				if !n.Read {
					marker = "●"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, n.ID, n.Type, n.Timestamp, n.Title, n.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "\n%d unread\n", storage.CountUnread(list))
			return nil
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := oneShot()
			if err != nil {
				return err
			}
			return a.client.MarkRead(cmd.Context(), a.userID, storage.ID(args[0]))
		},
	}
}

func readAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := oneShot()
			if err != nil {
				return err
			}
			return a.client.MarkAllRead(cmd.Context(), a.userID)
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := oneShot()
			if err != nil {
				return err
			}
			return a.client.Clear(cmd.Context(), a.userID)
		},
	}
}
