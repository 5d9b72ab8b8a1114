package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/xslog"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Log every notification state change",
		Long:  "Runs headless, writing each state change as a JSON log line to stdout until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := xslog.NewLoggerFromEnv(os.Stdout)

			a, err := newApp(logger)
			if err != nil {
				return err
			}
			alerter, err := a.alerter()
			if err != nil {
				return err
			}

			ctrl := a.controller(alerter)
			defer func() { _ = ctrl.Close() }()

			ctrl.Subscribe(func(s notify.State) {
				a.logger.Info("notification state",
					xslog.Status(s.Status.String()),
					xslog.Transport(s.Transport.String()),
					xslog.Unread(s.UnreadCount),
					xslog.Count(len(s.Notifications)),
				)
			})

			if err := ctrl.Activate(ctx); err != nil {
				return fmt.Errorf("failed to activate notifications: %w", err)
			}

			<-ctx.Done()
			return nil
		},
	}
}
