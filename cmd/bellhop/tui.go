package main

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/garrettladley/bellhop/internal/paths"
	"github.com/garrettladley/bellhop/internal/tui"
	"github.com/garrettladley/bellhop/internal/xslog"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive TUI",
		Long:  "Opens the full-screen inbox with live updates. This is the default command.",
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	logPath, err := paths.Log()
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	// the screen belongs to the TUI, so logs go to a file
	logger := xslog.NewLoggerFromEnv(logFile)

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

	states := tui.NewBridge()
	ctrl.Subscribe(states.Push)

	// the permission prompt needs the plain terminal; the fetch and transport
	// negotiation start from the program once the inbox is up
	ctrl.RequestAlertPermission(ctx)

	model := tui.New(tui.Deps{
		Ctx:        ctx,
		Logger:     a.logger,
		Controller: ctrl,
		States:     states,
	})

	p := tea.NewProgram(&model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
