package main

import (
	"fmt"

	"github.com/fentz26/neona-assist/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := mustEnv(cmd.Context())
	if err != nil {
		return err
	}

	app := tui.New(tui.Options{
		Store:        e.assistant,
		Logger:       logger.Named("tui"),
		User:         e.user(),
		ProjectID:    e.cfg.ProjectID,
		StaleAfter:   e.cfg.StaleAfter,
		PollInterval: e.cfg.PollInterval,
	})
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
