package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/neona-assist/internal/assistant"
	"github.com/fentz26/neona-assist/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var askCmd = &cobra.Command{
	Use:   "ask [request]",
	Short: "Interpret a request and optionally execute the resulting action",
	Long: `Sends the request to the orchestrator for the active project and shows the
matching items and the proposed action.

The action runs only with --yes. When several items match, choose one with
--pick <id>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askYes  bool
	askPick string
)

func init() {
	askCmd.Flags().BoolVarP(&askYes, "yes", "y", false, "Execute the proposed action without prompting")
	askCmd.Flags().StringVar(&askPick, "pick", "", "Id of the matching item to act on")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := mustEnv(ctx)
	if err != nil {
		return err
	}
	project, err := e.requireProject()
	if err != nil {
		return err
	}

	st := e.assistant
	view := st.Bind(project, e.cfg.StaleAfter)
	defer view.Close()

	utterance := strings.Join(args, " ")

	// Suggestions are advisory; refresh them alongside the request.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return st.SubmitUtterance(gctx, utterance)
	})
	g.Go(func() error {
		if _, err := view.EnsureFresh(gctx); err != nil {
			logger.Debug("suggestion refresh failed", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if msg := st.Snapshot().Error; msg != "" && errors.Is(err, assistant.ErrInterpretFailed) {
			return errors.New(msg)
		}
		return err
	}

	state := st.Snapshot()
	printIntent(state)

	if askPick != "" {
		match, ok := findMatch(state.LastIntentResult, askPick)
		if !ok {
			return fmt.Errorf("no match with id %q", askPick)
		}
		st.SelectCandidate(match)
		if bound := models.ActionForCandidate(state.LastIntentResult.SuggestedAction, match); bound != nil {
			if err := st.SetPendingAction(*bound); err != nil {
				return err
			}
		}
		state = st.Snapshot()
	}

	if state.PendingAction == nil {
		if state.LastIntentResult != nil && len(state.LastIntentResult.Entities) > 1 {
			fmt.Println("\nSeveral items match. Re-run with --pick <id> to choose one.")
		}
		return nil
	}

	fmt.Printf("\nProposed: %s\n", describe(*state.PendingAction))
	if !askYes {
		fmt.Println("Re-run with --yes to execute.")
		st.CancelAction()
		return nil
	}

	if err := st.ConfirmAction(ctx); err != nil {
		if msg := st.Snapshot().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	result := st.Snapshot().RecentActions[0]
	if result.Success {
		fmt.Printf("✓ %s\n", result.Message)
	} else {
		fmt.Printf("✗ %s\n", result.Message)
		for _, fe := range result.Errors {
			fmt.Printf("  %s: %s\n", fe.Field, fe.Message)
		}
	}
	return nil
}

func printIntent(state assistant.State) {
	intent := state.LastIntentResult
	if intent == nil {
		return
	}
	if intent.Intent != "" {
		fmt.Printf("Intent: %s\n", intent.Intent)
	}
	if len(intent.Entities) == 0 {
		fmt.Println("No matching items.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tTYPE\tTITLE\tCONFIDENCE")
	for _, m := range intent.Entities {
		marker := ""
		if state.SelectedCandidate != nil && state.SelectedCandidate.ID == m.ID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\n", marker, m.ID, m.Type, m.Title, m.Confidence*100)
	}
	w.Flush()
}

func findMatch(intent *models.IntentResult, id string) (models.EntityMatch, bool) {
	if intent == nil {
		return models.EntityMatch{}, false
	}
	for _, m := range intent.Entities {
		if m.ID == id {
			return m, true
		}
	}
	return models.EntityMatch{}, false
}

func describe(cmd models.ActionCommand) string {
	if cmd.Description != "" {
		return cmd.Description
	}
	if cmd.EntityID != "" {
		return fmt.Sprintf("%s %s %s", cmd.Type, cmd.EntityType, cmd.EntityID)
	}
	return cmd.Type
}
