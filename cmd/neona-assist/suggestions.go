package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/spf13/cobra"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Manage proactive suggestions for the active project",
}

var suggestionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List suggestions",
	RunE:  runSuggestionsList,
}

var suggestionsDismissCmd = &cobra.Command{
	Use:   "dismiss [suggestion-id]",
	Short: "Hide a suggestion from now on",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestionAction(models.SuggestionDismiss),
}

var suggestionsAcceptCmd = &cobra.Command{
	Use:   "accept [suggestion-id]",
	Short: "Accept one of the active project's current suggestions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestionAction(models.SuggestionAccept),
}

var suggestionsRefresh bool

func init() {
	suggestionsCmd.AddCommand(suggestionsListCmd, suggestionsDismissCmd, suggestionsAcceptCmd)
	suggestionsListCmd.Flags().BoolVar(&suggestionsRefresh, "refresh", false, "Fetch even if the cache is fresh")
}

func runSuggestionsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := mustEnv(ctx)
	if err != nil {
		return err
	}
	project, err := e.requireProject()
	if err != nil {
		return err
	}

	view := e.assistant.Bind(project, e.cfg.StaleAfter)
	defer view.Close()

	if suggestionsRefresh {
		err = view.Refresh(ctx)
	} else {
		_, err = view.EnsureFresh(ctx)
	}
	if err != nil {
		return err
	}

	items := view.Suggestions()
	if len(items) == 0 {
		fmt.Println("No suggestions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRIORITY\tTYPE\tTITLE")
	for _, s := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Priority, s.Type, s.Title)
	}
	w.Flush()

	if fetched := view.LastFetched(); fetched != nil {
		fmt.Printf("\nFetched %s\n", fetched.Local().Format(time.RFC822))
	}
	return nil
}

// errSuggestionNotFound reports an id that is not among the project's
// current suggestions.
var errSuggestionNotFound = errors.New("suggestion not found")

func runSuggestionAction(kind models.SuggestionActionType) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := mustEnv(ctx)
		if err != nil {
			return err
		}
		id := args[0]

		label := id
		if kind == models.SuggestionAccept {
			found, err := currentSuggestion(ctx, e, id)
			if err != nil {
				return err
			}
			label = fmt.Sprintf("%s (%s)", id, found.Title)
		}

		action := models.SuggestionAction{Type: kind, SuggestionID: id}
		if err := e.assistant.ApplySuggestionAction(action); err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", kind, label)
		return nil
	}
}

// currentSuggestion loads the active project's suggestions and returns the
// visible one with the given id.
func currentSuggestion(ctx context.Context, e *environment, id string) (models.AISuggestion, error) {
	project, err := e.requireProject()
	if err != nil {
		return models.AISuggestion{}, err
	}
	view := e.assistant.Bind(project, e.cfg.StaleAfter)
	defer view.Close()

	if _, err := view.EnsureFresh(ctx); err != nil {
		return models.AISuggestion{}, err
	}
	for _, s := range view.Suggestions() {
		if s.ID == id {
			return s, nil
		}
	}
	return models.AISuggestion{}, fmt.Errorf("%w: %q in project %s", errSuggestionNotFound, id, project)
}
