package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear past requests and executed actions",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent requests and the action audit trail",
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the request history",
	RunE:  runHistoryClear,
}

var historyLimit int

func init() {
	historyCmd.AddCommand(historyShowCmd, historyClearCmd)
	historyShowCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum audit records to show")
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := mustEnv(ctx)
	if err != nil {
		return err
	}

	state := e.assistant.Snapshot()
	fmt.Println("Recent requests:")
	if len(state.UtteranceHistory) == 0 {
		fmt.Println("  (none)")
	}
	for _, u := range state.UtteranceHistory {
		fmt.Printf("  • %s\n", u)
	}

	if e.db == nil {
		return nil
	}
	records, err := e.db.ListPDR(ctx, historyLimit)
	if err != nil {
		return err
	}
	fmt.Println("\nExecuted actions:")
	if len(records) == 0 {
		fmt.Println("  (none)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  WHEN\tPROJECT\tACTION\tOUTCOME\tDETAILS")
	for _, r := range records {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format(time.DateTime), r.ProjectID, r.Action, r.Outcome, r.Details)
	}
	return w.Flush()
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	e, err := mustEnv(cmd.Context())
	if err != nil {
		return err
	}
	e.assistant.ClearHistory()
	fmt.Println("History cleared")
	return nil
}
