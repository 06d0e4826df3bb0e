package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/shellsage/pkg/shellsage/history"
)

// newSessionHistoryCmd creates `shellsage session history`, listing
// past turns recorded by the turn history store. This is an audit
// trail for the operator, not conversation-state restoration: a new
// session always starts with empty working memory.
func newSessionHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent turns recorded in the turn history store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled in config; set history.enabled: true")
			}

			store, err := history.Open(cfg.History.DBPath)
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}
			defer store.Close()

			turns, err := store.RecentTurns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading turn history: %w", err)
			}

			if len(turns) == 0 {
				fmt.Println("No turns recorded yet.")
				return nil
			}

			for _, t := range turns {
				fmt.Printf("%s  [%s]  %d/%d done, %d failed  %s\n",
					t.StartedAt.Format("2006-01-02 15:04:05"), t.FinalStatus, t.DoneCount, t.StepCount, t.FailedCount, t.Goal)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of turns to show")

	return cmd
}
