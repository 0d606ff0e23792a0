package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facenav/pkg/journal"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var sessionID string
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded sessions from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Journal.Path
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no journal at %s (run with --journal or set journal.enabled)", path)
			}

			store, err := journal.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			var sums []journal.Summary
			if sessionID != "" {
				sum, err := store.Summary(cmd.Context(), sessionID)
				if errors.Is(err, journal.ErrNotFound) {
					return fmt.Errorf("session %s not found", sessionID)
				}
				if err != nil {
					return err
				}
				sums = append(sums, sum)
			} else {
				if sums, err = store.Sessions(cmd.Context(), limit); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSessions(sums))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Show a single session")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent sessions to show")
	return cmd
}

func renderSessions(sums []journal.Summary) string {
	if len(sums) == 0 {
		return "No sessions recorded."
	}
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		rows = append(rows, []string{
			shortID(s.SessionID),
			s.Start.Local().Format("2006-01-02 15:04"),
			s.Duration().Round(time.Second).String(),
			strconv.Itoa(s.Counts[journal.KindAction]),
			strconv.Itoa(s.Counts[journal.KindPause]),
			strconv.Itoa(s.Counts[journal.KindResume]),
			strconv.Itoa(s.Counts[journal.KindFailure]),
		})
	}
	return renderTable(
		[]string{"Session", "Started", "Duration", "Clicks", "Pauses", "Resumes", "Failures"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
