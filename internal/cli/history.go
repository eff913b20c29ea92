package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/slurmgate/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded job outcomes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(dbPath, profile.SuccessCode, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate store: %w", err)
			}

			entries, err := st.ListResults(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list results: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("no recorded outcomes")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tSTATUS\tEXIT\tRESULT\tRECORDED")
			for _, e := range entries {
				verdict := "failure"
				if e.Success {
					verdict = "success"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					e.JobID, e.Status, e.ExitCode, verdict, humanize.Time(e.RecordedAt))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "slurmgate.db", "SQLite database with recorded outcomes")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list (0 for all)")

	return cmd
}
