package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/internal/listener"
	"github.com/me/slurmgate/internal/store"
)

func newWatchCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the scheduler and print finished jobs as they appear",
		Long: "watch runs the batched listener for the profile's user scope and prints\n" +
			"every terminal outcome it observes. With --db, outcomes are also recorded\n" +
			"for the history command and the fleet API.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var st store.Store
			if dbPath != "" {
				sqlStore, err := store.NewSQLiteStore(dbPath, profile.SuccessCode, logger)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer sqlStore.Close()
				if err := sqlStore.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate store: %w", err)
				}
				st = sqlStore
			}

			results := make(chan listener.Batch)
			l, err := listener.New(cmdline.NewBuilder(profile), profile, results, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- l.Start(ctx) }()

			for {
				select {
				case batch := <-results:
					for _, res := range batch.Results {
						verdict := "failure"
						if res.Succeeded(profile.SuccessCode) {
							verdict = "success"
						}
						fmt.Printf("job %d finished: exit %s (%s)\n", res.JobID, res.ExitCode, verdict)
					}
					if st != nil && len(batch.Results) > 0 {
						if err := st.RecordResults(ctx, batch.ID, batch.Results); err != nil {
							logger.Error("record results", "batch_id", batch.ID, "error", err)
						}
					}
				case err := <-errCh:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
			}
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to record outcomes in")

	return cmd
}
