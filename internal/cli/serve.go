package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/internal/listener"
	"github.com/me/slurmgate/internal/server"
	"github.com/me/slurmgate/internal/store"
)

func newServeCmd() *cobra.Command {
	var dbPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the listener and the fleet API together",
		Long: "serve polls the scheduler for the profile's user scope, records every\n" +
			"terminal outcome, and exposes them over the read-only fleet API.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := store.NewSQLiteStore(dbPath, profile.SuccessCode, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate store: %w", err)
			}

			results := make(chan listener.Batch)
			l, err := listener.New(cmdline.NewBuilder(profile), profile, results, logger)
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           server.New(st, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 2)
			go func() { errCh <- l.Start(ctx) }()
			go func() {
				logger.Info("fleet API listening", "addr", addr)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			go func() {
				for batch := range results {
					if len(batch.Results) == 0 {
						continue
					}
					if err := st.RecordResults(ctx, batch.ID, batch.Results); err != nil {
						logger.Error("record results", "batch_id", batch.ID, "error", err)
					}
				}
			}()

			var runErr error
			select {
			case <-ctx.Done():
			case runErr = <-errCh:
				if errors.Is(runErr, context.Canceled) {
					runErr = nil
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown", "error", err)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "slurmgate.db", "SQLite database to record outcomes in")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address for the fleet API")

	return cmd
}
