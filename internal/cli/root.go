// Package cli implements the slurmgate command-line interface.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/slurmgate/internal/backend"
	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/internal/config"
	"github.com/me/slurmgate/internal/logging"
)

var (
	flagProfile   string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	profile config.Profile
	logger  *slog.Logger
)

// NewRootCmd creates the root cobra command for the slurmgate CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slurmgate",
		Short: "Batch scheduler adapter for Slurm-style systems",
		Long:  "slurmgate submits, cancels, and tracks jobs on a batch scheduler (Slurm by default).",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(flagLogLevel, flagLogFormat)

			profile = config.Default()
			if flagProfile != "" {
				var err error
				profile, err = config.Load(flagProfile)
				if err != nil {
					return fmt.Errorf("load profile: %w", err)
				}
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagProfile, "profile", "", "Scheduler profile YAML (defaults to stock Slurm)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSubmitCmd(),
		newStatusCmd(),
		newCancelCmd(),
		newWatchCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)

	return root
}

// newBackend builds a Slurm backend from the active profile.
func newBackend() *backend.Slurm {
	builder := cmdline.NewBuilder(profile)
	return backend.NewSlurm(builder, profile, logger)
}
