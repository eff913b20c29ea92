package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/slurmgate/pkg/model"
)

func newStatusCmd() *cobra.Command {
	var spec model.JobSpec

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Query the status of a submitted job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("job id must be an integer: %q", args[0])
			}

			job := model.NewJob(spec)
			job.ID = id

			b := newBackend()
			status, err := b.Status(cmd.Context(), job)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			fmt.Printf("Job %d: %s\n", id, status)
			if status.IsTerminal() {
				code, err := b.ExitCode(cmd.Context(), job)
				if err != nil {
					return fmt.Errorf("exit code: %w", err)
				}
				fmt.Printf("  Exit code: %s\n", code)
				if job.ExitCode == profile.SuccessCode {
					fmt.Println("  Result: success")
				} else {
					fmt.Println("  Result: failure")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&spec.Partition, "partition", "p", "", "Partition qualifier for the query")
	cmd.Flags().StringVarP(&spec.Clusters, "clusters", "M", "", "Cluster qualifier for the query")

	return cmd
}
