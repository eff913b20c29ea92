package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/slurmgate/pkg/model"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a submitted job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("job id must be an integer: %q", args[0])
			}

			job := model.NewJob(model.JobSpec{})
			job.ID = id

			if err := newBackend().Cancel(cmd.Context(), job); err != nil {
				return fmt.Errorf("cancel: %w", err)
			}
			fmt.Printf("Cancellation requested for job %d\n", id)
			return nil
		},
	}
}
