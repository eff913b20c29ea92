package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/slurmgate/internal/cmdline"
	"github.com/me/slurmgate/pkg/model"
)

func newSubmitCmd() *cobra.Command {
	var spec model.JobSpec
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit <run-script> [run-args...]",
		Short: "Submit a job to the batch system",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.RunScript = args[0]
			spec.RunArgs = args[1:]

			if dryRun {
				command, err := cmdline.NewBuilder(profile).Submit(spec)
				if err != nil {
					return err
				}
				fmt.Println(strings.Join(command, " "))
				return nil
			}

			job := model.NewJob(spec)
			id, err := newBackend().Submit(cmd.Context(), job)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			fmt.Printf("Submitted job %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&spec.Name, "name", "J", "", "Job name")
	cmd.Flags().StringVarP(&spec.LogPath, "log", "o", "", "Scheduler log file path")
	cmd.Flags().StringVarP(&spec.Partition, "partition", "p", "", "Partition to run on")
	cmd.Flags().StringVarP(&spec.Exclude, "exclude", "x", "", "Nodes to exclude")
	cmd.Flags().StringVarP(&spec.Clusters, "clusters", "M", "", "Cluster set")
	cmd.Flags().StringVar(&spec.QOS, "qos", "", "Quality of service")
	cmd.Flags().StringVar(&spec.Mem, "mem", "", "Memory limit")
	cmd.Flags().StringVar(&spec.Time, "time", "", "Time limit")
	cmd.Flags().StringVar(&spec.Export, "export", "", "Environment export list")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the submission command without running it")

	return cmd
}
