package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deva-0608/dataslide/internal/jobs"
)

var workerOnce bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the job coordinator over the storage tree",
	Long: `worker sweeps uploads/ for jobs that have not been processed, runs each one to
completion in turn, then sleeps poll_interval_sec before the next sweep. It stops on
SIGINT/SIGTERM. With --once it performs a single sweep and exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		store := jobs.NewStore(c.StorageRoot)
		coord := newCoordinator(c, store, newPipeline(c, store), log)
		ctx, stop := signalContext()
		defer stop()

		if !workerOnce {
			return coord.Run(ctx)
		}
		st, err := coord.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Swept %d job(s): %d completed, %d failed, %d skipped\n",
			st.Jobs, st.Completed, st.Failed, st.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "perform a single sweep and exit")
}
