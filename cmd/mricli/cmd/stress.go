package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/mriqueue/internal/stress"
)

// stressCmd 表示stress命令，对并发队列进行压力测试
var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run a concurrency stress test against a fresh concurrent queue",
	Long: `Start several workers that each offer distinct values to one concurrent queue
and perform an extra operation per iteration (poll, peek, iterate, remove, clear,
string or mixed). Per-worker results are printed and the queue invariants are
verified at the end. Press Ctrl+C to stop early.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := stress.DefaultConfig()
		cfg.Workers = appConfig.Stress.Workers
		cfg.Iterations = appConfig.Stress.Iterations
		cfg.Rate = appConfig.Stress.Rate
		cfg.Logger = logger

		flags := cmd.Flags()
		if flags.Changed("workers") {
			cfg.Workers, _ = flags.GetInt("workers")
		}
		if flags.Changed("iterations") {
			cfg.Iterations, _ = flags.GetInt("iterations")
		}
		if flags.Changed("rate") {
			cfg.Rate, _ = flags.GetFloat64("rate")
		}
		cfg.Capacity, _ = flags.GetInt("capacity")
		cfg.Burst, _ = flags.GetInt("burst")
		progress, _ := flags.GetInt("progress")
		cfg.ProgressInterval = time.Duration(progress) * time.Millisecond

		modeName, _ := flags.GetString("mode")
		mode, err := stress.ParseMode(modeName)
		if err != nil {
			return err
		}
		cfg.Mode = mode

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := stress.Run(ctx, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WORKER\tTIME\tITERATIONS\tERRORS\tSUCCESS\tMEAN SIZE\tMAX SIZE")
		for _, res := range report.Results {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%.1f\t%d\n",
				res.Worker,
				res.Duration.Round(time.Millisecond),
				res.Iterations,
				res.Errors,
				res.Succeeded,
				res.MeanSize,
				res.MaxSize)
		}
		w.Flush()

		fmt.Fprintln(out)
		fmt.Fprint(out, report.String())

		if err := report.Verify(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Verification: OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().IntP("workers", "w", 10, "Number of concurrent workers (default from MRI_STRESS_WORKERS)")
	stressCmd.Flags().IntP("iterations", "n", 100000, "Values offered by each worker (default from MRI_STRESS_ITERATIONS)")
	stressCmd.Flags().IntP("capacity", "c", 1000, "Queue capacity")
	stressCmd.Flags().StringP("mode", "m", string(stress.ModeMixed), "Operation per iteration: offer, poll, peek, iterate, remove, clear, string or mixed")
	stressCmd.Flags().Float64P("rate", "r", 0, "Iterations per second per worker (0 for no limit)")
	stressCmd.Flags().Int("burst", 1, "Rate limiter burst size")
	stressCmd.Flags().Int("progress", 1000, "Progress log interval in milliseconds (0 to disable)")
}
