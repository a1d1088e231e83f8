package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/mriqueue/queue"
)

// monitorCmd 表示monitor命令，用于实时监控队列状态
var monitorCmd = &cobra.Command{
	Use:   "monitor [queue-name]",
	Short: "Monitor queue activity in real-time",
	Long: `Watch queue statistics update in real-time.
Press Ctrl+C to stop monitoring.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 获取队列名称
		queueName := args[0]

		// 获取刷新间隔和次数
		interval, _ := cmd.Flags().GetInt("interval")
		times, _ := cmd.Flags().GetInt("times")
		if interval <= 0 {
			return errors.New("interval must be positive")
		}
		refreshDuration := time.Duration(interval) * time.Millisecond

		service := GetQueueService()

		// 检查队列是否存在
		prev, err := service.QueueStats(queueName)
		if err != nil {
			return err
		}
		prevTime := time.Now()

		// 设置信号处理，捕获Ctrl+C
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Monitoring queue '%s' (refresh: %v, press Ctrl+C to stop)...\n\n",
			queueName, refreshDuration)

		// 监控循环
		ticker := time.NewTicker(refreshDuration)
		defer ticker.Stop()

		for n := 0; times <= 0 || n < times; n++ {
			select {
			case <-ticker.C:
				stats, err := service.QueueStats(queueName)
				if err != nil {
					return err
				}

				now := time.Now()
				renderMonitor(out, queueName, prev, stats, now.Sub(prevTime), times <= 0)
				prev, prevTime = stats, now

			case <-sigChan:
				// 收到中断信号，退出监控
				fmt.Fprintln(out, "\nMonitoring stopped.")
				return nil
			}
		}
		return nil
	},
}

// renderMonitor 输出一次监控刷新的内容
func renderMonitor(out io.Writer, queueName string, prev, stats queue.Stats, elapsed time.Duration, redraw bool) {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	offerRate := float64(stats.Offered-prev.Offered) / seconds
	pollRate := float64(stats.Polled-prev.Polled) / seconds
	evictRate := float64(stats.Evicted-prev.Evicted) / seconds

	if redraw {
		// 清屏，移动光标到左上角
		fmt.Fprint(out, "\033[H\033[2J")
	}

	fmt.Fprintf(out, "Time: %s\n\n", time.Now().Format("15:04:05"))
	fmt.Fprintf(out, "Queue: %s\n", queueName)
	fmt.Fprintf(out, "Size: %d/%d (%.1f%% full)\n", stats.Size, stats.Capacity, stats.Utilization()*100)
	fmt.Fprintf(out, "Operations: %d offered, %d polled, %d evicted\n", stats.Offered, stats.Polled, stats.Evicted)
	fmt.Fprintf(out, "Rate: %.2f offer/s, %.2f poll/s, %.2f evict/s\n", offerRate, pollRate, evictRate)

	if stats.Removed > 0 || stats.Cleared > 0 {
		fmt.Fprintf(out, "Dropped: %d removed, %d cleared\n", stats.Removed, stats.Cleared)
	}
	if stats.Rejected > 0 {
		fmt.Fprintf(out, "Rejected: %d\n", stats.Rejected)
	}
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	// 添加参数
	monitorCmd.Flags().IntP("interval", "i", 1000, "Refresh interval in milliseconds")
	monitorCmd.Flags().IntP("times", "n", 0, "Stop after this many refreshes (0 for no limit)")
}
