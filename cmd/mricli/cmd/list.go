package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/mriqueue/internal/queueservice"
)

// listCmd 表示list命令，用于列出所有队列
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all queues",
	Long:  `Display a list of all available queues and their basic information.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 获取所有队列
		queues := GetQueueService().ListQueues()
		out := cmd.OutOrStdout()

		// 检查是否有队列
		if len(queues) == 0 {
			fmt.Fprintln(out, "No queues available.")
			return
		}

		verbose, _ := cmd.Flags().GetBool("verbose")

		if verbose {
			// 详细模式：显示每个队列的完整信息
			fmt.Fprintf(out, "Found %d queue(s):\n\n", len(queues))
			for i, info := range queues {
				if i > 0 {
					fmt.Fprintln(out, "---")
				}
				fmt.Fprint(out, queueservice.FormatQueueInfo(info))
			}
			return
		}

		// 表格模式：使用表格格式显示简洁信息
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tCAPACITY\tOPERATIONS")

		for _, info := range queues {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d offered, %d polled, %d evicted\n",
				info.Name,
				info.Type,
				info.Stats.Size,
				info.Stats.Capacity,
				info.Stats.Offered,
				info.Stats.Polled,
				info.Stats.Evicted)
		}
		w.Flush()
	},
}

// statsCmd 表示stats命令，用于显示队列的统计信息
var statsCmd = &cobra.Command{
	Use:   "stats [queue-name]",
	Short: "Display queue statistics",
	Long: `Display detailed statistics for a specified queue.
This includes size, capacity, offered, polled and evicted counts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 获取队列名称
		queueName := args[0]

		// 获取统计信息
		stats, err := GetQueueService().QueueStats(queueName)
		if err != nil {
			return err
		}

		// 格式化并显示统计信息
		fmt.Fprintf(cmd.OutOrStdout(), "Statistics for queue '%s':\n\n", queueName)
		fmt.Fprint(cmd.OutOrStdout(), queueservice.FormatQueueStats(stats))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, statsCmd)

	// 添加参数
	listCmd.Flags().BoolP("verbose", "v", false, "Show detailed information for each queue")
}
