package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/mriqueue/queue"
)

// pollCmd 表示poll命令，用于从队列获取项目
var pollCmd = &cobra.Command{
	Use:     "poll [queue-name]",
	Aliases: []string{"dequeue"},
	Short:   "Remove and display items from the head of a queue",
	Long: `Remove and display one or more items from a specified queue.
Polling an empty queue is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 获取队列名称
		queueName := args[0]

		// 获取参数
		count, _ := cmd.Flags().GetInt("count")
		silent, _ := cmd.Flags().GetBool("silent")

		// 验证参数
		if count < 0 {
			return errors.New("count must be a non-negative number")
		}

		// 如果count为0，则设置为1（默认行为）
		if count == 0 {
			count = 1
		}

		service := GetQueueService()
		out := cmd.OutOrStdout()

		// 批量出队
		var polled int
		for i := 0; i < count; i++ {
			item, err := service.PollItem(queueName)
			if errors.Is(err, queue.ErrQueueEmpty) {
				if i == 0 {
					fmt.Fprintf(out, "Queue '%s' is empty\n", queueName)
				}
				break
			}
			if err != nil {
				return errors.Wrap(err, "failed to poll item")
			}

			polled++
			if !silent {
				fmt.Fprintf(out, "Item %d: %s\n", i+1, item)
			}
		}

		// 显示汇总信息
		if polled > 0 && (silent || polled > 1) {
			fmt.Fprintf(out, "Polled %d item(s) from queue '%s'\n", polled, queueName)
		}

		return nil
	},
}

// peekCmd 表示peek命令，用于查看队头项目
var peekCmd = &cobra.Command{
	Use:   "peek [queue-name]",
	Short: "Display the head of a queue without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		item, err := GetQueueService().PeekItem(queueName)
		if errors.Is(err, queue.ErrQueueEmpty) {
			fmt.Fprintf(cmd.OutOrStdout(), "Queue '%s' is empty\n", queueName)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to peek")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Head: %s\n", item)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollCmd, peekCmd)

	// 添加参数
	pollCmd.Flags().IntP("count", "c", 1, "Number of items to poll")
	pollCmd.Flags().BoolP("silent", "s", false, "Silent mode (don't print items)")
}
