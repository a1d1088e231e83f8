package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// itemsCmd 表示items命令，按从旧到新的顺序显示队列内容
var itemsCmd = &cobra.Command{
	Use:     "items [queue-name]",
	Aliases: []string{"iter"},
	Short:   "Display the items of a queue from oldest to newest",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		items, err := GetQueueService().Items(queueName)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintf(out, "Queue '%s' is empty\n", queueName)
			return nil
		}
		for i, item := range items {
			fmt.Fprintf(out, "%d: %s\n", i+1, item)
		}
		return nil
	},
}

// removeCmd 表示remove命令，删除第一个匹配的项目
var removeCmd = &cobra.Command{
	Use:   "remove [queue-name] [item]",
	Short: "Remove the first matching item from a queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName, item := args[0], args[1]

		removed, err := GetQueueService().RemoveItem(queueName, item)
		if err != nil {
			return errors.Wrap(err, "failed to remove item")
		}

		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed '%s' from queue '%s'\n", item, queueName)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Item '%s' not found in queue '%s'\n", item, queueName)
		}
		return nil
	},
}

// clearCmd 表示clear命令，清空队列
var clearCmd = &cobra.Command{
	Use:   "clear [queue-name]",
	Short: "Discard all items of a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		dropped, err := GetQueueService().ClearQueue(queueName)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cleared queue '%s' (%d item(s) discarded)\n", queueName, dropped)
		return nil
	},
}

// deleteCmd 表示delete命令，删除队列
var deleteCmd = &cobra.Command{
	Use:   "delete [queue-name]",
	Short: "Delete a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		if err := GetQueueService().DeleteQueue(queueName); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Queue '%s' deleted\n", queueName)
		return nil
	},
}

// evictedCmd 表示evicted命令，显示最近被淘汰的项目
var evictedCmd = &cobra.Command{
	Use:   "evicted [queue-name]",
	Short: "Display the most recently evicted items of a queue",
	Long: `Display items that were evicted because the queue was full, newest first.
Evicted items are kept in Redis when --redis-addr is set, otherwise in memory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]
		count, _ := cmd.Flags().GetInt64("count")

		items, err := GetQueueService().Evicted(cmd.Context(), queueName, count)
		if err != nil {
			return errors.Wrap(err, "failed to read evicted items")
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintf(out, "No items evicted from queue '%s'\n", queueName)
			return nil
		}
		for i, item := range items {
			fmt.Fprintf(out, "%d: %s\n", i+1, item)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(itemsCmd, removeCmd, clearCmd, deleteCmd, evictedCmd)

	evictedCmd.Flags().Int64P("count", "n", 10, "Maximum number of items to show (0 for all)")
}
