package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/mriqueue/internal/queueservice"
)

// offerCmd 表示offer命令，用于向队列添加项目
var offerCmd = &cobra.Command{
	Use:     "offer [queue-name] [items...]",
	Aliases: []string{"enqueue", "add"},
	Short:   "Add items to a queue",
	Long: `Add one or more items to a specified queue.
Items can be given as arguments, as a comma separated --items list, or read from a file.
When the queue is full the oldest items are evicted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 获取队列名称
		queueName := args[0]
		items := args[1:]

		// 获取参数
		list, _ := cmd.Flags().GetString("items")
		filePath, _ := cmd.Flags().GetString("file")

		items = append(items, queueservice.ParseItems(list)...)

		// 检查是否同时指定了项目和文件
		if len(items) > 0 && filePath != "" {
			return errors.New("cannot specify items and --file at the same time")
		}

		// 检查是否没有指定项目和文件
		if len(items) == 0 && filePath == "" {
			return errors.New("must specify items or the --file flag")
		}

		service := GetQueueService()
		out := cmd.OutOrStdout()

		// 从文件批量入队
		if filePath != "" {
			return offerFromFile(out, service, queueName, filePath)
		}

		before, err := service.QueueStats(queueName)
		if err != nil {
			return errors.Wrap(err, "failed to offer items")
		}
		if err := service.OfferItems(queueName, items); err != nil {
			return errors.Wrap(err, "failed to offer items")
		}
		after, _ := service.QueueStats(queueName)

		fmt.Fprintf(out, "Offered %d item(s) to queue '%s'", len(items), queueName)
		if evicted := after.Evicted - before.Evicted; evicted > 0 {
			fmt.Fprintf(out, ", evicted %d", evicted)
		}
		fmt.Fprintln(out)
		return nil
	},
}

// offerFromFile 从文件中读取项目并入队
func offerFromFile(out io.Writer, service queueservice.Service, queueName, filePath string) error {
	// 打开文件
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	// 读取文件内容
	scanner := bufio.NewScanner(file)
	var offered, failed int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // 跳过空行
		}

		if err := service.OfferItem(queueName, line); err != nil {
			failed++
			fmt.Fprintf(out, "Failed to offer: %s - %v\n", line, err)
		} else {
			offered++
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "error reading file")
	}

	fmt.Fprintf(out, "Bulk offer to queue '%s' completed: %d items offered, %d failed\n",
		queueName, offered, failed)
	return nil
}

func init() {
	rootCmd.AddCommand(offerCmd)

	// 添加参数
	offerCmd.Flags().StringP("items", "i", "", "Comma separated items to offer")
	offerCmd.Flags().StringP("file", "f", "", "File containing items to offer (one per line)")
}
