package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/mriqueue/internal/queueservice"
)

// createCmd 表示create命令，用于创建新队列
var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new queue",
	Long: `Create a new MRI queue with the given capacity.
Sequential queues are guarded by the service, concurrent queues use their own lock.
If no name is given a random one is generated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 获取队列名称
		var name string
		if len(args) > 0 {
			name = args[0]
		}

		// 获取参数，未指定时使用配置中的默认值
		queueType, _ := cmd.Flags().GetString("type")
		capacity, _ := cmd.Flags().GetInt("capacity")
		if queueType == "" {
			queueType = appConfig.Queue.Type
		}
		if capacity == 0 {
			capacity = appConfig.Queue.Capacity
		}

		qType, err := queueservice.ParseQueueType(queueType)
		if err != nil {
			return err
		}

		// 创建队列
		service := GetQueueService()
		name, err = service.CreateQueue(name, queueservice.QueueOptions{
			Type:     qType,
			Capacity: capacity,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create queue")
		}

		// 显示成功信息
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Queue '%s' created successfully.\n", name)
		fmt.Fprintf(out, "Type: %s\n", qType)
		fmt.Fprintf(out, "Capacity: %d\n", capacity)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	// 添加参数
	createCmd.Flags().StringP("type", "t", "", "Queue type: 'sequential' or 'concurrent' (default from MRI_QUEUE_TYPE)")
	createCmd.Flags().IntP("capacity", "c", 0, "Queue capacity (default from MRI_CAPACITY)")
}
