package cmd

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fyerfyer/mriqueue/internal/config"
	"github.com/fyerfyer/mriqueue/internal/queueservice"
	"github.com/fyerfyer/mriqueue/internal/sink"
)

var (
	// 队列服务实例，所有命令共享
	queueSvc queueservice.Service

	// 应用配置和日志记录器
	appConfig = config.Default()
	logger    = logrus.New()

	// 持久性标志
	logLevel  string
	redisAddr string

	initOnce sync.Once
	initErr  error
)

// rootCmd 表示CLI工具的根命令
var rootCmd = &cobra.Command{
	Use:   "mricli",
	Short: "A CLI tool for managing most-recently-inserted queues",
	Long: `MRI CLI (mricli) is a command line interface for bounded queues that keep
only the most recently inserted items. Offering to a full queue evicts the oldest
item instead of failing. Queues can be sequential or concurrent, and evicted items
can be mirrored to Redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initOnce.Do(func() {
			initErr = initService()
		})
		return initErr
	},
	Run: func(cmd *cobra.Command, args []string) {
		// 如果没有子命令被调用，显示帮助信息
		cmd.Help()
	},
}

// Execute 运行根命令并处理任何错误
// 没有参数时直接进入交互模式
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	appConfig = cfg
	logger = cfg.NewLogger()

	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"interactive"})
	}

	err = rootCmd.Execute()

	// 在程序结束时关闭队列服务
	if queueSvc != nil {
		if cerr := queueSvc.Close(); cerr != nil {
			logger.WithError(cerr).Warn("failed to close queue service")
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

// init 初始化根命令
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides MRI_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "Redis address for mirroring evicted items (overrides MRI_REDIS_ADDR)")
}

// initService 按配置和标志创建队列服务
func initService() error {
	if logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrap(err, "invalid --log-level")
		}
		appConfig.LogLevel = level
		logger.SetLevel(level)
	}
	if redisAddr != "" {
		appConfig.Redis.Addr = redisAddr
	}

	queueSvc = queueservice.NewInMemoryService(
		queueservice.WithLogger(logger),
		queueservice.WithEvictionSink(newEvictionSink()),
	)
	return nil
}

// newEvictionSink 优先使用 Redis，不可用时退回到内存
func newEvictionSink() sink.Sink {
	memory := sink.NewMemorySink(int(appConfig.Redis.MaxLen))
	if !appConfig.Redis.Enabled() {
		return memory
	}

	redisSink := sink.NewRedisSink(sink.RedisConfig{
		Addr:         appConfig.Redis.Addr,
		Password:     appConfig.Redis.Password,
		DB:           appConfig.Redis.DB,
		KeyPrefix:    appConfig.Redis.KeyPrefix,
		MaxLen:       appConfig.Redis.MaxLen,
		WriteTimeout: appConfig.Redis.WriteTimeout,
	}, logger)

	if err := redisSink.Ping(context.Background()); err != nil {
		logger.WithError(err).Warn("redis unavailable, keeping evicted items in memory")
		_ = redisSink.Close()
		return memory
	}

	logger.WithField("addr", appConfig.Redis.Addr).Info("mirroring evicted items to redis")
	return redisSink
}

// GetQueueService 返回队列服务实例，供子命令使用
func GetQueueService() queueservice.Service {
	return queueSvc
}

// resetFlags 把所有命令的标志恢复为默认值
// 交互模式下同一组命令会被多次执行，上一次的标志不能带到下一次
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
