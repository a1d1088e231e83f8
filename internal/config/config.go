package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// 环境变量名称
const (
	EnvLogLevel         = "MRI_LOG_LEVEL"
	EnvCapacity         = "MRI_CAPACITY"
	EnvQueueType        = "MRI_QUEUE_TYPE"
	EnvRedisAddr        = "MRI_REDIS_ADDR"
	EnvRedisPassword    = "MRI_REDIS_PASSWORD"
	EnvRedisDB          = "MRI_REDIS_DB"
	EnvRedisPrefix      = "MRI_REDIS_PREFIX"
	EnvRedisMaxLen      = "MRI_REDIS_MAXLEN"
	EnvRedisTimeout     = "MRI_REDIS_TIMEOUT"
	EnvStressWorkers    = "MRI_STRESS_WORKERS"
	EnvStressIterations = "MRI_STRESS_ITERATIONS"
	EnvStressRate       = "MRI_STRESS_RATE"
)

type (
	// Config 是 mricli 的应用配置
	Config struct {
		LogLevel logrus.Level
		Queue    Queue
		Redis    Redis
		Stress   Stress
	}

	// Queue 是新建队列的默认参数
	Queue struct {
		Capacity int
		Type     string
	}

	// Redis 配置淘汰元素的镜像，Addr 为空表示不启用
	Redis struct {
		Addr         string
		Password     string
		DB           int
		KeyPrefix    string
		MaxLen       int64
		WriteTimeout time.Duration
	}

	// Stress 是压力测试的默认参数
	Stress struct {
		Workers    int
		Iterations int
		Rate       float64
	}
)

// Default 返回默认配置
func Default() *Config {
	return &Config{
		LogLevel: logrus.InfoLevel,
		Queue: Queue{
			Capacity: 100,
			Type:     "concurrent",
		},
		Redis: Redis{
			KeyPrefix:    "mri:evicted:",
			MaxLen:       1000,
			WriteTimeout: 500 * time.Millisecond,
		},
		Stress: Stress{
			Workers:    10,
			Iterations: 100000,
		},
	}
}

// Enabled 报告是否配置了 Redis 镜像
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Load 从环境变量加载配置，未设置的项使用默认值
func Load() (*Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvLogLevel); ok {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvLogLevel)
		}
		cfg.LogLevel = level
	}

	if err := loadInt(EnvCapacity, &cfg.Queue.Capacity); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvQueueType); ok {
		cfg.Queue.Type = v
	}

	if v, ok := lookup(EnvRedisAddr); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup(EnvRedisPassword); ok {
		cfg.Redis.Password = v
	}
	if err := loadInt(EnvRedisDB, &cfg.Redis.DB); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvRedisPrefix); ok {
		cfg.Redis.KeyPrefix = v
	}
	if v, ok := lookup(EnvRedisMaxLen); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvRedisMaxLen)
		}
		cfg.Redis.MaxLen = n
	}
	if v, ok := lookup(EnvRedisTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvRedisTimeout)
		}
		cfg.Redis.WriteTimeout = d
	}

	if err := loadInt(EnvStressWorkers, &cfg.Stress.Workers); err != nil {
		return nil, err
	}
	if err := loadInt(EnvStressIterations, &cfg.Stress.Iterations); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvStressRate); ok {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvStressRate)
		}
		cfg.Stress.Rate = r
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	if c.Queue.Capacity <= 0 {
		return errors.Errorf("queue capacity must be positive, got %d", c.Queue.Capacity)
	}
	switch c.Queue.Type {
	case "sequential", "concurrent":
	default:
		return errors.Errorf("unknown queue type %q", c.Queue.Type)
	}
	if c.Redis.MaxLen <= 0 {
		return errors.Errorf("redis max length must be positive, got %d", c.Redis.MaxLen)
	}
	if c.Stress.Workers <= 0 || c.Stress.Iterations <= 0 {
		return errors.New("stress workers and iterations must be positive")
	}
	if c.Stress.Rate < 0 {
		return errors.New("stress rate must not be negative")
	}
	return nil
}

// NewLogger 创建按配置级别输出的日志记录器
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func loadInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = n
	return nil
}
