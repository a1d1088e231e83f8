package sink

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RedisConfig 定义 Redis sink 的连接配置
type RedisConfig struct {
	// 连接设置
	Addr     string
	Password string
	DB       int

	// 键前缀，完整的键为 KeyPrefix + 队列名称
	KeyPrefix string

	// 每个队列保留的最大元素数
	MaxLen int64

	// 单次写入的超时时间
	WriteTimeout time.Duration

	// 连接超时时间
	DialTimeout time.Duration
}

// DefaultRedisConfig 返回默认的 Redis sink 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "mri:evicted:",
		MaxLen:       1000,
		WriteTimeout: 500 * time.Millisecond,
		DialTimeout:  time.Second,
	}
}

// RedisSink 把被淘汰的元素写入 Redis 列表
// 每次写入在同一个事务中执行 LPUSH 和 LTRIM，列表长度不超过 MaxLen
type RedisSink struct {
	client *redis.Client
	config RedisConfig
	logger *logrus.Logger

	written atomic.Uint64
	failed  atomic.Uint64
	closed  atomic.Bool
}

// NewRedisSink 创建一个新的 Redis sink，创建时不会连接 Redis
func NewRedisSink(config RedisConfig, logger *logrus.Logger) *RedisSink {
	defaults := DefaultRedisConfig()
	if config.MaxLen <= 0 {
		config.MaxLen = defaults.MaxLen
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = defaults.DialTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.WriteTimeout,
		WriteTimeout: config.WriteTimeout,
		MaxRetries:   -1,
	})

	return &RedisSink{
		client: client,
		config: config,
		logger: logger,
	}
}

// Key 返回队列对应的 Redis 键
func (s *RedisSink) Key(queueName string) string {
	return s.config.KeyPrefix + queueName
}

// Ping 检查 Redis 是否可用
func (s *RedisSink) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(err, "ping redis at %s", s.config.Addr)
	}
	return nil
}

// Write 把元素推入队列对应列表的头部并截断到 MaxLen
func (s *RedisSink) Write(ctx context.Context, queueName string, item string) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
	defer cancel()

	key := s.Key(queueName)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, item)
	pipe.LTrim(ctx, key, 0, s.config.MaxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.failed.Add(1)
		return errors.Wrapf(err, "push evicted item to %s", key)
	}

	s.written.Add(1)
	s.logger.WithFields(logrus.Fields{"queue": queueName, "key": key}).Debug("evicted item recorded")
	return nil
}

// Recent 返回最近被淘汰的元素，n 小于等于0时返回全部
func (s *RedisSink) Recent(ctx context.Context, queueName string, n int64) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrSinkClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
	defer cancel()

	stop := n - 1
	if n <= 0 {
		stop = -1
	}
	items, err := s.client.LRange(ctx, s.Key(queueName), 0, stop).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read evicted items of %s", queueName)
	}
	return items, nil
}

// Stats 返回写入计数
func (s *RedisSink) Stats() Stats {
	return Stats{
		Written: s.written.Load(),
		Failed:  s.failed.Load(),
	}
}

// Close 关闭底层的 Redis 客户端
func (s *RedisSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.client.Close()
}
