package queueservice

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/mriqueue/queue"
)

var (
	// ErrQueueNotFound 表示请求的队列不存在
	ErrQueueNotFound = errors.New("queue not found")

	// ErrQueueExists 表示队列已存在
	ErrQueueExists = errors.New("queue already exists")

	// ErrUnknownQueueType 表示不支持的队列类型
	ErrUnknownQueueType = errors.New("unknown queue type")

	// ErrNoEvictionSink 表示服务没有配置淘汰元素的 sink
	ErrNoEvictionSink = errors.New("no eviction sink configured")
)

// QueueType 定义队列类型
type QueueType string

const (
	// SequentialQueue 单线程队列类型，服务为其加锁
	SequentialQueue QueueType = "sequential"
	// ConcurrentQueue 并发安全队列类型
	ConcurrentQueue QueueType = "concurrent"
)

// ParseQueueType 解析队列类型名称
func ParseQueueType(s string) (QueueType, error) {
	switch QueueType(strings.ToLower(strings.TrimSpace(s))) {
	case SequentialQueue:
		return SequentialQueue, nil
	case ConcurrentQueue, "":
		return ConcurrentQueue, nil
	default:
		return "", errors.Wrapf(ErrUnknownQueueType, "%q", s)
	}
}

// QueueOptions 表示创建队列时的选项
type QueueOptions struct {
	// 队列类型
	Type QueueType
	// 队列容量
	Capacity int
}

// QueueInfo 包含队列的基本信息
type QueueInfo struct {
	// 队列名称
	Name string
	// 队列类型
	Type QueueType
	// 队列状态
	Stats queue.Stats
}

// Service 定义队列服务接口
type Service interface {
	// CreateQueue 创建一个新队列，名称为空时生成一个随机名称
	CreateQueue(name string, opts QueueOptions) (string, error)

	// GetQueue 获取指定名称的队列
	GetQueue(name string) (queue.Collection[string], error)

	// ListQueues 按名称顺序列出所有队列
	ListQueues() []QueueInfo

	// OfferItem 向指定队列添加项目，队列已满时淘汰最旧的项目
	OfferItem(queueName string, item string) error

	// OfferItems 在一次操作中向指定队列添加多个项目
	OfferItems(queueName string, items []string) error

	// PollItem 从指定队列取出队头项目
	PollItem(queueName string) (string, error)

	// PeekItem 查看指定队列的队头项目
	PeekItem(queueName string) (string, error)

	// Items 返回指定队列的全部项目
	Items(queueName string) ([]string, error)

	// RemoveItem 删除第一个与item相等的项目
	RemoveItem(queueName string, item string) (bool, error)

	// ClearQueue 清空队列，返回被丢弃的项目数
	ClearQueue(queueName string) (int, error)

	// QueueStats 获取队列统计信息
	QueueStats(queueName string) (queue.Stats, error)

	// Evicted 返回最近被淘汰的项目
	Evicted(ctx context.Context, queueName string, n int64) ([]string, error)

	// Snapshot 返回队列的可序列化快照
	Snapshot(queueName string) (QueueData, error)

	// Restore 根据快照重建队列
	Restore(data QueueData) error

	// DeleteQueue 删除队列
	DeleteQueue(queueName string) error

	// Close 删除所有队列并关闭 sink
	Close() error
}
