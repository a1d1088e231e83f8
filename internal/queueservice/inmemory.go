package queueservice

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/mriqueue/internal/sink"
	"github.com/fyerfyer/mriqueue/queue"
)

// ServiceOption 用于配置内存队列服务
type ServiceOption func(*InMemoryService)

// WithEvictionSink 为服务创建的每个队列挂载淘汰元素的 sink
func WithEvictionSink(s sink.Sink) ServiceOption {
	return func(svc *InMemoryService) {
		svc.sink = s
	}
}

// WithLogger 设置服务和队列使用的日志记录器
func WithLogger(logger *logrus.Logger) ServiceOption {
	return func(svc *InMemoryService) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

// InMemoryService 实现了Service接口的内存存储版本
type InMemoryService struct {
	// 队列名称到队列实例的映射
	queues map[string]*queueEntry
	// 保护映射的互斥锁
	mu sync.RWMutex

	sink   sink.Sink
	logger *logrus.Logger
}

// queueEntry 包含队列及其元数据
type queueEntry struct {
	// 队列实例
	q queue.Collection[string]
	// 队列类型
	qType QueueType
	// 单线程队列需要服务加锁，并发队列使用空锁
	guard sync.Locker
	// 创建时间
	createdAt time.Time
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// do 在队列的保护下执行 f
func (e *queueEntry) do(f func(q queue.Collection[string])) {
	e.guard.Lock()
	defer e.guard.Unlock()
	f(e.q)
}

// NewInMemoryService 创建一个新的内存队列服务
func NewInMemoryService(opts ...ServiceOption) *InMemoryService {
	svc := &InMemoryService{
		queues: make(map[string]*queueEntry),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateQueue 创建一个新队列
func (s *InMemoryService) CreateQueue(name string, opts QueueOptions) (string, error) {
	qType, err := ParseQueueType(string(opts.Type))
	if err != nil {
		return "", err
	}
	if name == "" {
		name = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 检查队列是否已存在
	if _, exists := s.queues[name]; exists {
		return "", errors.Wrapf(ErrQueueExists, "queue %q", name)
	}

	queueOpts := []queue.Option{queue.WithLogger(s.logger)}
	if s.sink != nil {
		queueOpts = append(queueOpts, queue.WithEventListener(sink.Listener(s.sink, name, s.logger)))
	}

	// 创建相应类型的队列
	entry := &queueEntry{qType: qType, createdAt: time.Now()}
	switch qType {
	case SequentialQueue:
		entry.q, err = queue.NewSequentialQueue[string](opts.Capacity, queueOpts...)
		entry.guard = &sync.Mutex{}
	default:
		entry.q, err = queue.NewConcurrentQueue[string](opts.Capacity, queueOpts...)
		entry.guard = noopLocker{}
	}
	if err != nil {
		return "", errors.Wrapf(err, "create queue %q", name)
	}

	s.queues[name] = entry
	s.logger.WithFields(logrus.Fields{
		"queue":    name,
		"type":     qType,
		"capacity": opts.Capacity,
	}).Info("queue created")

	return name, nil
}

func (s *InMemoryService) entry(name string) (*queueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.queues[name]
	if !exists {
		return nil, errors.Wrapf(ErrQueueNotFound, "queue %q", name)
	}
	return entry, nil
}

// GetQueue 获取指定名称的队列
// 返回的单线程队列不受服务的锁保护，调用方需自行保证单协程访问
func (s *InMemoryService) GetQueue(name string) (queue.Collection[string], error) {
	entry, err := s.entry(name)
	if err != nil {
		return nil, err
	}
	return entry.q, nil
}

// ListQueues 列出所有队列
func (s *InMemoryService) ListQueues() []QueueInfo {
	s.mu.RLock()
	entries := make(map[string]*queueEntry, len(s.queues))
	for name, entry := range s.queues {
		entries[name] = entry
	}
	s.mu.RUnlock()

	result := make([]QueueInfo, 0, len(entries))
	for name, entry := range entries {
		info := QueueInfo{Name: name, Type: entry.qType}
		entry.do(func(q queue.Collection[string]) {
			info.Stats = q.Stats()
		})
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// OfferItem 向指定队列添加项目
func (s *InMemoryService) OfferItem(queueName string, item string) error {
	entry, err := s.entry(queueName)
	if err != nil {
		return err
	}

	entry.do(func(q queue.Collection[string]) {
		_, err = q.Offer(item)
	})
	return err
}

// OfferItems 向指定队列批量添加项目
func (s *InMemoryService) OfferItems(queueName string, items []string) error {
	entry, err := s.entry(queueName)
	if err != nil {
		return err
	}

	entry.do(func(q queue.Collection[string]) {
		_, err = q.AddAll(items...)
	})
	return err
}

// PollItem 从指定队列获取项目，队列为空时返回queue.ErrQueueEmpty
func (s *InMemoryService) PollItem(queueName string) (string, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return "", err
	}

	var item string
	entry.do(func(q queue.Collection[string]) {
		item, err = q.Remove()
	})
	return item, err
}

// PeekItem 查看指定队列的队头项目
func (s *InMemoryService) PeekItem(queueName string) (string, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return "", err
	}

	var item string
	entry.do(func(q queue.Collection[string]) {
		item, err = q.Element()
	})
	return item, err
}

// Items 返回指定队列的全部项目
func (s *InMemoryService) Items(queueName string) ([]string, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return nil, err
	}

	var items []string
	entry.do(func(q queue.Collection[string]) {
		items = q.ToSlice()
	})
	return items, nil
}

// RemoveItem 通过迭代器删除第一个匹配的项目
// 不支持迭代器删除的队列退回到按值删除
func (s *InMemoryService) RemoveItem(queueName string, item string) (bool, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return false, err
	}

	var removed bool
	entry.do(func(q queue.Collection[string]) {
		removed, err = removeFirst(q, item)
	})
	return removed, err
}

func removeFirst(q queue.Collection[string], item string) (bool, error) {
	it := q.Iterator()
	for it.HasNext() {
		v, err := it.Next()
		if errors.Is(err, queue.ErrNoSuchElement) {
			// 剩余的元素被并发取走
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if v != item {
			continue
		}

		err = it.Remove()
		if errors.Is(err, queue.ErrUnsupportedOperation) {
			return q.RemoveValue(item), nil
		}
		if err != nil {
			return false, errors.Wrap(err, "remove item")
		}
		return true, nil
	}
	return false, nil
}

// ClearQueue 清空队列
func (s *InMemoryService) ClearQueue(queueName string) (int, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return 0, err
	}

	var dropped int
	entry.do(func(q queue.Collection[string]) {
		dropped = q.Discard()
	})

	s.logger.WithFields(logrus.Fields{"queue": queueName, "dropped": dropped}).Debug("queue cleared")
	return dropped, nil
}

// QueueStats 获取队列统计信息
func (s *InMemoryService) QueueStats(queueName string) (queue.Stats, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return queue.Stats{}, err
	}

	var stats queue.Stats
	entry.do(func(q queue.Collection[string]) {
		stats = q.Stats()
	})
	return stats, nil
}

// Evicted 返回最近被淘汰的项目
func (s *InMemoryService) Evicted(ctx context.Context, queueName string, n int64) ([]string, error) {
	if _, err := s.entry(queueName); err != nil {
		return nil, err
	}
	if s.sink == nil {
		return nil, ErrNoEvictionSink
	}
	return s.sink.Recent(ctx, queueName, n)
}

// Snapshot 返回队列的可序列化快照
func (s *InMemoryService) Snapshot(queueName string) (QueueData, error) {
	entry, err := s.entry(queueName)
	if err != nil {
		return QueueData{}, err
	}

	data := QueueData{
		Name:      queueName,
		Type:      entry.qType,
		CreatedAt: entry.createdAt,
	}
	entry.do(func(q queue.Collection[string]) {
		data.Capacity = q.Capacity()
		data.Items = q.ToSlice()
	})
	return data, nil
}

// Restore 根据快照重建队列，同名队列已存在时返回ErrQueueExists
func (s *InMemoryService) Restore(data QueueData) error {
	name, err := s.CreateQueue(data.Name, QueueOptions{Type: data.Type, Capacity: data.Capacity})
	if err != nil {
		return err
	}
	if len(data.Items) == 0 {
		return nil
	}
	if err := s.OfferItems(name, data.Items); err != nil {
		_ = s.DeleteQueue(name)
		return errors.Wrapf(err, "restore items of %q", name)
	}
	return nil
}

// DeleteQueue 删除队列
func (s *InMemoryService) DeleteQueue(queueName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.queues[queueName]
	if !exists {
		return errors.Wrapf(ErrQueueNotFound, "queue %q", queueName)
	}

	// 清空队列后删除
	entry.do(func(q queue.Collection[string]) {
		q.Clear()
	})
	delete(s.queues, queueName)

	s.logger.WithField("queue", queueName).Info("queue deleted")
	return nil
}

// Close 删除所有队列并关闭 sink
func (s *InMemoryService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.queues {
		entry.do(func(q queue.Collection[string]) {
			q.Clear()
		})
	}
	s.queues = make(map[string]*queueEntry)

	if s.sink != nil {
		return errors.Wrap(s.sink.Close(), "close eviction sink")
	}
	return nil
}
