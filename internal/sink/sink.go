package sink

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/mriqueue/queue"
)

// ErrSinkClosed 表示在已关闭的 sink 上执行写入
var ErrSinkClosed = errors.New("sink is closed")

// Sink 接收被队列淘汰的元素
// 写入失败只会被记录，不会影响队列本身
type Sink interface {
	// Write 记录一个被淘汰的元素
	Write(ctx context.Context, queueName string, item string) error

	// Recent 按从新到旧的顺序返回最近最多n个被淘汰的元素
	Recent(ctx context.Context, queueName string, n int64) ([]string, error)

	// Close 释放 sink 持有的资源
	Close() error
}

// Stats 是 sink 的写入计数
type Stats struct {
	Written uint64
	Failed  uint64
}

// Listener 返回一个把淘汰事件转发给 sink 的队列事件监听器
func Listener(s Sink, queueName string, logger *logrus.Logger) queue.EventListener {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(e queue.Event) {
		if e.Type != queue.EventEvict {
			return
		}
		if err := s.Write(context.Background(), queueName, fmt.Sprint(e.Item)); err != nil {
			logger.WithError(err).WithField("queue", queueName).Warn("failed to record evicted item")
		}
	}
}

// MemorySink 在内存中为每个队列保留最近被淘汰的元素
type MemorySink struct {
	maxLen  int
	mu      sync.Mutex
	items   map[string][]string
	closed  bool
	written atomic.Uint64
}

// NewMemorySink 创建一个新的内存 sink，每个队列最多保留 maxLen 个元素
func NewMemorySink(maxLen int) *MemorySink {
	if maxLen <= 0 {
		maxLen = 1
	}
	return &MemorySink{
		maxLen: maxLen,
		items:  make(map[string][]string),
	}
}

// Write 记录一个被淘汰的元素
func (s *MemorySink) Write(_ context.Context, queueName string, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	// 与 LPUSH 一致，最新的元素在最前面
	list := append([]string{item}, s.items[queueName]...)
	if len(list) > s.maxLen {
		list = list[:s.maxLen]
	}
	s.items[queueName] = list
	s.written.Add(1)
	return nil
}

// Recent 返回最近被淘汰的元素
func (s *MemorySink) Recent(_ context.Context, queueName string, n int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSinkClosed
	}

	list := s.items[queueName]
	if n > 0 && int(n) < len(list) {
		list = list[:n]
	}
	result := make([]string, len(list))
	copy(result, list)
	return result, nil
}

// Stats 返回写入计数
func (s *MemorySink) Stats() Stats {
	return Stats{Written: s.written.Load()}
}

// Close 关闭 sink 并丢弃所有元素
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.items = make(map[string][]string)
	return nil
}
