package queue

import (
	"sync/atomic"
	"time"
)

// Stats 表示队列的统计信息
type Stats struct {
	// 创建时间
	CreatedAt time.Time

	// 队列容量
	Capacity int

	// 当前元素数量
	Size int

	// 成功入队次数
	Offered uint64

	// 通过Poll/Remove出队的元素数
	Polled uint64

	// 因队列已满被淘汰的元素数
	Evicted uint64

	// 通过迭代器或按值删除的元素数
	Removed uint64

	// 被Clear丢弃的元素数
	Cleared uint64

	// 被拒绝的入队操作计数（nil或类型不匹配）
	Rejected uint64

	// 等待锁时被取消的操作计数
	Cancelled uint64
}

// IsEmpty 返回队列是否为空
func (s Stats) IsEmpty() bool {
	return s.Size == 0
}

// IsFull 返回队列是否已满
func (s Stats) IsFull() bool {
	return s.Capacity > 0 && s.Size >= s.Capacity
}

// Utilization 返回队列利用率，范围从0到1
func (s Stats) Utilization() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.Size) / float64(s.Capacity)
}

// Departed 返回离开队列的元素总数，不论原因
func (s Stats) Departed() uint64 {
	return s.Polled + s.Evicted + s.Removed + s.Cleared
}

// counters 是并发实现使用的原子计数器
type counters struct {
	offered   atomic.Uint64
	polled    atomic.Uint64
	evicted   atomic.Uint64
	removed   atomic.Uint64
	cleared   atomic.Uint64
	rejected  atomic.Uint64
	cancelled atomic.Uint64
}

func (c *counters) fill(s *Stats) {
	s.Offered = c.offered.Load()
	s.Polled = c.polled.Load()
	s.Evicted = c.evicted.Load()
	s.Removed = c.removed.Load()
	s.Cleared = c.cleared.Load()
	s.Rejected = c.rejected.Load()
	s.Cancelled = c.cancelled.Load()
}
