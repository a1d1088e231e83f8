package queue

import (
	"fmt"
	"time"
)

// SequentialQueue 是非线程安全的MRI队列参考实现
// 只能在单个协程中使用，并发修改的行为未定义
type SequentialQueue[T comparable] struct {
	opts     *Options
	capacity int
	list     chain[T]
	nils     nilChecker[T]
	events   *EventEmitter
	stats    Stats
}

// NewSequentialQueue 创建一个新的单线程MRI队列
func NewSequentialQueue[T comparable](capacity int, options ...Option) (*SequentialQueue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	opts := applyOptions(options)

	return &SequentialQueue[T]{
		opts:     opts,
		capacity: capacity,
		nils:     newNilChecker[T](),
		events:   NewEventEmitter(opts.EventListeners),
		stats:    Stats{CreatedAt: time.Now(), Capacity: capacity},
	}, nil
}

// Offer 将元素添加到队列尾部，队列已满时先淘汰队头元素
func (q *SequentialQueue[T]) Offer(item T) (bool, error) {
	if q.nils.isNil(item) {
		q.reject(ErrNilItem)
		return false, ErrNilItem
	}

	if q.list.size >= q.capacity {
		if n, ok := q.list.popFront(); ok {
			q.stats.Evicted++
			q.emit(Event{Type: EventEvict, Item: n.value, Size: q.list.size})
		}
	}

	q.list.pushBack(item)
	q.stats.Offered++
	q.emit(Event{Type: EventOffer, Item: item, Size: q.list.size})
	return true, nil
}

// OfferAny 将动态类型的值入队
func (q *SequentialQueue[T]) OfferAny(item any) (bool, error) {
	v, ok := item.(T)
	if !ok {
		var zero T
		err := fmt.Errorf("%w: cannot offer %T to queue of %T", ErrTypeMismatch, item, zero)
		q.reject(err)
		return false, err
	}
	return q.Offer(v)
}

// Add 将元素入队，失败时返回错误
func (q *SequentialQueue[T]) Add(item T) error {
	_, err := q.Offer(item)
	return err
}

// AddAll 批量入队，任意元素为nil时不做任何修改
func (q *SequentialQueue[T]) AddAll(items ...T) (bool, error) {
	for _, item := range items {
		if q.nils.isNil(item) {
			q.reject(ErrNilItem)
			return false, ErrNilItem
		}
	}
	for _, item := range items {
		if _, err := q.Offer(item); err != nil {
			return true, err
		}
	}
	return len(items) > 0, nil
}

// Poll 移除并返回队头元素
func (q *SequentialQueue[T]) Poll() (T, bool) {
	n, ok := q.list.popFront()
	if !ok {
		var zero T
		return zero, false
	}
	q.stats.Polled++
	q.emit(Event{Type: EventPoll, Item: n.value, Size: q.list.size})
	return n.value, true
}

// Remove 移除并返回队头元素，队列为空时返回ErrQueueEmpty
func (q *SequentialQueue[T]) Remove() (T, error) {
	item, ok := q.Poll()
	if !ok {
		return item, ErrQueueEmpty
	}
	return item, nil
}

// Peek 查看队头元素但不移除
func (q *SequentialQueue[T]) Peek() (T, bool) {
	if q.list.head == nil {
		var zero T
		return zero, false
	}
	return q.list.head.value, true
}

// Element 查看队头元素，队列为空时返回ErrQueueEmpty
func (q *SequentialQueue[T]) Element() (T, error) {
	item, ok := q.Peek()
	if !ok {
		return item, ErrQueueEmpty
	}
	return item, nil
}

// Size 返回队列当前元素数量
func (q *SequentialQueue[T]) Size() int {
	return q.list.size
}

// Capacity 返回队列容量
func (q *SequentialQueue[T]) Capacity() int {
	return q.capacity
}

// IsEmpty 检查队列是否为空
func (q *SequentialQueue[T]) IsEmpty() bool {
	return q.list.size == 0
}

// Clear 清空队列中的所有元素
func (q *SequentialQueue[T]) Clear() {
	q.Discard()
}

// Discard 反复出队直到队列为空，返回被丢弃的元素数
func (q *SequentialQueue[T]) Discard() int {
	dropped := 0
	for {
		if _, ok := q.list.popFront(); !ok {
			break
		}
		dropped++
	}
	q.stats.Cleared += uint64(dropped)
	if dropped > 0 {
		q.emit(Event{Type: EventClear, Item: dropped, Size: 0})
	}
	return dropped
}

// Iterator 返回一个只读的前向迭代器
func (q *SequentialQueue[T]) Iterator() Iterator[T] {
	return &sequentialIterator[T]{list: &q.list}
}

// ForEach 从队头开始遍历，回调返回false时停止
func (q *SequentialQueue[T]) ForEach(f func(T) bool) {
	for n := q.list.head; n != nil; n = n.next {
		if !f(n.value) {
			return
		}
	}
}

// Contains 检查队列是否包含指定元素
func (q *SequentialQueue[T]) Contains(item T) bool {
	found := false
	q.ForEach(func(v T) bool {
		found = v == item
		return !found
	})
	return found
}

// ContainsAll 检查队列是否包含所有指定元素
func (q *SequentialQueue[T]) ContainsAll(items ...T) bool {
	present := toSet(q.list.values())
	for _, item := range items {
		if _, ok := present[item]; !ok {
			return false
		}
	}
	return true
}

// RemoveValue 移除第一个与指定值相等的元素
func (q *SequentialQueue[T]) RemoveValue(item T) bool {
	return q.removeWhere(func(v T) bool { return v == item }, 1) > 0
}

// RemoveAll 移除所有出现在items中的元素
func (q *SequentialQueue[T]) RemoveAll(items ...T) bool {
	targets := toSet(items)
	return q.removeWhere(func(v T) bool {
		_, ok := targets[v]
		return ok
	}, 0) > 0
}

// RetainAll 仅保留出现在items中的元素
func (q *SequentialQueue[T]) RetainAll(items ...T) bool {
	keep := toSet(items)
	return q.removeWhere(func(v T) bool {
		_, ok := keep[v]
		return !ok
	}, 0) > 0
}

func (q *SequentialQueue[T]) removeWhere(match func(T) bool, limit int) int {
	removed := q.list.removeIf(match, limit)
	q.stats.Removed += uint64(len(removed))
	for _, v := range removed {
		q.emit(Event{Type: EventRemove, Item: v, Size: q.list.size})
	}
	return len(removed)
}

// ToSlice 按队列顺序返回所有元素的副本
func (q *SequentialQueue[T]) ToSlice() []T {
	return q.list.values()
}

// Stats 返回队列的统计信息
func (q *SequentialQueue[T]) Stats() Stats {
	s := q.stats
	s.Size = q.list.size
	return s
}

// String 返回队列内容的字符串表示
func (q *SequentialQueue[T]) String() string {
	return formatQueue(q.list.values(), q.capacity)
}

func (q *SequentialQueue[T]) reject(err error) {
	q.stats.Rejected++
	q.opts.Logger.WithError(err).Warn("mri queue rejected offer")
	q.emit(Event{Type: EventError, Err: err, Size: q.list.size})
}

func (q *SequentialQueue[T]) emit(evt Event) {
	if q.events.Active() {
		q.events.Emit(evt)
	}
}
