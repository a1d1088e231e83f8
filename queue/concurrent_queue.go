package queue

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ConcurrentQueue 是线程安全的MRI队列
//
// 所有读写链表结构的操作都由同一把锁串行化；Size 读取单独维护的原子计数，
// Peek 读取原子发布的队头指针，两者都不需要获取锁。
// 因此 Size 与正在进行中的结构性操作之间可能存在短暂的不一致。
type ConcurrentQueue[T comparable] struct {
	// 队列选项
	opts *Options

	// 队列容量，创建后不可修改
	capacity int

	// 保护链表的锁，容量为1的信号量，等待时可以被上下文取消
	lock *semaphore.Weighted

	// 链表，只能在持有锁时访问
	list chain[T]

	// 持有锁时更新的元素数量
	size atomic.Int64

	// 持有锁时发布的队头，供无锁的 Peek 使用
	head atomic.Pointer[node[T]]

	nils nilChecker[T]

	// 事件发射器
	events *EventEmitter

	// 统计信息
	stats     counters
	createdAt time.Time
}

// NewConcurrentQueue 创建一个新的并发安全MRI队列
func NewConcurrentQueue[T comparable](capacity int, options ...Option) (*ConcurrentQueue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	opts := applyOptions(options)

	q := &ConcurrentQueue[T]{
		opts:      opts,
		capacity:  capacity,
		lock:      semaphore.NewWeighted(1),
		nils:      newNilChecker[T](),
		events:    NewEventEmitter(opts.EventListeners),
		createdAt: time.Now(),
	}

	return q, nil
}

// acquire 获取队列锁，上下文结束时返回ErrOperationCancelled
func (q *ConcurrentQueue[T]) acquire(ctx context.Context) error {
	// 首先检查上下文是否已取消
	if err := ctx.Err(); err != nil {
		q.stats.cancelled.Add(1)
		return cancelled(err)
	}
	if q.lock.TryAcquire(1) {
		return nil
	}
	if err := q.lock.Acquire(ctx, 1); err != nil {
		q.stats.cancelled.Add(1)
		return cancelled(err)
	}
	return nil
}

func (q *ConcurrentQueue[T]) release() {
	q.lock.Release(1)
}

// mustAcquire 获取队列锁，不可取消
func (q *ConcurrentQueue[T]) mustAcquire() {
	// context.Background 永远不会结束，Acquire 不会失败
	_ = q.lock.Acquire(context.Background(), 1)
}

// publishLocked 在持有锁时发布元素数量和队头
func (q *ConcurrentQueue[T]) publishLocked() {
	q.size.Store(int64(q.list.size))
	q.head.Store(q.list.head)
}

// Offer 将元素添加到队列尾部，队列已满时先淘汰队头元素
func (q *ConcurrentQueue[T]) Offer(item T) (bool, error) {
	return q.OfferContext(context.Background(), item)
}

// OfferContext 与Offer相同，但等待锁时可以被上下文取消
func (q *ConcurrentQueue[T]) OfferContext(ctx context.Context, item T) (bool, error) {
	// 在获取锁之前检查nil
	if q.nils.isNil(item) {
		q.reject(ErrNilItem)
		return false, ErrNilItem
	}

	if err := q.acquire(ctx); err != nil {
		q.emitError(err)
		return false, err
	}

	evicted, didEvict := q.offerLocked(item)
	size := q.list.size
	q.release()

	if q.events.Active() {
		if didEvict {
			q.events.Emit(Event{Type: EventEvict, Item: evicted, Size: size - 1})
		}
		q.events.Emit(Event{Type: EventOffer, Item: item, Size: size})
	}

	return true, nil
}

// offerLocked 在同一次加锁中完成淘汰和追加
func (q *ConcurrentQueue[T]) offerLocked(item T) (evicted T, didEvict bool) {
	if q.list.size >= q.capacity {
		if n, ok := q.list.popFront(); ok {
			evicted, didEvict = n.value, true
			q.stats.evicted.Add(1)
		}
	}
	q.list.pushBack(item)
	q.stats.offered.Add(1)
	q.publishLocked()
	return evicted, didEvict
}

// OfferAny 将动态类型的值入队
// 类型不匹配不会被吞掉，而是返回包装后的ErrTypeMismatch
func (q *ConcurrentQueue[T]) OfferAny(item any) (bool, error) {
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
func (q *ConcurrentQueue[T]) Add(item T) error {
	_, err := q.Offer(item)
	return err
}

// Poll 移除并返回队头元素
func (q *ConcurrentQueue[T]) Poll() (T, bool) {
	item, ok, _ := q.PollContext(context.Background())
	return item, ok
}

// PollContext 与Poll相同，但等待锁时可以被上下文取消
func (q *ConcurrentQueue[T]) PollContext(ctx context.Context) (T, bool, error) {
	var zero T

	// 空队列无需加锁
	if q.size.Load() == 0 {
		return zero, false, nil
	}

	if err := q.acquire(ctx); err != nil {
		q.emitError(err)
		return zero, false, err
	}

	n, ok := q.list.popFront()
	if !ok {
		// 在等待锁期间被其他协程取空
		q.release()
		return zero, false, nil
	}
	q.stats.polled.Add(1)
	q.publishLocked()
	size := q.list.size
	q.release()

	if q.events.Active() {
		q.events.Emit(Event{Type: EventPoll, Item: n.value, Size: size})
	}
	return n.value, true, nil
}

// Remove 移除并返回队头元素，队列为空时返回ErrQueueEmpty
func (q *ConcurrentQueue[T]) Remove() (T, error) {
	item, ok := q.Poll()
	if !ok {
		return item, ErrQueueEmpty
	}
	return item, nil
}

// Peek 查看队头元素但不移除
// Peek 不加锁，可能返回一个正在被其他协程移除的元素
func (q *ConcurrentQueue[T]) Peek() (T, bool) {
	n := q.head.Load()
	if n == nil {
		var zero T
		return zero, false
	}
	return n.value, true
}

// Element 查看队头元素，队列为空时返回ErrQueueEmpty
func (q *ConcurrentQueue[T]) Element() (T, error) {
	item, ok := q.Peek()
	if !ok {
		return item, ErrQueueEmpty
	}
	return item, nil
}

// Size 返回队列当前元素数量
func (q *ConcurrentQueue[T]) Size() int {
	return int(q.size.Load())
}

// Capacity 返回队列容量
func (q *ConcurrentQueue[T]) Capacity() int {
	return q.capacity
}

// IsEmpty 检查队列是否为空
func (q *ConcurrentQueue[T]) IsEmpty() bool {
	return q.size.Load() == 0
}

// IsFull 检查队列是否已满
func (q *ConcurrentQueue[T]) IsFull() bool {
	return int(q.size.Load()) >= q.capacity
}

// Clear 清空队列中的所有元素
func (q *ConcurrentQueue[T]) Clear() {
	q.Discard()
}

// Discard 清空队列并返回被丢弃的元素数
func (q *ConcurrentQueue[T]) Discard() int {
	dropped, _ := q.ClearContext(context.Background())
	return dropped
}

// ClearContext 在一次加锁中丢弃整条链表，返回被丢弃的元素数
func (q *ConcurrentQueue[T]) ClearContext(ctx context.Context) (int, error) {
	if err := q.acquire(ctx); err != nil {
		q.emitError(err)
		return 0, err
	}

	dropped := q.list.reset()
	q.stats.cleared.Add(uint64(dropped))
	q.publishLocked()
	q.release()

	if dropped > 0 && q.events.Active() {
		q.events.Emit(Event{Type: EventClear, Item: dropped, Size: 0})
	}
	return dropped, nil
}

// Iterator 返回一个弱一致性的迭代器
// 迭代器不是快照：它在加锁的情况下逐步遍历实时链表，
// 创建之后追加的元素在遍历到时可见，并发删除不会导致迭代器出错
func (q *ConcurrentQueue[T]) Iterator() Iterator[T] {
	return q.IteratorContext(context.Background())
}

// IteratorContext 与Iterator相同，但每一步等待锁时都可以被ctx取消
func (q *ConcurrentQueue[T]) IteratorContext(ctx context.Context) Iterator[T] {
	return &concurrentIterator[T]{q: q, ctx: ctx}
}

// ForEach 从队头开始遍历，回调返回false时停止
// 每一步单独加锁，回调执行时不持有锁，因此可以在回调中修改队列
func (q *ConcurrentQueue[T]) ForEach(f func(T) bool) {
	it := q.Iterator()
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return
		}
		if !f(item) {
			return
		}
	}
}

// Stats 返回队列的统计信息
func (q *ConcurrentQueue[T]) Stats() Stats {
	s := Stats{
		CreatedAt: q.createdAt,
		Capacity:  q.capacity,
		Size:      q.Size(),
	}
	q.stats.fill(&s)
	return s
}

// String 返回队列内容的字符串表示
func (q *ConcurrentQueue[T]) String() string {
	q.mustAcquire()
	items := q.list.values()
	q.release()
	return formatQueue(items, q.capacity)
}

func (q *ConcurrentQueue[T]) reject(err error) {
	q.stats.rejected.Add(1)
	q.opts.Logger.WithError(err).Warn("mri queue rejected offer")
	q.emitError(err)
}

func (q *ConcurrentQueue[T]) emitError(err error) {
	if q.events.Active() {
		q.events.Emit(Event{Type: EventError, Err: err, Size: q.Size()})
	}
}

// formatQueue 格式化队列内容
func formatQueue[T any](items []T, capacity int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("MRIQueue{size=%d capacity=%d [", len(items), capacity))
	for i, item := range items {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprint(item))
	}
	sb.WriteString("]}")
	return sb.String()
}
