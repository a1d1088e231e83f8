package queue

import "context"

// concurrentIterator 是ConcurrentQueue的弱一致性迭代器
//
// 游标由(前驱提示, 当前节点)组成，不持有节点也不创建哨兵节点。
// 游标所在的节点被并发删除后，迭代器沿着被删节点保留的 next 继续前进，
// 因此不会重复返回元素，也不会因为并发修改而出错。
type concurrentIterator[T comparable] struct {
	q *ConcurrentQueue[T]

	// 每一步等待锁时使用的上下文
	ctx context.Context

	// 最近一次访问的节点，nil 表示位于队头之前
	cursor *node[T]

	// 最近一次Next返回且尚未删除的节点
	lastRet *node[T]

	// lastRet 在链表中的前驱提示，可能已经过期
	prev *node[T]
}

// HasNext 按当前的链表结构判断是否还有后继
// 返回true后如果其他协程取走了该元素，Next仍可能返回ErrNoSuchElement
// 上下文结束时返回false
func (it *concurrentIterator[T]) HasNext() bool {
	q := it.q
	if err := q.acquire(it.ctx); err != nil {
		q.emitError(err)
		return false
	}
	defer q.release()

	return q.list.successor(it.cursor) != nil
}

// Next 前进一个元素并返回它
func (it *concurrentIterator[T]) Next() (T, error) {
	var zero T
	q := it.q
	if err := q.acquire(it.ctx); err != nil {
		q.emitError(err)
		return zero, err
	}
	defer q.release()

	n := q.list.successor(it.cursor)
	if n == nil {
		return zero, ErrNoSuchElement
	}

	switch {
	case it.cursor != nil && q.list.linked(it.cursor):
		it.prev = it.cursor
	case it.prev != nil && q.list.linked(it.prev) && it.prev.next == n:
		// 游标上的节点已被删除，保留之前记录的前驱
	default:
		it.prev = nil
	}

	it.cursor = n
	it.lastRet = n
	return n.value, nil
}

// Remove 删除最近一次Next返回的元素
// 在Next之前调用或连续调用两次返回ErrIllegalState；
// 元素已经被其他操作移出队列时不做任何修改；
// 等待锁时上下文结束返回ErrOperationCancelled，之后仍可重试
func (it *concurrentIterator[T]) Remove() error {
	if it.lastRet == nil {
		return ErrIllegalState
	}

	q := it.q
	if err := q.acquire(it.ctx); err != nil {
		q.emitError(err)
		return err
	}

	n := it.lastRet
	it.lastRet = nil
	if !q.list.linked(n) {
		q.release()
		return nil
	}

	var pred *node[T]
	if q.list.head != n {
		pred = it.prev
		if pred == nil || !q.list.linked(pred) || pred.next != n {
			pred = q.list.predecessor(n)
		}
	}

	q.list.unlink(pred, n)
	it.prev = pred
	q.stats.removed.Add(1)
	q.publishLocked()
	size := q.list.size
	q.release()

	if q.events.Active() {
		q.events.Emit(Event{Type: EventRemove, Item: n.value, Size: size})
	}
	return nil
}

// sequentialIterator 是SequentialQueue的迭代器，不支持删除
type sequentialIterator[T comparable] struct {
	list   *chain[T]
	cursor *node[T]
}

// HasNext 报告是否还有后继
func (it *sequentialIterator[T]) HasNext() bool {
	return it.list.successor(it.cursor) != nil
}

// Next 前进一个元素并返回它
func (it *sequentialIterator[T]) Next() (T, error) {
	n := it.list.successor(it.cursor)
	if n == nil {
		var zero T
		return zero, ErrNoSuchElement
	}
	it.cursor = n
	return n.value, nil
}

// Remove 不被支持
func (it *sequentialIterator[T]) Remove() error {
	return ErrUnsupportedOperation
}
