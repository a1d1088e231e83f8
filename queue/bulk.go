package queue

import (
	"context"
)

// 批量操作在整个操作期间只获取一次锁，不委托给已经加锁的单元素操作

// AddAll 批量入队
// 先检查全部元素，任意元素为nil时不做任何修改
func (q *ConcurrentQueue[T]) AddAll(items ...T) (bool, error) {
	return q.AddAllContext(context.Background(), items...)
}

// AddAllContext 与AddAll相同，但等待锁时可以被上下文取消
func (q *ConcurrentQueue[T]) AddAllContext(ctx context.Context, items ...T) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	for _, item := range items {
		if q.nils.isNil(item) {
			q.reject(ErrNilItem)
			return false, ErrNilItem
		}
	}

	if err := q.acquire(ctx); err != nil {
		q.emitError(err)
		return false, err
	}

	var events []Event
	active := q.events.Active()
	for _, item := range items {
		evicted, didEvict := q.offerLocked(item)
		if active {
			if didEvict {
				events = append(events, Event{Type: EventEvict, Item: evicted, Size: q.list.size - 1})
			}
			events = append(events, Event{Type: EventOffer, Item: item, Size: q.list.size})
		}
	}
	q.release()

	q.events.EmitAll(events)
	return true, nil
}

// Contains 检查队列是否包含指定元素
func (q *ConcurrentQueue[T]) Contains(item T) bool {
	q.mustAcquire()
	defer q.release()

	for n := q.list.head; n != nil; n = n.next {
		if n.value == item {
			return true
		}
	}
	return false
}

// ContainsAll 检查队列是否包含所有指定元素
func (q *ConcurrentQueue[T]) ContainsAll(items ...T) bool {
	q.mustAcquire()
	present := make(map[T]struct{}, q.list.size)
	for n := q.list.head; n != nil; n = n.next {
		present[n.value] = struct{}{}
	}
	q.release()

	for _, item := range items {
		if _, ok := present[item]; !ok {
			return false
		}
	}
	return true
}

// RemoveValue 移除第一个与指定值相等的元素
func (q *ConcurrentQueue[T]) RemoveValue(item T) bool {
	removed, _ := q.removeWhere(context.Background(), func(v T) bool { return v == item }, 1)
	return removed > 0
}

// RemoveAll 移除所有出现在items中的元素，队列发生变化时返回true
func (q *ConcurrentQueue[T]) RemoveAll(items ...T) bool {
	changed, _ := q.RemoveAllContext(context.Background(), items...)
	return changed
}

// RemoveAllContext 与RemoveAll相同，但等待锁时可以被上下文取消
func (q *ConcurrentQueue[T]) RemoveAllContext(ctx context.Context, items ...T) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	targets := toSet(items)
	removed, err := q.removeWhere(ctx, func(v T) bool {
		_, ok := targets[v]
		return ok
	}, 0)
	return removed > 0, err
}

// RetainAll 仅保留出现在items中的元素，队列发生变化时返回true
func (q *ConcurrentQueue[T]) RetainAll(items ...T) bool {
	changed, _ := q.RetainAllContext(context.Background(), items...)
	return changed
}

// RetainAllContext 与RetainAll相同，但等待锁时可以被上下文取消
func (q *ConcurrentQueue[T]) RetainAllContext(ctx context.Context, items ...T) (bool, error) {
	keep := toSet(items)
	removed, err := q.removeWhere(ctx, func(v T) bool {
		_, ok := keep[v]
		return !ok
	}, 0)
	return removed > 0, err
}

// removeWhere 在一次加锁中删除满足条件的元素，limit 为0表示不限数量
func (q *ConcurrentQueue[T]) removeWhere(ctx context.Context, match func(T) bool, limit int) (int, error) {
	if err := q.acquire(ctx); err != nil {
		q.emitError(err)
		return 0, err
	}
	removed := q.list.removeIf(match, limit)
	if len(removed) > 0 {
		q.stats.removed.Add(uint64(len(removed)))
		q.publishLocked()
	}
	size := q.list.size
	q.release()

	if q.events.Active() {
		for i, v := range removed {
			q.events.Emit(Event{Type: EventRemove, Item: v, Size: size + len(removed) - i - 1})
		}
	}
	return len(removed), nil
}

// ToSlice 按队列顺序返回所有元素的副本
func (q *ConcurrentQueue[T]) ToSlice() []T {
	q.mustAcquire()
	defer q.release()
	return q.list.values()
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
