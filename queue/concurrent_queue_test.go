package queue

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentQueue_BasicOperations(t *testing.T) {
	q, err := NewConcurrentQueue[int](5)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		ok, err := q.Offer(i)
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t, 3, q.Size())
	assert.Equal(t, 5, q.Capacity())
	assert.False(t, q.IsFull())

	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	for i := 1; i <= 3; i++ {
		v, err := q.Remove()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	assert.True(t, q.IsEmpty())

	_, ok = q.Poll()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)

	_, err = q.Remove()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = q.Element()
	assert.ErrorIs(t, err, ErrNoSuchElement)
}

func TestConcurrentQueue_EvictsOldest(t *testing.T) {
	q, err := NewConcurrentQueue[int](3)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, q.Add(i))
	}
	assert.Equal(t, 3, q.Size())
	assert.True(t, q.IsFull())

	for _, want := range []int{2, 3, 4} {
		v, ok := q.Poll()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok := q.Poll()
	assert.False(t, ok)

	stats := q.Stats()
	assert.Equal(t, uint64(4), stats.Offered)
	assert.Equal(t, uint64(3), stats.Polled)
	assert.Equal(t, uint64(1), stats.Evicted)
	assert.Equal(t, stats.Offered, stats.Departed())
}

func TestConcurrentQueue_InvalidCapacity(t *testing.T) {
	_, err := NewConcurrentQueue[int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewQueue[string](-5)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestConcurrentQueue_RejectsNil(t *testing.T) {
	q, err := NewConcurrentQueue[*string](2)
	require.NoError(t, err)

	ok, err := q.Offer(nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNilItem)
	assert.Equal(t, 0, q.Size())
	assert.Equal(t, uint64(1), q.Stats().Rejected)

	s := "x"
	changed, err := q.AddAll(&s, nil, &s)
	assert.False(t, changed)
	assert.ErrorIs(t, err, ErrNilItem)
	assert.Equal(t, 0, q.Size(), "AddAll must not admit anything when an item is nil")
}

func TestConcurrentQueue_OfferAny(t *testing.T) {
	q, err := NewConcurrentQueue[string](2)
	require.NoError(t, err)

	ok, err := q.OfferAny(42)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "int")
	assert.Equal(t, 0, q.Size())

	ok, err = q.OfferAny("hello")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, q.Contains("hello"))
}

func TestConcurrentQueue_Clear(t *testing.T) {
	q, err := NewConcurrentQueue[int](10)
	require.NoError(t, err)

	q.Clear()
	assert.Equal(t, 0, q.Size())

	for i := 0; i < 5; i++ {
		q.Offer(i)
	}
	q.Clear()
	assert.True(t, q.IsEmpty())
	_, ok := q.Peek()
	assert.False(t, ok)

	q.Clear()
	assert.Equal(t, uint64(5), q.Stats().Cleared)

	// 清空后可以继续使用
	q.Offer(7)
	assert.Equal(t, []int{7}, q.ToSlice())
}

func TestConcurrentQueue_CancelledBeforeLock(t *testing.T) {
	q, err := NewConcurrentQueue[int](2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := q.OfferContext(ctx, 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrOperationCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, q.Size())

	_, err = q.ClearContext(ctx)
	assert.ErrorIs(t, err, ErrOperationCancelled)

	// 空队列的 PollContext 不需要锁
	_, ok, err = q.PollContext(ctx)
	assert.False(t, ok)
	assert.NoError(t, err)

	assert.Equal(t, uint64(2), q.Stats().Cancelled)
}

func TestConcurrentQueue_CancelWhileWaiting(t *testing.T) {
	var events []Event
	var mu sync.Mutex
	q, err := NewConcurrentQueue[int](2, WithEventListener(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))
	require.NoError(t, err)
	q.Offer(1)

	// 模拟另一个协程长时间持有锁
	q.mustAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = q.OfferContext(ctx, 2)
	assert.ErrorIs(t, err, ErrOperationCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok, err := q.PollContext(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrOperationCancelled)

	// 持有锁期间 Size 和 Peek 仍然可用
	assert.Equal(t, 1, q.Size())
	v, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	q.release()

	ok, err = q.Offer(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, q.ToSlice())

	mu.Lock()
	defer mu.Unlock()
	var errorEvents int
	for _, e := range events {
		if e.Type == EventError {
			errorEvents++
			assert.ErrorIs(t, e.Err, ErrOperationCancelled)
		}
	}
	assert.Equal(t, 2, errorEvents)
}

func TestConcurrentQueue_Events(t *testing.T) {
	var got []EventType
	q, err := NewConcurrentQueue[int](1, WithEventListener(func(e Event) {
		got = append(got, e.Type)
	}))
	require.NoError(t, err)

	q.Offer(1)
	q.Offer(2)
	q.Poll()
	q.AddAll(3, 4)
	q.RemoveValue(4)
	q.Offer(5)
	q.Clear()

	assert.Equal(t, []EventType{
		EventOffer,
		EventEvict, EventOffer,
		EventPoll,
		EventOffer, EventEvict, EventOffer,
		EventRemove,
		EventOffer,
		EventClear,
	}, got)
}

func TestConcurrentQueue_ListenerMayUseQueue(t *testing.T) {
	var q *ConcurrentQueue[int]
	var evicted []int
	q, err := NewConcurrentQueue[int](2, WithEventListener(func(e Event) {
		// 监听器在锁释放后执行，回调队列不会死锁
		if e.Type == EventEvict {
			evicted = append(evicted, e.Item.(int))
			_ = q.Size()
			_ = q.Contains(e.Item.(int))
		}
	}))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		q.Offer(i)
	}
	assert.Equal(t, []int{0, 1, 2}, evicted)
}

func TestConcurrentQueue_String(t *testing.T) {
	q, err := NewConcurrentQueue[string](3)
	require.NoError(t, err)
	assert.Equal(t, "MRIQueue{size=0 capacity=3 []}", q.String())

	q.AddAll("a", "b", "c", "d")
	assert.Equal(t, "MRIQueue{size=3 capacity=3 [b c d]}", q.String())
}

func TestConcurrentQueue_ForEach(t *testing.T) {
	q, err := NewConcurrentQueue[int](10)
	require.NoError(t, err)
	q.AddAll(1, 2, 3, 4, 5)

	var seen []int
	q.ForEach(func(v int) bool {
		seen = append(seen, v)
		return v < 3
	})
	assert.Equal(t, []int{1, 2, 3}, seen)

	// 回调中修改队列不会死锁
	seen = seen[:0]
	q.ForEach(func(v int) bool {
		seen = append(seen, v)
		q.Poll()
		return true
	})
	assert.NotEmpty(t, seen)
	assert.True(t, q.IsEmpty())
}

func stressSize(t *testing.T) int {
	if os.Getenv("MRI_STRESS_FULL") != "" {
		return 1_000_000
	}
	if testing.Short() {
		return 2_000
	}
	return 20_000
}

func TestConcurrentQueue_Stress(t *testing.T) {
	const (
		capacity = 1000
		workers  = 10
	)
	perWorker := stressSize(t)

	var evictedMu sync.Mutex
	evicted := make([]int, 0, workers*perWorker)
	q, err := NewConcurrentQueue[int](capacity, WithEventListener(func(e Event) {
		if e.Type == EventEvict {
			evictedMu.Lock()
			evicted = append(evicted, e.Item.(int))
			evictedMu.Unlock()
		}
	}))
	require.NoError(t, err)

	polled := make([][]int, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := q.Offer(w*perWorker + i); err != nil {
					errs <- err
					return
				}
				if size := q.Size(); size > capacity {
					t.Errorf("size %d exceeds capacity", size)
					return
				}

				switch i % 4 {
				case 1:
					if v, ok := q.Poll(); ok {
						polled[w] = append(polled[w], v)
					}
				case 2:
					q.Peek()
				case 3:
					if i%400 == 3 {
						it := q.Iterator()
						for steps := 0; steps < 10 && it.HasNext(); steps++ {
							if _, err := it.Next(); err != nil {
								break
							}
						}
					}
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	q.mustAcquire()
	checkChain(t, &q.list)
	q.release()

	remaining := q.ToSlice()
	assert.LessOrEqual(t, len(remaining), capacity)
	assert.Equal(t, len(remaining), q.Size())

	// 每个入队的值恰好通过一种方式离开或留在队列中
	seen := make(map[int]struct{}, workers*perWorker)
	record := func(v int) {
		_, dup := seen[v]
		require.False(t, dup, "value %d observed twice", v)
		seen[v] = struct{}{}
	}
	for _, vs := range polled {
		for _, v := range vs {
			record(v)
		}
	}
	for _, v := range evicted {
		record(v)
	}
	for _, v := range remaining {
		record(v)
	}
	assert.Len(t, seen, workers*perWorker)

	stats := q.Stats()
	assert.Equal(t, uint64(workers*perWorker), stats.Offered)
	assert.Equal(t, uint64(len(evicted)), stats.Evicted)
	assert.Equal(t, stats.Offered, stats.Departed()+uint64(stats.Size))

	// 同一生产者的剩余元素保持入队顺序
	last := make(map[int]int)
	for _, v := range remaining {
		w := v / perWorker
		if prev, ok := last[w]; ok {
			assert.Less(t, prev, v)
		}
		last[w] = v
	}
}
