package queueservice

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/mriqueue/internal/sink"
	"github.com/fyerfyer/mriqueue/queue"
)

func newTestService(opts ...ServiceOption) *InMemoryService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewInMemoryService(append([]ServiceOption{WithLogger(logger)}, opts...)...)
}

func TestInMemoryService_CreateQueue(t *testing.T) {
	svc := newTestService()

	name, err := svc.CreateQueue("orders", QueueOptions{Type: ConcurrentQueue, Capacity: 3})
	require.NoError(t, err)
	assert.Equal(t, "orders", name)

	_, err = svc.CreateQueue("orders", QueueOptions{Capacity: 3})
	assert.True(t, errors.Is(err, ErrQueueExists))

	// 名称为空时生成随机名称
	name, err = svc.CreateQueue("", QueueOptions{Type: SequentialQueue, Capacity: 2})
	require.NoError(t, err)
	_, err = uuid.Parse(name)
	assert.NoError(t, err)

	_, err = svc.CreateQueue("bad", QueueOptions{Type: "blocking", Capacity: 2})
	assert.True(t, errors.Is(err, ErrUnknownQueueType))

	_, err = svc.CreateQueue("zero", QueueOptions{Capacity: 0})
	assert.True(t, errors.Is(err, queue.ErrInvalidCapacity))

	infos := svc.ListQueues()
	require.Len(t, infos, 2)
	assert.Equal(t, "orders", infos[1].Name)
	assert.Equal(t, ConcurrentQueue, infos[1].Type)
}

func TestInMemoryService_ItemOperations(t *testing.T) {
	for _, qType := range []QueueType{SequentialQueue, ConcurrentQueue} {
		t.Run(string(qType), func(t *testing.T) {
			svc := newTestService()
			_, err := svc.CreateQueue("q", QueueOptions{Type: qType, Capacity: 3})
			require.NoError(t, err)

			for _, item := range []string{"a", "b", "c", "d"} {
				require.NoError(t, svc.OfferItem("q", item))
			}

			items, err := svc.Items("q")
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "c", "d"}, items)

			head, err := svc.PeekItem("q")
			require.NoError(t, err)
			assert.Equal(t, "b", head)

			removed, err := svc.RemoveItem("q", "c")
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = svc.RemoveItem("q", "zzz")
			require.NoError(t, err)
			assert.False(t, removed)

			item, err := svc.PollItem("q")
			require.NoError(t, err)
			assert.Equal(t, "b", item)

			dropped, err := svc.ClearQueue("q")
			require.NoError(t, err)
			assert.Equal(t, 1, dropped)

			_, err = svc.PollItem("q")
			assert.True(t, errors.Is(err, queue.ErrQueueEmpty))

			stats, err := svc.QueueStats("q")
			require.NoError(t, err)
			assert.Equal(t, uint64(4), stats.Offered)
			assert.Equal(t, uint64(1), stats.Evicted)
			assert.Equal(t, uint64(1), stats.Removed)
			assert.Equal(t, stats.Offered, stats.Departed())
		})
	}
}

func TestInMemoryService_QueueNotFound(t *testing.T) {
	svc := newTestService()

	assert.True(t, errors.Is(svc.OfferItem("missing", "x"), ErrQueueNotFound))
	_, err := svc.PollItem("missing")
	assert.True(t, errors.Is(err, ErrQueueNotFound))
	_, err = svc.QueueStats("missing")
	assert.True(t, errors.Is(err, ErrQueueNotFound))
	assert.True(t, errors.Is(svc.DeleteQueue("missing"), ErrQueueNotFound))
}

func TestInMemoryService_EvictionSink(t *testing.T) {
	mem := sink.NewMemorySink(10)
	svc := newTestService(WithEvictionSink(mem))

	_, err := svc.CreateQueue("q", QueueOptions{Capacity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.OfferItems("q", []string{"1", "2", "3", "4"}))

	evicted, err := svc.Evicted(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, evicted)

	plain := newTestService()
	plain.CreateQueue("q", QueueOptions{Capacity: 2})
	_, err = plain.Evicted(context.Background(), "q", 0)
	assert.True(t, errors.Is(err, ErrNoEvictionSink))

	require.NoError(t, svc.Close())
	assert.Empty(t, svc.ListQueues())
	assert.ErrorIs(t, mem.Write(context.Background(), "q", "x"), sink.ErrSinkClosed)
}

func TestInMemoryService_SnapshotRestore(t *testing.T) {
	svc := newTestService()
	_, err := svc.CreateQueue("src", QueueOptions{Type: SequentialQueue, Capacity: 4})
	require.NoError(t, err)
	require.NoError(t, svc.OfferItems("src", []string{"x", "y", "z"}))

	data, err := svc.Snapshot("src")
	require.NoError(t, err)
	assert.Equal(t, SequentialQueue, data.Type)
	assert.Equal(t, 4, data.Capacity)

	raw, err := SerializeQueueData(data)
	require.NoError(t, err)

	restored, err := DeserializeQueueData(raw)
	require.NoError(t, err)
	restored.Name = "copy"
	require.NoError(t, svc.Restore(restored))

	items, err := svc.Items("copy")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, items)

	// 同名队列已存在
	restored.Name = "src"
	assert.True(t, errors.Is(svc.Restore(restored), ErrQueueExists))
}

func TestInMemoryService_ConcurrentAccess(t *testing.T) {
	svc := newTestService()
	for _, qType := range []QueueType{SequentialQueue, ConcurrentQueue} {
		_, err := svc.CreateQueue(string(qType), QueueOptions{Type: qType, Capacity: 50})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				for _, name := range []string{"sequential", "concurrent"} {
					_ = svc.OfferItem(name, "item")
					if j%3 == 0 {
						_, _ = svc.PollItem(name)
					}
					if j%50 == 0 {
						_, _ = svc.RemoveItem(name, "item")
					}
				}
			}
		}(i)
	}
	wg.Wait()

	for _, info := range svc.ListQueues() {
		assert.LessOrEqual(t, info.Stats.Size, 50, info.Name)
		assert.Equal(t, uint64(8*500), info.Stats.Offered, info.Name)
		assert.Equal(t, info.Stats.Offered, info.Stats.Departed()+uint64(info.Stats.Size), info.Name)
	}
}

func TestInMemoryService_ConcurrentClearCounts(t *testing.T) {
	svc := newTestService()
	_, err := svc.CreateQueue("shared", QueueOptions{Type: ConcurrentQueue, Capacity: 10000})
	require.NoError(t, err)

	const workers, rounds = 8, 200
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if err := svc.OfferItem("shared", "x"); err != nil {
					t.Error(err)
					return
				}
				dropped, err := svc.ClearQueue("shared")
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				total += dropped
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 每个元素只被一次清空计入
	stats, err := svc.QueueStats("shared")
	require.NoError(t, err)
	assert.Equal(t, workers*rounds, total+stats.Size)
	assert.Equal(t, uint64(total), stats.Cleared)
}
