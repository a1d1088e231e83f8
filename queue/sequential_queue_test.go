package queue

import (
	"errors"
	"testing"
)

func TestSequentialQueue_BasicOperations(t *testing.T) {
	q, err := NewSequentialQueue[int](5)
	if err != nil {
		t.Fatalf("NewSequentialQueue failed: %v", err)
	}

	// 测试入队和出队
	for i := 1; i <= 3; i++ {
		if ok, err := q.Offer(i); !ok || err != nil {
			t.Fatalf("Offer(%d) failed: ok=%v err=%v", i, ok, err)
		}
	}

	// 检查队列大小
	if q.Size() != 3 {
		t.Fatalf("Expected size 3, got %d", q.Size())
	}

	// 检查Peek
	if val, ok := q.Peek(); !ok || val != 1 {
		t.Fatalf("Peek() expected 1, got %v (ok: %v)", val, ok)
	}

	for i := 1; i <= 3; i++ {
		val, ok := q.Poll()
		if !ok {
			t.Fatalf("Poll() returned no value at %d", i)
		}
		if val != i {
			t.Fatalf("Expected %d, got %d", i, val)
		}
	}

	if !q.IsEmpty() {
		t.Fatal("Queue should be empty")
	}

	// 空队列出队不是错误
	if _, ok := q.Poll(); ok {
		t.Fatal("Poll() on empty queue should return no value")
	}
	if _, ok := q.Peek(); ok {
		t.Fatal("Peek() on empty queue should return no value")
	}

	// 抛错版本返回ErrNoSuchElement
	if _, err := q.Remove(); !errors.Is(err, ErrNoSuchElement) {
		t.Fatalf("Expected ErrNoSuchElement from Remove, got %v", err)
	}
	if _, err := q.Element(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("Expected ErrQueueEmpty from Element, got %v", err)
	}
}

func TestSequentialQueue_EvictsOldest(t *testing.T) {
	q, _ := NewSequentialQueue[int](3)

	for i := 1; i <= 4; i++ {
		if err := q.Add(i); err != nil {
			t.Fatalf("Add(%d) failed: %v", i, err)
		}
	}

	if q.Size() != 3 {
		t.Fatalf("Expected size 3, got %d", q.Size())
	}

	for _, want := range []int{2, 3, 4} {
		got, ok := q.Poll()
		if !ok || got != want {
			t.Fatalf("Expected %d, got %v (ok: %v)", want, got, ok)
		}
	}

	if _, ok := q.Poll(); ok {
		t.Fatal("Queue should be empty after draining")
	}
}

func TestSequentialQueue_RetainsLastCapacityItems(t *testing.T) {
	capacity := 10
	q, _ := NewSequentialQueue[int](capacity)

	for i := 0; i < 100; i++ {
		if _, err := q.Offer(i); err != nil {
			t.Fatalf("Offer(%d) failed: %v", i, err)
		}
		if q.Size() > capacity {
			t.Fatalf("Size %d exceeds capacity %d", q.Size(), capacity)
		}
	}

	items := q.ToSlice()
	if len(items) != capacity {
		t.Fatalf("Expected %d items, got %d", capacity, len(items))
	}
	for i, v := range items {
		if v != 90+i {
			t.Fatalf("Expected %d at position %d, got %d", 90+i, i, v)
		}
	}

	stats := q.Stats()
	if stats.Offered != 100 || stats.Evicted != 90 || stats.Size != capacity {
		t.Fatalf("Unexpected stats: %+v", stats)
	}
	if !stats.IsFull() {
		t.Fatal("Stats should report a full queue")
	}
}

func TestSequentialQueue_RejectsNil(t *testing.T) {
	q, _ := NewSequentialQueue[*int](2)
	one := 1
	q.Offer(&one)

	ok, err := q.Offer(nil)
	if ok {
		t.Fatal("Offer(nil) should not succeed")
	}
	if !errors.Is(err, ErrNilItem) || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrNilItem, got %v", err)
	}
	if q.Size() != 1 {
		t.Fatalf("Size changed after nil offer: %d", q.Size())
	}

	// 接口类型的nil同样被拒绝
	anyQueue, _ := NewSequentialQueue[any](2)
	if _, err := anyQueue.Offer(nil); !errors.Is(err, ErrNilItem) {
		t.Fatalf("Expected ErrNilItem for nil interface, got %v", err)
	}
	if _, err := anyQueue.Offer(0); err != nil {
		t.Fatalf("Zero value should be accepted: %v", err)
	}
}

func TestSequentialQueue_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewSequentialQueue[int](capacity); !errors.Is(err, ErrInvalidCapacity) {
			t.Fatalf("capacity %d: expected ErrInvalidCapacity, got %v", capacity, err)
		}
	}
}

func TestSequentialQueue_Iterator(t *testing.T) {
	q, _ := NewSequentialQueue[string](3)
	q.Offer("a")
	q.Offer("b")
	q.Offer("c")

	it := q.Iterator()
	var got []string
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		got = append(got, v)
	}

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("Unexpected iteration order: %v", got)
	}

	// 迭代器耗尽后不会重新开始
	if _, err := it.Next(); !errors.Is(err, ErrNoSuchElement) {
		t.Fatalf("Expected ErrNoSuchElement, got %v", err)
	}
	if it.HasNext() {
		t.Fatal("Exhausted iterator should not report more items")
	}

	// 不支持删除
	if err := it.Remove(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("Expected ErrUnsupportedOperation, got %v", err)
	}
	if q.Size() != 3 {
		t.Fatalf("Remove should not change the queue, size %d", q.Size())
	}

	// 新的迭代器从队头开始
	if v, _ := q.Iterator().Next(); v != "a" {
		t.Fatalf("Fresh iterator should start at head, got %q", v)
	}
}

func TestSequentialQueue_Clear(t *testing.T) {
	q, _ := NewSequentialQueue[int](5)
	for i := 1; i <= 3; i++ {
		q.Offer(i)
	}

	q.Clear()
	if !q.IsEmpty() || q.Size() != 0 {
		t.Fatalf("Queue should be empty after Clear(), size %d", q.Size())
	}

	// 对空队列再次清空不产生可见变化
	q.Clear()
	if q.Size() != 0 {
		t.Fatalf("Expected size 0, got %d", q.Size())
	}
	if q.Stats().Cleared != 3 {
		t.Fatalf("Expected 3 cleared items, got %d", q.Stats().Cleared)
	}

	// 清空后应该可以继续使用队列
	if _, err := q.Offer(42); err != nil {
		t.Fatalf("Offer after clear failed: %v", err)
	}
	if v, _ := q.Peek(); v != 42 {
		t.Fatalf("Expected 42, got %d", v)
	}
}

func TestSequentialQueue_OfferAnyTypeMismatch(t *testing.T) {
	q, _ := NewSequentialQueue[int](2)

	ok, err := q.OfferAny("not an int")
	if ok || !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Expected ErrTypeMismatch, got ok=%v err=%v", ok, err)
	}
	if q.Size() != 0 || q.Stats().Rejected != 1 {
		t.Fatalf("Mismatched offer should be rejected without changes: %+v", q.Stats())
	}

	if ok, err := q.OfferAny(7); !ok || err != nil {
		t.Fatalf("OfferAny(7) failed: ok=%v err=%v", ok, err)
	}
}

func TestSequentialQueue_String(t *testing.T) {
	q, _ := NewSequentialQueue[int](3)
	for i := 1; i <= 4; i++ {
		q.Offer(i)
	}

	want := "MRIQueue{size=3 capacity=3 [2 3 4]}"
	if got := q.String(); got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestSequentialQueue_Events(t *testing.T) {
	var events []Event
	q, _ := NewSequentialQueue[int](2, WithEventListener(func(e Event) {
		events = append(events, e)
	}))

	q.Offer(1)
	q.Offer(2)
	q.Offer(3)
	q.Poll()

	wantTypes := []EventType{EventOffer, EventOffer, EventEvict, EventOffer, EventPoll}
	if len(events) != len(wantTypes) {
		t.Fatalf("Expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Fatalf("Event %d: expected %s, got %s", i, want, events[i].Type)
		}
	}
	if events[2].Item != 1 {
		t.Fatalf("Expected evicted item 1, got %v", events[2].Item)
	}
}

func TestSequentialQueue_BulkOperations(t *testing.T) {
	q, _ := NewSequentialQueue[int](10)
	if changed, err := q.AddAll(1, 2, 3, 2, 5); !changed || err != nil {
		t.Fatalf("AddAll failed: changed=%v err=%v", changed, err)
	}

	if !q.Contains(3) || q.Contains(4) {
		t.Fatal("Contains returned unexpected result")
	}
	if !q.ContainsAll(1, 5) || q.ContainsAll(1, 4) {
		t.Fatal("ContainsAll returned unexpected result")
	}

	// 只删除第一个匹配的元素
	if !q.RemoveValue(2) {
		t.Fatal("RemoveValue(2) should succeed")
	}
	if got := q.ToSlice(); len(got) != 4 || got[1] != 3 || got[2] != 2 {
		t.Fatalf("Unexpected contents after RemoveValue: %v", got)
	}

	if !q.RemoveAll(2, 5) {
		t.Fatal("RemoveAll should change the queue")
	}
	if !q.RetainAll(3) {
		t.Fatal("RetainAll should change the queue")
	}
	if got := q.ToSlice(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("Unexpected contents after bulk removal: %v", got)
	}
	if q.RetainAll(3) {
		t.Fatal("RetainAll with nothing to drop should report no change")
	}
}
