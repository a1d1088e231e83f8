package queue

// node 是单向链表节点，每个节点恰好有一条入边：head 或前驱的 next
type node[T any] struct {
	value T
	next  *node[T]

	// 节点入链时链表的代数，Clear 会让代数加一
	epoch uint64

	// 节点已离开链表
	unlinked bool

	// 节点作为队头离开，此时排在它前面的节点也都已离开
	atFront bool

	// 节点作为队尾从中间离开时的前驱，之后追加的节点都接在它后面
	back *node[T]
}

// chain 是两种队列共享的链表结构，本身不做任何同步
//
// 从队头离开的节点会断开 next，其余离开的节点保留 next，
// 这样停留在已删除节点上的迭代器仍然可以继续向后走
type chain[T any] struct {
	head  *node[T]
	tail  *node[T]
	size  int
	epoch uint64
}

// pushBack 在队尾追加节点
func (c *chain[T]) pushBack(value T) *node[T] {
	n := &node[T]{value: value, epoch: c.epoch}
	if c.tail == nil {
		c.head = n
	} else {
		c.tail.next = n
	}
	c.tail = n
	c.size++
	return n
}

// popFront 摘下队头节点
func (c *chain[T]) popFront() (*node[T], bool) {
	n := c.head
	if n == nil {
		return nil, false
	}
	c.unlink(nil, n)
	return n, true
}

// unlink 把 n 从链表中摘下，pred 为 n 的前驱，n 为队头时 pred 为 nil
func (c *chain[T]) unlink(pred, n *node[T]) {
	if pred == nil {
		c.head = n.next
		n.atFront = true
		n.next = nil
	} else {
		pred.next = n.next
		if c.tail == n {
			n.back = pred
		}
	}
	if c.tail == n {
		c.tail = pred
	}
	n.unlinked = true
	c.size--
}

// reset 一次性丢弃整条链，返回被丢弃的元素数
func (c *chain[T]) reset() int {
	dropped := c.size
	c.head = nil
	c.tail = nil
	c.size = 0
	c.epoch++
	return dropped
}

// linked 报告节点当前是否仍在链表中
func (c *chain[T]) linked(n *node[T]) bool {
	return !n.unlinked && n.epoch == c.epoch
}

// detachedAtFront 报告节点之前的所有节点是否都已离开
func (c *chain[T]) detachedAtFront(n *node[T]) bool {
	return n.atFront || n.epoch != c.epoch
}

// successor 返回游标之后第一个仍在链表中的节点
// cursor 为 nil 表示尚未开始遍历
//
// 游标已离开链表时，沿着保留的 next 向后找；next 为空说明它离开时是队尾，
// 此时退回到它当时的前驱，前驱之后的节点都比游标新
func (c *chain[T]) successor(cursor *node[T]) *node[T] {
	if cursor == nil {
		return c.head
	}
	for p := cursor; ; {
		if c.linked(p) {
			return p.next
		}
		if c.detachedAtFront(p) {
			// p 及其之前的节点都已离开，剩下的节点都比游标新
			return c.head
		}
		if p.next == nil {
			if p.back == nil {
				return nil
			}
			p = p.back
			continue
		}
		if c.linked(p.next) {
			return p.next
		}
		p = p.next
	}
}

// predecessor 返回链表中 n 的前驱，n 为队头时返回 nil
// 调用方需保证 n 仍在链表中
func (c *chain[T]) predecessor(n *node[T]) *node[T] {
	var pred *node[T]
	for cur := c.head; cur != nil && cur != n; cur = cur.next {
		pred = cur
	}
	return pred
}

// values 按顺序复制所有元素
func (c *chain[T]) values() []T {
	result := make([]T, 0, c.size)
	for n := c.head; n != nil; n = n.next {
		result = append(result, n.value)
	}
	return result
}

// removeIf 删除所有满足条件的节点，返回被删除的值
func (c *chain[T]) removeIf(match func(T) bool, limit int) []T {
	var removed []T
	var pred *node[T]
	for n := c.head; n != nil; {
		next := n.next
		if match(n.value) {
			c.unlink(pred, n)
			removed = append(removed, n.value)
			if limit > 0 && len(removed) >= limit {
				break
			}
		} else {
			pred = n
		}
		n = next
	}
	return removed
}
