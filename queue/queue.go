package queue

import (
	"reflect"
)

// Queue 定义最近插入（MRI）队列的基本操作接口
// 队列容量固定，队列已满时入队会先淘汰最旧的元素，因此入队永远不会因容量失败
// 泛型参数T代表队列中存储的元素类型
type Queue[T comparable] interface {
	// Offer 将元素添加到队列尾部，队列已满时先淘汰队头元素
	// 元素为nil时返回ErrNilItem
	Offer(item T) (bool, error)

	// Poll 移除并返回队头元素，队列为空时第二个返回值为false
	Poll() (T, bool)

	// Peek 查看队头元素但不移除
	Peek() (T, bool)

	// Add 与Offer相同，但只通过错误报告失败
	Add(item T) error

	// Remove 移除并返回队头元素，队列为空时返回ErrQueueEmpty
	Remove() (T, error)

	// Element 查看队头元素，队列为空时返回ErrQueueEmpty
	Element() (T, error)

	// Size 返回队列当前元素数量
	Size() int

	// Capacity 返回队列容量
	Capacity() int

	// IsEmpty 检查队列是否为空
	IsEmpty() bool

	// Clear 清空队列中的所有元素
	Clear()

	// Discard 清空队列并返回被丢弃的元素数
	Discard() int

	// Iterator 返回从队头到队尾的迭代器
	Iterator() Iterator[T]

	// Stats 返回队列的统计信息
	Stats() Stats

	// String 返回队列内容的字符串表示
	String() string
}

// Collection 在Queue的基础上提供批量操作
// 每个批量操作在并发实现中只获取一次锁
type Collection[T comparable] interface {
	Queue[T]

	// OfferAny 将动态类型的值入队，类型不匹配时返回ErrTypeMismatch
	OfferAny(item any) (bool, error)

	// AddAll 批量入队，任意元素为nil时不做任何修改并返回ErrNilItem
	AddAll(items ...T) (bool, error)

	// Contains 检查队列是否包含指定元素
	Contains(item T) bool

	// ContainsAll 检查队列是否包含所有指定元素
	ContainsAll(items ...T) bool

	// RemoveValue 移除第一个与指定值相等的元素
	RemoveValue(item T) bool

	// RemoveAll 移除所有出现在items中的元素
	RemoveAll(items ...T) bool

	// RetainAll 仅保留出现在items中的元素
	RetainAll(items ...T) bool

	// ToSlice 按队列顺序返回所有元素的副本
	ToSlice() []T

	// ForEach 从队头开始遍历，回调返回false时停止
	ForEach(f func(T) bool)
}

// Iterator 是队列迭代器
type Iterator[T comparable] interface {
	// HasNext 报告当前位置之后是否还有元素
	HasNext() bool

	// Next 前进一个元素并返回它，没有后继时返回ErrNoSuchElement
	Next() (T, error)

	// Remove 移除最近一次Next返回的元素
	Remove() error
}

// NewQueue 创建一个新的并发安全MRI队列
func NewQueue[T comparable](capacity int, options ...Option) (Collection[T], error) {
	// 实际队列实现在 concurrent_queue.go 中
	q, err := NewConcurrentQueue[T](capacity, options...)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// nilChecker 判断元素是否为nil
// 只有指针、接口、通道等可为nil的类型才需要反射判断
type nilChecker[T any] struct {
	nillable bool
}

func newNilChecker[T any]() nilChecker[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.Map,
		reflect.Slice, reflect.Func, reflect.UnsafePointer:
		return nilChecker[T]{nillable: true}
	}
	return nilChecker[T]{}
}

func (c nilChecker[T]) isNil(item T) bool {
	if !c.nillable {
		return false
	}
	v := reflect.ValueOf(any(item))
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.Map,
		reflect.Slice, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
