package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 表示传入的参数不合法
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidCapacity 表示指定的队列容量无效，容量必须为正数
	ErrInvalidCapacity = fmt.Errorf("%w: queue capacity must be positive", ErrInvalidArgument)

	// ErrNilItem 表示尝试入队空值
	ErrNilItem = fmt.Errorf("%w: cannot offer nil item", ErrInvalidArgument)

	// ErrNoSuchElement 表示请求的元素不存在
	ErrNoSuchElement = errors.New("no such element")

	// ErrQueueEmpty 表示队列为空，无法获取元素
	ErrQueueEmpty = fmt.Errorf("%w: queue is empty", ErrNoSuchElement)

	// ErrIllegalState 表示在当前状态下不允许该操作
	// 例如迭代器在调用 Next 之前调用 Remove
	ErrIllegalState = errors.New("illegal state")

	// ErrUnsupportedOperation 表示该实现不支持此操作
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrOperationCancelled 表示等待队列锁时操作被取消
	ErrOperationCancelled = errors.New("operation cancelled")

	// ErrTypeMismatch 表示动态传入的值与队列元素类型不匹配
	ErrTypeMismatch = errors.New("type mismatch")
)

// cancelled 将上下文错误包装为 ErrOperationCancelled，
// 调用方可以同时使用 errors.Is 匹配两者
func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrOperationCancelled, cause)
}
