package queue

// EventType 表示队列事件的类型
type EventType int

const (
	// EventOffer 元素入队事件
	EventOffer EventType = iota

	// EventPoll 元素出队事件
	EventPoll

	// EventEvict 队列已满，最旧元素被淘汰
	EventEvict

	// EventRemove 元素通过迭代器或按值删除
	EventRemove

	// EventClear 队列被清空
	EventClear

	// EventError 操作错误事件
	EventError
)

// String 返回事件类型的字符串表示
func (t EventType) String() string {
	switch t {
	case EventOffer:
		return "offer"
	case EventPoll:
		return "poll"
	case EventEvict:
		return "evict"
	case EventRemove:
		return "remove"
	case EventClear:
		return "clear"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event 表示队列中发生的事件
type Event struct {
	// 事件类型
	Type EventType

	// 事件发生后队列中的元素数量
	Size int

	// 与事件相关联的元素（如果有）
	Item interface{}

	// 与事件相关联的错误（如果有）
	Err error
}

// EventListener 是接收队列事件的函数接口
// 监听器在锁释放之后、在执行变更的协程上被调用，可以安全地回调队列
type EventListener func(Event)

// EventEmitter 提供事件通知功能
type EventEmitter struct {
	listeners []EventListener
}

// NewEventEmitter 创建一个新的事件发射器
func NewEventEmitter(listeners []EventListener) *EventEmitter {
	if listeners == nil {
		listeners = []EventListener{}
	}
	return &EventEmitter{
		listeners: listeners,
	}
}

// Active 报告是否存在监听器，没有监听器时调用方可以跳过事件构造
func (e *EventEmitter) Active() bool {
	return len(e.listeners) > 0
}

// Emit 发送事件给所有监听器
func (e *EventEmitter) Emit(evt Event) {
	for _, listener := range e.listeners {
		listener(evt)
	}
}

// EmitAll 按顺序发送一组事件
func (e *EventEmitter) EmitAll(events []Event) {
	for _, evt := range events {
		e.Emit(evt)
	}
}
