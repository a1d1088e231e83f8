package queue

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options 定义队列的配置选项
type Options struct {
	// 事件监听器列表
	EventListeners []EventListener

	// 日志记录器，只在被拒绝的操作上记录日志，热路径不记录
	Logger *logrus.Logger
}

// Option 函数类型用于设置队列选项
type Option func(*Options)

// DefaultOptions 返回默认的队列选项
func DefaultOptions() *Options {
	return &Options{
		EventListeners: nil,
		Logger:         discardLogger(),
	}
}

// WithEventListener 添加事件监听器
func WithEventListener(listener EventListener) Option {
	return func(o *Options) {
		if listener == nil {
			return
		}
		o.EventListeners = append(o.EventListeners, listener)
	}
}

// WithEventListeners 设置事件监听器列表
func WithEventListeners(listeners []EventListener) Option {
	return func(o *Options) {
		o.EventListeners = listeners
	}
}

// WithLogger 设置日志记录器，nil表示丢弃日志
func WithLogger(logger *logrus.Logger) Option {
	return func(o *Options) {
		if logger == nil {
			logger = discardLogger()
		}
		o.Logger = logger
	}
}

func applyOptions(options []Option) *Options {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
