package stress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fyerfyer/mriqueue/queue"
)

// Mode 表示每次迭代在入队之后执行的操作
type Mode string

const (
	// ModeOffer 只入队
	ModeOffer Mode = "offer"
	// ModePoll 入队后出队
	ModePoll Mode = "poll"
	// ModePeek 入队后查看队头
	ModePeek Mode = "peek"
	// ModeIterate 入队后用迭代器走若干步
	ModeIterate Mode = "iterate"
	// ModeRemove 入队后通过迭代器删除队头
	ModeRemove Mode = "remove"
	// ModeClear 入队后定期清空队列
	ModeClear Mode = "clear"
	// ModeString 入队后格式化整个队列
	ModeString Mode = "string"
	// ModeMixed 轮流执行以上各种操作
	ModeMixed Mode = "mixed"
)

// Modes 列出所有支持的模式
var Modes = []Mode{ModeOffer, ModePoll, ModePeek, ModeIterate, ModeRemove, ModeClear, ModeString, ModeMixed}

// ErrUnknownMode 表示不支持的压测模式
var ErrUnknownMode = errors.New("unknown stress mode")

// ParseMode 解析模式名称
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownMode, "%q", s)
}

// Config 定义一次压测的参数
type Config struct {
	// 队列容量
	Capacity int

	// 并发工作协程数量
	Workers int

	// 每个工作协程入队的元素数量
	Iterations int

	// 入队之后执行的操作
	Mode Mode

	// 每个工作协程每秒的迭代次数上限，0表示不限速
	Rate float64

	// 限速器的突发容量
	Burst int

	// 迭代模式下每次最多走的步数
	IterateSteps int

	// 清空模式下每隔多少次迭代清空一次
	ClearEvery int

	// 进度日志的间隔，0表示不输出进度
	ProgressInterval time.Duration

	// 日志记录器
	Logger *logrus.Logger
}

// DefaultConfig 返回与原始压测场景一致的默认配置
func DefaultConfig() Config {
	return Config{
		Capacity:         1000,
		Workers:          10,
		Iterations:       1000000,
		Mode:             ModeMixed,
		Burst:            1,
		IterateSteps:     10,
		ClearEvery:       1000,
		ProgressInterval: time.Second,
	}
}

func (c *Config) validate() error {
	if c.Capacity <= 0 {
		return errors.Wrapf(queue.ErrInvalidCapacity, "%d", c.Capacity)
	}
	if c.Workers <= 0 || c.Iterations <= 0 {
		return errors.New("workers and iterations must be positive")
	}
	if c.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	if c.Mode == "" {
		c.Mode = ModeMixed
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.IterateSteps <= 0 {
		c.IterateSteps = 10
	}
	if c.ClearEvery <= 0 {
		c.ClearEvery = 1000
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return nil
}

// Runner 在一个并发队列上执行压测
type Runner struct {
	config Config
	id     string
	q      *queue.ConcurrentQueue[int]
	done   atomic.Int64
}

// NewRunner 创建一个新的压测执行器
func NewRunner(config Config) (*Runner, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	q, err := queue.NewConcurrentQueue[int](config.Capacity, queue.WithLogger(config.Logger))
	if err != nil {
		return nil, err
	}

	return &Runner{
		config: config,
		id:     uuid.NewString(),
		q:      q,
	}, nil
}

// ID 返回本次压测的唯一标识
func (r *Runner) ID() string {
	return r.id
}

// Queue 返回被压测的队列
func (r *Runner) Queue() *queue.ConcurrentQueue[int] {
	return r.q
}

// Run 启动所有工作协程并等待它们结束
// 上下文取消时工作协程尽快退出，报告中 Interrupted 为true
func (r *Runner) Run(ctx context.Context) *Report {
	cfg := r.config
	log := cfg.Logger.WithFields(logrus.Fields{"run": r.id, "mode": cfg.Mode})
	log.WithFields(logrus.Fields{
		"workers":    cfg.Workers,
		"iterations": cfg.Iterations,
		"capacity":   cfg.Capacity,
	}).Info("stress run started")

	stopProgress := r.reportProgress(ctx, log)

	start := time.Now()
	results := make([]Result, cfg.Workers)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w] = r.work(ctx, w)
		}(w)
	}
	wg.Wait()
	stopProgress()

	report := &Report{
		RunID:     r.id,
		Mode:      cfg.Mode,
		Capacity:  cfg.Capacity,
		Duration:  time.Since(start),
		Results:   results,
		Stats:     r.q.Stats(),
		Remaining: len(r.q.ToSlice()),
	}
	for _, res := range results {
		if res.Interrupted {
			report.Interrupted = true
		}
	}

	log.WithFields(logrus.Fields{
		"duration": report.Duration,
		"offered":  report.Stats.Offered,
		"evicted":  report.Stats.Evicted,
	}).Info("stress run finished")
	return report
}

func (r *Runner) reportProgress(ctx context.Context, log *logrus.Entry) func() {
	if r.config.ProgressInterval <= 0 {
		return func() {}
	}

	total := int64(r.config.Workers) * int64(r.config.Iterations)
	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(r.config.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				done := r.done.Load()
				log.WithFields(logrus.Fields{
					"done":     done,
					"progress": float64(done) / float64(total) * 100,
					"size":     r.q.Size(),
				}).Info("stress progress")
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		close(stop)
		<-finished
	}
}

// work 是单个工作协程的主循环
func (r *Runner) work(ctx context.Context, worker int) Result {
	cfg := r.config
	res := Result{Worker: worker}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)
	}

	var sizeSum int64
	start := time.Now()
	base := worker * cfg.Iterations
	for i := 0; i < cfg.Iterations; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				res.Interrupted = true
				break
			}
		} else if ctx.Err() != nil {
			res.Interrupted = true
			break
		}

		if _, err := r.q.OfferContext(ctx, base+i); err != nil {
			if errors.Is(err, queue.ErrOperationCancelled) {
				res.Interrupted = true
				break
			}
			r.fail(&res, err)
			continue
		}
		res.Offered++

		if err := r.step(ctx, &res, i); err != nil {
			if errors.Is(err, queue.ErrOperationCancelled) {
				res.Interrupted = true
				break
			}
			r.fail(&res, err)
		} else {
			res.Succeeded++
		}

		size := r.q.Size()
		sizeSum += int64(size)
		if size > res.MaxSize {
			res.MaxSize = size
		}
		res.Iterations++
		r.done.Add(1)
	}

	res.Duration = time.Since(start)
	if res.Iterations > 0 {
		res.MeanSize = float64(sizeSum) / float64(res.Iterations)
	}
	return res
}

// step 执行一次迭代中入队之后的操作
func (r *Runner) step(ctx context.Context, res *Result, i int) error {
	mode := r.config.Mode
	if mode == ModeMixed {
		// 清空会使其他模式的观测失去意义，因此频率较低
		mixed := []Mode{ModePoll, ModePeek, ModeIterate, ModeRemove, ModeString, ModePoll}
		mode = mixed[i%len(mixed)]
		if i > 0 && i%r.config.ClearEvery == 0 {
			mode = ModeClear
		}
	}

	switch mode {
	case ModePoll:
		_, ok, err := r.q.PollContext(ctx)
		if ok {
			res.Polled++
		}
		return err
	case ModePeek:
		r.q.Peek()
	case ModeIterate:
		it := r.q.Iterator()
		for steps := 0; steps < r.config.IterateSteps && it.HasNext(); steps++ {
			if _, err := it.Next(); err != nil {
				// 最后一个元素被并发取走
				if errors.Is(err, queue.ErrNoSuchElement) {
					break
				}
				return err
			}
		}
	case ModeRemove:
		it := r.q.Iterator()
		if _, err := it.Next(); err != nil {
			if errors.Is(err, queue.ErrNoSuchElement) {
				return nil
			}
			return err
		}
		return it.Remove()
	case ModeClear:
		if i%r.config.ClearEvery == 0 {
			_, err := r.q.ClearContext(ctx)
			return err
		}
	case ModeString:
		_ = r.q.String()
	}
	return nil
}

func (r *Runner) fail(res *Result, err error) {
	res.Errors++
	if res.Errors == 1 {
		r.config.Logger.WithError(err).WithFields(logrus.Fields{
			"run":    r.id,
			"worker": res.Worker,
		}).Error("stress operation failed")
	}
}

// Run 按配置创建队列并执行一次压测
func Run(ctx context.Context, config Config) (*Report, error) {
	runner, err := NewRunner(config)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx), nil
}
