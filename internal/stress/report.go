package stress

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/fyerfyer/mriqueue/queue"
)

// ErrVerificationFailed 表示压测结果违反了队列的不变量
var ErrVerificationFailed = errors.New("stress verification failed")

// Result 是单个工作协程的压测结果
type Result struct {
	Worker      int
	Duration    time.Duration
	Iterations  int
	Offered     int
	Polled      int
	Succeeded   int
	Errors      int
	MeanSize    float64
	MaxSize     int
	Interrupted bool
}

// Report 汇总一次压测的结果
type Report struct {
	RunID       string
	Mode        Mode
	Capacity    int
	Duration    time.Duration
	Results     []Result
	Stats       queue.Stats
	Remaining   int
	Interrupted bool
}

// Totals 返回所有工作协程的合计结果
func (r *Report) Totals() Result {
	var total Result
	var weighted float64
	for _, res := range r.Results {
		total.Iterations += res.Iterations
		total.Offered += res.Offered
		total.Polled += res.Polled
		total.Succeeded += res.Succeeded
		total.Errors += res.Errors
		if res.MaxSize > total.MaxSize {
			total.MaxSize = res.MaxSize
		}
		if res.Duration > total.Duration {
			total.Duration = res.Duration
		}
		weighted += res.MeanSize * float64(res.Iterations)
	}
	if total.Iterations > 0 {
		total.MeanSize = weighted / float64(total.Iterations)
	}
	total.Interrupted = r.Interrupted
	return total
}

// Throughput 返回每秒完成的迭代次数
func (r *Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Totals().Iterations) / r.Duration.Seconds()
}

// Verify 检查压测结果是否满足队列的不变量：
// 观测到的大小从未超过容量，且每个入队的元素恰好以一种方式离开或留在队列中
func (r *Report) Verify() error {
	var problems []string
	total := r.Totals()

	if total.MaxSize > r.Capacity {
		problems = append(problems, fmt.Sprintf("observed size %d exceeds capacity %d", total.MaxSize, r.Capacity))
	}
	if r.Remaining > r.Capacity {
		problems = append(problems, fmt.Sprintf("remaining %d exceeds capacity %d", r.Remaining, r.Capacity))
	}
	if total.Errors > 0 {
		problems = append(problems, fmt.Sprintf("%d operations failed", total.Errors))
	}
	if uint64(total.Offered) != r.Stats.Offered {
		problems = append(problems, fmt.Sprintf("workers offered %d but queue counted %d", total.Offered, r.Stats.Offered))
	}
	if uint64(total.Polled) != r.Stats.Polled {
		problems = append(problems, fmt.Sprintf("workers polled %d but queue counted %d", total.Polled, r.Stats.Polled))
	}
	if accounted := r.Stats.Departed() + uint64(r.Remaining); accounted != r.Stats.Offered {
		problems = append(problems, fmt.Sprintf(
			"offered %d != polled %d + evicted %d + removed %d + cleared %d + remaining %d",
			r.Stats.Offered, r.Stats.Polled, r.Stats.Evicted, r.Stats.Removed, r.Stats.Cleared, r.Remaining))
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrVerificationFailed, strings.Join(problems, "; "))
	}
	return nil
}

// String 返回报告的摘要
func (r *Report) String() string {
	total := r.Totals()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run: %s (%s)\n", r.RunID, r.Mode))
	sb.WriteString(fmt.Sprintf("Duration: %s, %.0f ops/s\n", r.Duration.Round(time.Millisecond), r.Throughput()))
	sb.WriteString(fmt.Sprintf("Iterations: %d, errors: %d, success: %d\n", total.Iterations, total.Errors, total.Succeeded))
	sb.WriteString(fmt.Sprintf("Queue size: mean %.1f, max %d, capacity %d, remaining %d\n",
		total.MeanSize, total.MaxSize, r.Capacity, r.Remaining))
	sb.WriteString(fmt.Sprintf("Offered: %d, polled: %d, evicted: %d, removed: %d, cleared: %d\n",
		r.Stats.Offered, r.Stats.Polled, r.Stats.Evicted, r.Stats.Removed, r.Stats.Cleared))
	if r.Interrupted {
		sb.WriteString("Interrupted: true\n")
	}

	return sb.String()
}
