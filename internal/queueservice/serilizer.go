package queueservice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/fyerfyer/mriqueue/queue"
)

// QueueData 表示队列的可序列化数据结构
type QueueData struct {
	Name      string    `json:"name"`
	Type      QueueType `json:"type"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	Items     []string  `json:"items,omitempty"`
}

// FormatQueueInfo 返回队列信息的格式化字符串表示
func FormatQueueInfo(info QueueInfo) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Queue: %s\n", info.Name))
	sb.WriteString(fmt.Sprintf("Type: %s\n", info.Type))
	sb.WriteString(fmt.Sprintf("Size: %d/%d\n", info.Stats.Size, info.Stats.Capacity))
	sb.WriteString(fmt.Sprintf("Created: %s\n", formatTimeAgo(info.Stats.CreatedAt)))
	sb.WriteString(fmt.Sprintf("Operations: %d offered, %d polled, %d evicted\n",
		info.Stats.Offered, info.Stats.Polled, info.Stats.Evicted))

	return sb.String()
}

// FormatQueueStats 返回队列统计信息的格式化字符串表示
func FormatQueueStats(stats queue.Stats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d\n", stats.Size))
	sb.WriteString(fmt.Sprintf("Capacity: %d (%.1f%% utilized)\n",
		stats.Capacity, stats.Utilization()*100))
	sb.WriteString(fmt.Sprintf("Created: %s\n", formatTimeAgo(stats.CreatedAt)))
	sb.WriteString(fmt.Sprintf("Operations: %d offered, %d polled\n", stats.Offered, stats.Polled))
	sb.WriteString(fmt.Sprintf("Evicted: %d\n", stats.Evicted))

	if stats.Removed > 0 || stats.Cleared > 0 {
		sb.WriteString(fmt.Sprintf("Dropped: %d removed, %d cleared\n", stats.Removed, stats.Cleared))
	}

	if stats.Rejected > 0 {
		sb.WriteString(fmt.Sprintf("Rejected: %d\n", stats.Rejected))
	}

	if stats.Cancelled > 0 {
		sb.WriteString(fmt.Sprintf("Cancelled: %d\n", stats.Cancelled))
	}

	return sb.String()
}

// SerializeQueueData 将队列数据序列化为JSON
func SerializeQueueData(data QueueData) ([]byte, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "serialize queue %q", data.Name)
	}
	return b, nil
}

// DeserializeQueueData 从JSON反序列化队列数据
func DeserializeQueueData(data []byte) (QueueData, error) {
	var queueData QueueData
	if err := json.Unmarshal(data, &queueData); err != nil {
		return QueueData{}, errors.Wrap(err, "deserialize queue data")
	}
	if queueData.Capacity <= 0 {
		return QueueData{}, errors.Errorf("queue %q has invalid capacity %d", queueData.Name, queueData.Capacity)
	}
	// 快照中的元素多于容量时只保留最新的部分
	if len(queueData.Items) > queueData.Capacity {
		queueData.Items = queueData.Items[len(queueData.Items)-queueData.Capacity:]
	}
	return queueData, nil
}

// formatTimeAgo 将时间格式化为人类可读的"多久之前"字符串
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	seconds := int(duration.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%d seconds ago", seconds)
	}

	minutes := int(duration.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}

	hours := int(duration.Hours())
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := int(duration.Hours() / 24)
	return fmt.Sprintf("%d days ago", days)
}

// ParseItems 解析以逗号分隔的项目字符串，忽略空项
func ParseItems(itemsStr string) []string {
	if itemsStr == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(itemsStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// FormatItems 将项目切片格式化为以逗号分隔的字符串
func FormatItems(items []string) string {
	return strings.Join(items, ",")
}
