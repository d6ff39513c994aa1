// Package monitoring 提供事件消费侧的运行指标与健康评估
package monitoring

import (
	"sync/atomic"
	"time"
)

// Metrics 投影消费指标
//
// 计数器全部用原子操作更新，记录方法可以在分区循环里直接调用。
type Metrics struct {
	// 事件处理指标
	EventsProcessed  int64 // 处理的事件总数
	ProcessingTime   int64 // 事件处理总耗时（纳秒）
	ProcessingErrors int64 // 重试后仍失败的事件数

	// 消费循环指标
	DeadLetters int64 // 进入死信的事件数
	FatalStops  int64 // 因模式不一致停止的循环数

	// 位点指标
	CheckpointSaves  int64 // 位点提交次数
	CheckpointErrors int64 // 位点提交失败次数

	// ProjectionLag 最近一次处理的事件滞后（毫秒）
	ProjectionLag int64

	startTime time.Time
}

// NewMetrics 创建新的指标收集器
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEventProcessed 记录一次事件处理
func (m *Metrics) RecordEventProcessed(duration time.Duration, success bool) {
	atomic.AddInt64(&m.EventsProcessed, 1)
	atomic.AddInt64(&m.ProcessingTime, int64(duration))
	if !success {
		atomic.AddInt64(&m.ProcessingErrors, 1)
	}
}

// RecordDeadLetter 记录一次死信
func (m *Metrics) RecordDeadLetter() { atomic.AddInt64(&m.DeadLetters, 1) }

// RecordFatalStop 记录一次致命停止
func (m *Metrics) RecordFatalStop() { atomic.AddInt64(&m.FatalStops, 1) }

// RecordCheckpointSave 记录一次位点提交
func (m *Metrics) RecordCheckpointSave(success bool) {
	atomic.AddInt64(&m.CheckpointSaves, 1)
	if !success {
		atomic.AddInt64(&m.CheckpointErrors, 1)
	}
}

// RecordProjectionLag 记录投影滞后
func (m *Metrics) RecordProjectionLag(lag time.Duration) {
	atomic.StoreInt64(&m.ProjectionLag, lag.Milliseconds())
}

// MetricsSnapshot 指标快照（用于读取）
type MetricsSnapshot struct {
	EventsProcessed  int64
	ProcessingTime   time.Duration
	ProcessingErrors int64

	DeadLetters int64
	FatalStops  int64

	CheckpointSaves  int64
	CheckpointErrors int64

	ProjectionLag time.Duration

	Uptime time.Duration
}

// GetSnapshot 获取当前指标快照
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsProcessed:  atomic.LoadInt64(&m.EventsProcessed),
		ProcessingTime:   time.Duration(atomic.LoadInt64(&m.ProcessingTime)),
		ProcessingErrors: atomic.LoadInt64(&m.ProcessingErrors),

		DeadLetters: atomic.LoadInt64(&m.DeadLetters),
		FatalStops:  atomic.LoadInt64(&m.FatalStops),

		CheckpointSaves:  atomic.LoadInt64(&m.CheckpointSaves),
		CheckpointErrors: atomic.LoadInt64(&m.CheckpointErrors),

		ProjectionLag: time.Duration(atomic.LoadInt64(&m.ProjectionLag)) * time.Millisecond,

		Uptime: time.Since(m.startTime),
	}
}

// ToMap 转换为map格式（便于JSON序列化）
func (s MetricsSnapshot) ToMap() map[string]any {
	return map[string]any{
		"uptime_seconds": s.Uptime.Seconds(),
		"event_processing": map[string]any{
			"processed":          s.EventsProcessed,
			"duration_ms":        s.ProcessingTime.Milliseconds(),
			"errors":             s.ProcessingErrors,
			"avg_duration_ms":    avgDuration(s.ProcessingTime, s.EventsProcessed),
			"error_rate":         errorRate(s.ProcessingErrors, s.EventsProcessed),
			"throughput_per_sec": throughput(s.EventsProcessed, s.Uptime),
		},
		"consumer": map[string]any{
			"dead_letters": s.DeadLetters,
			"fatal_stops":  s.FatalStops,
			"lag_ms":       s.ProjectionLag.Milliseconds(),
		},
		"checkpoint": map[string]any{
			"saves":      s.CheckpointSaves,
			"errors":     s.CheckpointErrors,
			"error_rate": errorRate(s.CheckpointErrors, s.CheckpointSaves),
		},
	}
}

// helpers
func avgDuration(total time.Duration, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total.Milliseconds()) / float64(count)
}
func errorRate(errors, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(errors) / float64(total) * 100
}
func throughput(count int64, duration time.Duration) float64 {
	if duration.Seconds() == 0 {
		return 0
	}
	return float64(count) / duration.Seconds()
}
