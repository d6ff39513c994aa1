package monitoring

import "time"

// 健康阈值
const (
	maxErrorRate = 5.0 // 处理错误率上限（百分比）
	maxLag       = 5 * time.Second
)

// GetHealthStatus 获取健康状态
//
// 任何一条投影循环致命停止都视为不健康——停止意味着读模型不再
// 前进，必须告警并人工介入。死信、错误率与滞后超阈值同样降级。
func (m *Metrics) GetHealthStatus() map[string]any {
	snapshot := m.GetSnapshot()

	healthy := true
	issues := make([]string, 0)

	if snapshot.FatalStops > 0 {
		healthy = false
		issues = append(issues, "projection loop halted on schema mismatch")
	}

	if snapshot.DeadLetters > 0 {
		healthy = false
		issues = append(issues, "events dead-lettered, manual replay required")
	}

	if snapshot.ProcessingErrors > 0 &&
		errorRate(snapshot.ProcessingErrors, snapshot.EventsProcessed) > maxErrorRate {
		healthy = false
		issues = append(issues, "high event processing error rate")
	}

	if snapshot.ProjectionLag > maxLag {
		healthy = false
		issues = append(issues, "high projection lag")
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	return map[string]any{
		"status":  status,
		"healthy": healthy,
		"issues":  issues,
		"uptime":  snapshot.Uptime.Seconds(),
		"metrics": snapshot.ToMap(),
	}
}
