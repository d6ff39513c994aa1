package monitoring

var globalMetrics = NewMetrics()

// GlobalMetrics 获取全局指标收集器
func GlobalMetrics() *Metrics { return globalMetrics }
