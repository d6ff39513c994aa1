// Package memory 提供基于内存分区队列的消息传输实现
// 适用于单机部署、开发环境和测试场景
package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"bloggo/logging"
	"bloggo/messaging"
)

// MemoryTransport 内存消息传输实现
//
// 特性:
//   - 按分区键哈希到固定数量的分区队列
//   - 每个分区由单个顺序 worker 消费，同一键的消息严格保序
//   - 不同分区并发处理，互不阻塞
//   - 并发安全
//
// 使用场景:
//   - 单机部署
//   - 开发环境
//   - 测试场景
type MemoryTransport struct {
	handlers       map[string][]messaging.IMessageHandler
	partitions     []chan messaging.IMessage
	partitionCount int
	queueSize      int
	running        bool
	logger         logging.Logger
	mutex          sync.RWMutex
	wg             sync.WaitGroup
}

// NewMemoryTransport 创建内存传输实例
//
// 参数:
//   - partitionCount: 分区数量（<=0 时使用默认 4）
//   - queueSize: 单分区队列大小（<=0 时使用默认 256）
func NewMemoryTransport(partitionCount, queueSize int) *MemoryTransport {
	if partitionCount <= 0 {
		partitionCount = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	return &MemoryTransport{
		handlers:       make(map[string][]messaging.IMessageHandler),
		partitions:     make([]chan messaging.IMessage, partitionCount),
		partitionCount: partitionCount,
		queueSize:      queueSize,
		logger:         logging.GetLogger().WithFields(logging.String("component", "transport.memory")),
	}
}

// Publish 发布消息到对应分区队列
//
// 消息按分区键哈希入队，由该分区的顺序 worker 异步处理。
// 队列满或传输未启动时返回错误，由发布方决定重试。
func (t *MemoryTransport) Publish(ctx context.Context, message messaging.IMessage) error {
	t.mutex.RLock()
	if !t.running {
		t.mutex.RUnlock()
		return fmt.Errorf("memory transport is not running")
	}
	queue := t.partitions[t.partitionFor(message)]
	t.mutex.RUnlock()
	select {
	case queue <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("partition queue is full")
	}
}

// PublishAll 批量发布消息
//
// 逐条入队，保持单键顺序；任一消息失败立即返回错误。
func (t *MemoryTransport) PublishAll(ctx context.Context, messages []messaging.IMessage) error {
	for _, message := range messages {
		if err := t.Publish(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// partitionFor 计算消息所属分区
//
// 分区键为空时退化为消息 ID，保证消息仍能入队。
func (t *MemoryTransport) partitionFor(message messaging.IMessage) int {
	key := message.GetKey()
	if key == "" {
		key = message.GetID()
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % t.partitionCount
}

// Stats 获取统计信息
func (t *MemoryTransport) Stats() messaging.TransportStats {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	types := make([]string, 0, len(t.handlers))
	handlerCount := 0
	for mt, hs := range t.handlers {
		types = append(types, mt)
		handlerCount += len(hs)
	}

	depth := 0
	for _, q := range t.partitions {
		if q != nil {
			depth += len(q)
		}
	}

	return messaging.TransportStats{
		Running:        t.running,
		HandlerCount:   handlerCount,
		MessageTypes:   types,
		PartitionCount: t.partitionCount,
		QueueDepth:     depth,
	}
}

// Ensure interface compliance.
var _ messaging.Transport = (*MemoryTransport)(nil)
