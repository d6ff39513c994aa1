// Package messaging 提供消息传输层抽象
package messaging

import (
	"context"
)

// Transport 消息传输接口
//
// 实现约定：
//   - 同一分区键（IMessage.GetKey）的消息必须按发布顺序投递；
//   - 不同分区键的消息可以自由交错；
//   - 投递语义为至少一次（at-least-once），处理器需自行保证幂等。
type Transport interface {
	Publish(ctx context.Context, message IMessage) error
	PublishAll(ctx context.Context, messages []IMessage) error
	Subscribe(messageType string, handler IMessageHandler) error
	Unsubscribe(messageType string, handler IMessageHandler) error
	Start(ctx context.Context) error
	Close() error
	Stats() TransportStats
}

// TransportStats 传输层统计信息
type TransportStats struct {
	Running        bool     `json:"running"`
	HandlerCount   int      `json:"handler_count"`
	MessageTypes   []string `json:"message_types"`
	PartitionCount int      `json:"partition_count,omitempty"`
	QueueDepth     int      `json:"queue_depth,omitempty"`
}
