// Package messaging 提供消息总线的核心功能
package messaging

import (
	"context"
	"fmt"
)

// IMessageBus 消息总线接口
type IMessageBus interface {
	Subscribe(ctx context.Context, messageType string, handler IMessageHandler) error
	Unsubscribe(ctx context.Context, messageType string, handler IMessageHandler) error
	Publish(ctx context.Context, message IMessage) error
	PublishAll(ctx context.Context, messages []IMessage) error
}

// MessageBus 消息总线基础实现
// 它依赖于 Transport 接口来处理实际的消息传输
type MessageBus struct {
	transport Transport
}

// NewMessageBus 创建消息总线
func NewMessageBus(transport Transport) *MessageBus {
	return &MessageBus{transport: transport}
}

// Subscribe 订阅消息处理器
func (bus *MessageBus) Subscribe(ctx context.Context, messageType string, handler IMessageHandler) error {
	return bus.transport.Subscribe(messageType, handler)
}

// Unsubscribe 取消订阅消息处理器
func (bus *MessageBus) Unsubscribe(ctx context.Context, messageType string, handler IMessageHandler) error {
	return bus.transport.Unsubscribe(messageType, handler)
}

// Publish 发布消息
func (bus *MessageBus) Publish(ctx context.Context, message IMessage) error {
	if message == nil {
		return fmt.Errorf("message cannot be nil")
	}
	return bus.transport.Publish(ctx, message)
}

// PublishAll 按顺序发布多个消息
//
// 发布失败立即返回错误，不吞掉；调用方（通常是追加事件的一侧）
// 需要感知发布失败并自行处理。
func (bus *MessageBus) PublishAll(ctx context.Context, messages []IMessage) error {
	if len(messages) == 0 {
		return nil
	}
	if err := bus.transport.PublishAll(ctx, messages); err != nil {
		return fmt.Errorf("failed to publish batch (%d messages): %w", len(messages), err)
	}
	return nil
}

// Ensure interface compliance.
var _ IMessageBus = (*MessageBus)(nil)
