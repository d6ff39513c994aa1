// Package bus 提供事件总线，它是围绕通用 MessageBus 的类型安全包装器
package bus

import (
	"context"
	"fmt"

	"bloggo/eventing"
	"bloggo/messaging"
)

// IEventHandler 事件处理器接口
type IEventHandler interface {
	messaging.IMessageHandler
	HandleEvent(ctx context.Context, evt eventing.IEvent) error
	HandledEventTypes() []string
}

// IEventBus 事件总线接口
//
// 发布语义：
//   - 同一聚合的事件按提交顺序投递（分区键 = 聚合ID）；
//   - 不同聚合的事件可以自由交错；
//   - 至少一次投递，发布失败原样返回给追加事件的调用方。
type IEventBus interface {
	PublishEvent(ctx context.Context, evt eventing.IEvent) error
	PublishEvents(ctx context.Context, events []eventing.IEvent) error
	SubscribeEvent(ctx context.Context, eventType string, handler IEventHandler) error
	UnsubscribeEvent(ctx context.Context, eventType string, handler IEventHandler) error

	// SubscribeHandler 按处理器声明的事件类型批量订阅
	SubscribeHandler(ctx context.Context, handler IEventHandler) error
	UnsubscribeHandler(ctx context.Context, handler IEventHandler) error
}

// EventBus 消息总线的类型安全包装器
type EventBus struct {
	bus messaging.IMessageBus
}

// NewEventBus 创建事件总线实例
func NewEventBus(messageBus messaging.IMessageBus) *EventBus {
	return &EventBus{bus: messageBus}
}

// PublishEvent 发布单个事件
func (eb *EventBus) PublishEvent(ctx context.Context, evt eventing.IEvent) error {
	return eb.bus.Publish(ctx, evt)
}

// PublishEvents 按顺序发布多个事件
func (eb *EventBus) PublishEvents(ctx context.Context, events []eventing.IEvent) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]messaging.IMessage, len(events))
	for i, e := range events {
		messages[i] = e
	}
	return eb.bus.PublishAll(ctx, messages)
}

// SubscribeEvent 订阅事件处理器
func (eb *EventBus) SubscribeEvent(ctx context.Context, eventType string, handler IEventHandler) error {
	return eb.bus.Subscribe(ctx, eventType, handler)
}

// UnsubscribeEvent 取消订阅事件处理器
func (eb *EventBus) UnsubscribeEvent(ctx context.Context, eventType string, handler IEventHandler) error {
	return eb.bus.Unsubscribe(ctx, eventType, handler)
}

// SubscribeHandler 按处理器声明的事件类型批量订阅
func (eb *EventBus) SubscribeHandler(ctx context.Context, handler IEventHandler) error {
	types := handler.HandledEventTypes()
	if len(types) == 0 {
		return fmt.Errorf("handler %s declares no event types", handler.Name())
	}
	for _, t := range types {
		if err := eb.SubscribeEvent(ctx, t, handler); err != nil {
			return err
		}
	}
	return nil
}

// UnsubscribeHandler 按处理器声明的事件类型批量取消订阅
func (eb *EventBus) UnsubscribeHandler(ctx context.Context, handler IEventHandler) error {
	for _, t := range handler.HandledEventTypes() {
		if err := eb.UnsubscribeEvent(ctx, t, handler); err != nil {
			return err
		}
	}
	return nil
}

// Ensure interface compliance.
var _ IEventBus = (*EventBus)(nil)
