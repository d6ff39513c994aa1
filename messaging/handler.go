package messaging

import "context"

// IMessageHandler 消息处理器接口
//
// 注意：订阅管理按处理器实例做相等比较，处理器应使用指针类型，
// 避免以函数类型直接实现该接口（接口相等比较对函数值会 panic）。
type IMessageHandler interface {
	// Handle 处理一条消息
	Handle(ctx context.Context, message IMessage) error

	// Name 处理器名称（用于日志与调试）
	Name() string
}
