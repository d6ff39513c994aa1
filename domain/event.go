// Package domain 提供领域层的基础契约
package domain

// IDomainEvent 领域事件载荷接口
//
// EventType 返回事件的 kind 判别符，同时也是序列化信封里的
// type 字段与注册表里的键。
type IDomainEvent interface {
	EventType() string
}

// IEntity 实体接口
type IEntity interface {
	GetID() string
}
