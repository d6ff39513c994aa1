// Package eventing 定义领域事件及其传输/存储抽象
package eventing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"bloggo/messaging"
)

// IEvent 基础事件接口（用于事件传输/路由）
// 包含事件分发的最小必要信息
type IEvent interface {
	messaging.IMessage

	// 聚合信息（用于路由和关联）
	GetAggregateID() string
	GetAggregateType() string
	GetVersion() uint64
}

// Event 领域事件实现
//
// Type 字段即 kind 判别符，必须经序列化原样往返，
// 消费端依赖它解析具体事件类型。
// Version 是事件在所属聚合流中的位置（从 1 开始）。
type Event struct {
	messaging.Message
	AggregateID   string `json:"aggregate_id"`
	AggregateType string `json:"aggregate_type"`
	Version       uint64 `json:"version"`
}

// GetAggregateID 返回所属聚合ID
func (e *Event) GetAggregateID() string { return e.AggregateID }

// GetAggregateType 返回所属聚合类型
func (e *Event) GetAggregateType() string { return e.AggregateType }

// GetVersion 返回事件在聚合流中的版本号
func (e *Event) GetVersion() uint64 { return e.Version }

// Validate 校验事件的必填字段
func (e *Event) Validate() error {
	if e.GetID() == "" {
		return fmt.Errorf("event id cannot be empty")
	}
	if e.AggregateID == "" {
		return fmt.Errorf("aggregate id cannot be empty")
	}
	if e.AggregateType == "" {
		return fmt.Errorf("aggregate type cannot be empty")
	}
	if e.GetType() == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if e.Version == 0 {
		return fmt.Errorf("event version must be greater than 0")
	}
	return nil
}

// NewEvent 创建事件
//
// 分区键固定为聚合ID，保证同一聚合的事件在总线上保序。
func NewEvent(aggregateID, aggregateType, eventType string, version uint64, payload any) *Event {
	return &Event{
		Message: messaging.Message{
			ID:        uuid.NewString(),
			Type:      eventType,
			Key:       aggregateID,
			Timestamp: time.Now(),
			Payload:   payload,
			Metadata:  make(map[string]any),
		},
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
	}
}
