// Package eventsourced 提供事件溯源聚合的基础设施
//
// 聚合的当前状态不直接持久化，而是由其历史事件流按序折叠得到；
// 版本号等于已应用的事件数量，由事件流长度权威决定。
package eventsourced

import (
	"bloggo/domain"
)

// IEventSourcedAggregate 事件溯源聚合接口
//
// 具体聚合自己实现 ApplyEvent（状态折叠函数），基类只负责
// 身份、版本与未提交事件缓冲。ApplyEvent 必须是确定性的纯状态
// 变换：不做校验、不产生副作用；遇到未知事件类型返回错误而
// 不是忽略。
type IEventSourcedAggregate interface {
	domain.IEntity

	// GetAggregateType 聚合类型名（事件流的命名空间）
	GetAggregateType() string

	// GetVersion 当前版本（已应用的事件数量）
	GetVersion() uint64

	// ApplyEvent 把单个事件折叠进聚合状态
	ApplyEvent(evt domain.IDomainEvent) error

	// GetUncommittedEvents 返回尚未持久化的新事件
	GetUncommittedEvents() []domain.IDomainEvent

	// MarkEventsAsCommitted 清空未提交事件缓冲
	MarkEventsAsCommitted()
}

// EventSourcedAggregate 事件溯源聚合基类
//
// 具体聚合通过内嵌该类型获得身份、版本与未提交缓冲的管理；
// 状态折叠（ApplyEvent）由具体聚合实现，基类不提供默认实现，
// 避免方法内嵌带来的静态绑定陷阱。
type EventSourcedAggregate struct {
	id            string
	aggregateType string
	version       uint64
	uncommitted   []domain.IDomainEvent
}

// NewEventSourcedAggregate 创建聚合基类实例
func NewEventSourcedAggregate(id, aggregateType string) EventSourcedAggregate {
	return EventSourcedAggregate{
		id:            id,
		aggregateType: aggregateType,
	}
}

// GetID 返回聚合ID
func (a *EventSourcedAggregate) GetID() string {
	return a.id
}

// GetAggregateType 返回聚合类型名
func (a *EventSourcedAggregate) GetAggregateType() string {
	return a.aggregateType
}

// GetVersion 返回当前版本
func (a *EventSourcedAggregate) GetVersion() uint64 {
	return a.version
}

// Advance 版本号前进一步
//
// 具体聚合的 ApplyEvent 在成功折叠一个事件后调用。
func (a *EventSourcedAggregate) Advance() {
	a.version++
}

// RecordEvent 把新事件记入未提交缓冲
//
// 调用方应先 ApplyEvent 再 RecordEvent，保证内存状态与
// 待持久化的事件流一致。
func (a *EventSourcedAggregate) RecordEvent(evt domain.IDomainEvent) {
	a.uncommitted = append(a.uncommitted, evt)
}

// GetUncommittedEvents 返回尚未持久化的新事件
func (a *EventSourcedAggregate) GetUncommittedEvents() []domain.IDomainEvent {
	return a.uncommitted
}

// MarkEventsAsCommitted 清空未提交事件缓冲
func (a *EventSourcedAggregate) MarkEventsAsCommitted() {
	a.uncommitted = nil
}
