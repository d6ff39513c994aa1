// Package store 定义事件存储的核心接口与实现
package store

import (
	"context"

	"bloggo/eventing"
)

// IEventStore 定义事件存储的核心接口（最小化设计）
//
// 事件存储是事件溯源架构的核心组件，负责持久化和检索领域事件。
// 一个聚合对应一条仅追加的有序事件流，流的当前长度即聚合版本，
// 不需要单独的版本字段。
//
// 一致性约定：
//   - AppendEvents 是唯一受并发控制的变更入口（乐观锁，无任何锁表）；
//   - AppendEvents 返回成功后，事件对任何后续 LoadEvents 立即可见；
//   - LoadEvents 无锁读取，可能返回落后但内部一致的快照。
type IEventStore interface {
	// AppendEvents 原子地追加事件到指定聚合的事件流
	//
	// 仅当流的当前长度等于 expectedVersion 时才写入；否则返回
	// ConcurrencyError 且不产生任何写入（不存在部分追加）。
	// expectedVersion 为 0 表示新聚合。
	AppendEvents(ctx context.Context, aggregateID string, events []*eventing.Event, expectedVersion uint64) error

	// LoadEvents 加载聚合的完整有序事件流
	//
	// 聚合从未被创建时返回 ErrAggregateNotFound。
	LoadEvents(ctx context.Context, aggregateID string) ([]eventing.Event, error)

	// ListAggregateIDs 枚举所有已知聚合流（管理用途）
	ListAggregateIDs(ctx context.Context) ([]string, error)
}

// validateAppend 校验追加批次的公共规则
//
// 事件版本必须从 expectedVersion+1 起连续递增，且全部字段合法。
func validateAppend(aggregateID string, events []*eventing.Event, expectedVersion uint64) error {
	for i, evt := range events {
		if evt.AggregateID != aggregateID {
			return eventing.NewInvalidEventError(evt.GetID(), evt.GetType(), "event aggregate id mismatch")
		}
		want := expectedVersion + uint64(i) + 1
		if evt.GetVersion() != want {
			return eventing.NewInvalidEventError(evt.GetID(), evt.GetType(),
				"event version not sequential")
		}
		if err := evt.Validate(); err != nil {
			return eventing.NewInvalidEventError(evt.GetID(), evt.GetType(), err.Error())
		}
	}
	return nil
}
