package eventsourced

import (
	"context"
	"errors"
	"fmt"

	"bloggo/domain"
	"bloggo/eventing"
	"bloggo/eventing/bus"
	"bloggo/eventing/registry"
	"bloggo/eventing/store"
	"bloggo/logging"
)

// Factory 聚合工厂函数，创建给定ID的全新（零版本）实例
type Factory[T IEventSourcedAggregate] func(id string) T

// Repository 事件溯源聚合仓储
//
// 读路径：加载事件流 → 解析载荷 → 在全新实例上重放；
// 写路径：以乐观并发追加未提交事件 → 发布到总线 → 清空缓冲。
// 并发冲突（ConcurrencyError）原样返回，由调用方决定重载重试。
type Repository[T IEventSourcedAggregate] struct {
	aggregateType string
	factory       Factory[T]
	store         store.IEventStore
	eventBus      bus.IEventBus
	reg           *registry.Registry
	logger        logging.Logger
}

// NewRepository 创建聚合仓储
//
// reg 为 nil 时使用全局事件注册表。
func NewRepository[T IEventSourcedAggregate](
	aggregateType string,
	factory Factory[T],
	eventStore store.IEventStore,
	eventBus bus.IEventBus,
	reg *registry.Registry,
) *Repository[T] {
	if reg == nil {
		reg = registry.Global()
	}
	return &Repository[T]{
		aggregateType: aggregateType,
		factory:       factory,
		store:         eventStore,
		eventBus:      eventBus,
		reg:           reg,
		logger: logging.GetLogger().WithFields(
			logging.String("component", "eventsourced.repository"),
			logging.String("aggregate_type", aggregateType),
		),
	}
}

// GetByID 按ID加载聚合
//
// 聚合不存在时返回 eventing.ErrAggregateNotFound。
func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T

	events, err := r.store.LoadEvents(ctx, id)
	if err != nil {
		return zero, err
	}

	history := make([]domain.IDomainEvent, 0, len(events))
	for i := range events {
		if err := r.reg.Resolve(&events[i]); err != nil {
			return zero, err
		}
		payload, ok := events[i].GetPayload().(domain.IDomainEvent)
		if !ok {
			return zero, fmt.Errorf("event %s payload %T is not a domain event", events[i].GetID(), events[i].GetPayload())
		}
		history = append(history, payload)
	}

	aggregate := r.factory(id)
	if err := LoadFromHistory(aggregate, history); err != nil {
		return zero, err
	}
	return aggregate, nil
}

// Exists 判断聚合是否已有事件流
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.store.LoadEvents(ctx, id)
	if err != nil {
		if errors.Is(err, eventing.ErrAggregateNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Save 持久化并发布聚合的未提交事件
//
// expectedVersion 取自聚合加载时的版本（当前版本减去未提交
// 事件数），由事件存储做乐观并发校验。事件持久化成功后即视为
// 已提交；发布失败原样上浮给调用方——事件已在存储中，可通过
// 重放补齐投影，不会静默丢失。
func (r *Repository[T]) Save(ctx context.Context, aggregate T) error {
	pending := aggregate.GetUncommittedEvents()
	if len(pending) == 0 {
		return nil
	}

	expectedVersion := aggregate.GetVersion() - uint64(len(pending))
	events := make([]*eventing.Event, len(pending))
	for i, payload := range pending {
		events[i] = eventing.NewEvent(
			aggregate.GetID(),
			r.aggregateType,
			payload.EventType(),
			expectedVersion+uint64(i)+1,
			payload,
		)
	}

	if err := r.store.AppendEvents(ctx, aggregate.GetID(), events, expectedVersion); err != nil {
		return err
	}
	aggregate.MarkEventsAsCommitted()

	r.logger.Debug(ctx, "events appended",
		logging.String("aggregate_id", aggregate.GetID()),
		logging.Int("count", len(events)),
		logging.Uint64("version", aggregate.GetVersion()))

	published := make([]eventing.IEvent, len(events))
	for i, e := range events {
		published[i] = e
	}
	if err := r.eventBus.PublishEvents(ctx, published); err != nil {
		return fmt.Errorf("events stored but publish failed: %w", err)
	}
	return nil
}
