package eventsourced

import (
	"fmt"

	"bloggo/domain"
)

// LoadFromHistory 在全新实例上按序重放历史事件
//
// 重放是确定性的：同一段历史在任意时间、任意进程中重放
// 得到的聚合状态完全相同。重放不做业务校验、不产生新事件。
// 只接受零版本且无未提交事件的全新实例，防止把历史叠加到
// 已有状态之上。
func LoadFromHistory(aggregate IEventSourcedAggregate, history []domain.IDomainEvent) error {
	if aggregate.GetVersion() != 0 || len(aggregate.GetUncommittedEvents()) != 0 {
		return fmt.Errorf("aggregate %s is not a fresh instance (version=%d, uncommitted=%d)",
			aggregate.GetID(), aggregate.GetVersion(), len(aggregate.GetUncommittedEvents()))
	}
	for _, evt := range history {
		if err := aggregate.ApplyEvent(evt); err != nil {
			return fmt.Errorf("replay %s at version %d: %w", evt.EventType(), aggregate.GetVersion()+1, err)
		}
	}
	return nil
}
