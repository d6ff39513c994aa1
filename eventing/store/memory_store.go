package store

import (
	"context"
	"sort"
	"sync"

	"bloggo/eventing"
)

// MemoryEventStore 内存事件存储实现
//
// 以聚合ID为键维护有序事件流，流长度即当前版本。
// 适用于测试与单机示例；持久化场景请使用 sql.SQLEventStore。
type MemoryEventStore struct {
	mu      sync.RWMutex
	streams map[string][]eventing.Event // aggregateID -> ordered events
}

// NewMemoryEventStore 创建内存事件存储
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		streams: make(map[string][]eventing.Event),
	}
}

// AppendEvents 原子追加事件（乐观锁）
//
// 流当前长度 != expectedVersion 时返回 ConcurrencyError，
// 任何校验失败都不产生部分写入。
func (m *MemoryEventStore) AppendEvents(ctx context.Context, aggregateID string, events []*eventing.Event, expectedVersion uint64) error {
	if len(events) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.streams[aggregateID]
	currentVersion := uint64(len(stream))
	if currentVersion != expectedVersion {
		return eventing.NewConcurrencyError(aggregateID, expectedVersion, currentVersion)
	}

	if err := validateAppend(aggregateID, events, expectedVersion); err != nil {
		return err
	}

	for _, evt := range events {
		m.streams[aggregateID] = append(m.streams[aggregateID], *evt)
	}
	return nil
}

// LoadEvents 加载聚合的完整事件流
func (m *MemoryEventStore) LoadEvents(ctx context.Context, aggregateID string) ([]eventing.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stream, ok := m.streams[aggregateID]
	if !ok || len(stream) == 0 {
		return nil, eventing.ErrAggregateNotFound
	}

	// 返回副本，避免调用方持有内部切片
	res := make([]eventing.Event, len(stream))
	copy(res, stream)
	return res, nil
}

// ListAggregateIDs 枚举所有已知聚合（排序后返回）
func (m *MemoryEventStore) ListAggregateIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.streams))
	for id := range m.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Version 返回聚合当前版本（测试辅助；不存在返回 0）
func (m *MemoryEventStore) Version(aggregateID string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.streams[aggregateID]))
}

// Ensure interface compliance.
var _ IEventStore = (*MemoryEventStore)(nil)
