package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggo/eventing"
)

func newTestEvent(aggregateID string, version uint64) *eventing.Event {
	return eventing.NewEvent(aggregateID, "post", "post.created", version, map[string]any{"n": version})
}

// TestMemoryEventStore_AppendAndLoad 测试追加与按序加载
func TestMemoryEventStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	events := []*eventing.Event{
		newTestEvent("agg-1", 1),
		newTestEvent("agg-1", 2),
		newTestEvent("agg-1", 3),
	}
	require.NoError(t, s.AppendEvents(ctx, "agg-1", events, 0))

	loaded, err := s.LoadEvents(ctx, "agg-1")
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, evt := range loaded {
		assert.Equal(t, uint64(i+1), evt.Version)
		assert.Equal(t, "agg-1", evt.AggregateID)
	}
}

// TestMemoryEventStore_LoadUnknownAggregate 测试加载不存在的聚合
func TestMemoryEventStore_LoadUnknownAggregate(t *testing.T) {
	s := NewMemoryEventStore()
	_, err := s.LoadEvents(context.Background(), "missing")
	require.ErrorIs(t, err, eventing.ErrAggregateNotFound)
}

// TestMemoryEventStore_ConcurrencyConflict 测试过期的期望版本被拒绝
func TestMemoryEventStore_ConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	require.NoError(t, s.AppendEvents(ctx, "agg-1", []*eventing.Event{newTestEvent("agg-1", 1)}, 0))

	// 基于旧版本的第二次追加必须失败
	err := s.AppendEvents(ctx, "agg-1", []*eventing.Event{newTestEvent("agg-1", 1)}, 0)
	var conflict *eventing.ConcurrencyError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "agg-1", conflict.AggregateID)
	assert.Equal(t, uint64(0), conflict.ExpectedVersion)
	assert.Equal(t, uint64(1), conflict.ActualVersion)

	// 流未被污染
	loaded, err := s.LoadEvents(ctx, "agg-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

// TestMemoryEventStore_AppendAtomicity 测试批量追加的原子性
func TestMemoryEventStore_AppendAtomicity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	// 第二个事件版本不连续，整批拒绝
	bad := []*eventing.Event{
		newTestEvent("agg-1", 1),
		newTestEvent("agg-1", 5),
	}
	require.Error(t, s.AppendEvents(ctx, "agg-1", bad, 0))

	_, err := s.LoadEvents(ctx, "agg-1")
	require.ErrorIs(t, err, eventing.ErrAggregateNotFound)
}

// TestMemoryEventStore_ListAggregateIDs 测试列出聚合ID
func TestMemoryEventStore_ListAggregateIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	require.NoError(t, s.AppendEvents(ctx, "b", []*eventing.Event{newTestEvent("b", 1)}, 0))
	require.NoError(t, s.AppendEvents(ctx, "a", []*eventing.Event{newTestEvent("a", 1)}, 0))

	ids, err := s.ListAggregateIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

// TestMemoryEventStore_ConcurrentAppendSameVersion 测试同一期望版本的并发追加恰有一个成功
func TestMemoryEventStore_ConcurrentAppendSameVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()
	require.NoError(t, s.AppendEvents(ctx, "agg-1", []*eventing.Event{newTestEvent("agg-1", 1)}, 0))

	const writers = 8
	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			evt := newTestEvent("agg-1", 2)
			evt.Metadata["writer"] = fmt.Sprintf("w%d", n)
			results[n] = s.AppendEvents(ctx, "agg-1", []*eventing.Event{evt}, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *eventing.ConcurrencyError
		require.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, succeeded)

	loaded, err := s.LoadEvents(ctx, "agg-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}
