package projection

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggo/eventing"
	"bloggo/eventing/bus"
	"bloggo/eventing/monitoring"
	"bloggo/eventing/registry"
	"bloggo/messaging"
	"bloggo/messaging/transport/memory"
	"bloggo/patterns/retry"
)

type stubPayload struct {
	N int `json:"n"`
}

// stubProjection 可注入失败的测试投影
type stubProjection struct {
	name  string
	types []string

	mu       sync.Mutex
	handled  []string
	failures map[string]int // 事件ID → 剩余失败次数
	seen     chan string
}

func newStubProjection(types ...string) *stubProjection {
	return &stubProjection{
		name:     "stub",
		types:    types,
		failures: make(map[string]int),
		seen:     make(chan string, 128),
	}
}

func (p *stubProjection) GetName() string { return p.name }

func (p *stubProjection) HandledEventTypes() []string { return p.types }

func (p *stubProjection) Handle(ctx context.Context, evt eventing.IEvent) error {
	p.mu.Lock()
	if remaining := p.failures[evt.GetID()]; remaining > 0 {
		p.failures[evt.GetID()] = remaining - 1
		p.mu.Unlock()
		return fmt.Errorf("injected failure for %s", evt.GetID())
	}
	p.handled = append(p.handled, evt.GetID())
	p.mu.Unlock()
	p.seen <- evt.GetID()
	return nil
}

func (p *stubProjection) failTimes(eventID string, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[eventID] = times
}

func (p *stubProjection) handledIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.handled))
	copy(ids, p.handled)
	return ids
}

func (p *stubProjection) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.seen:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for event %d/%d", i+1, n)
		}
	}
}

type dispatcherFixture struct {
	eventBus    *bus.EventBus
	transport   *memory.MemoryTransport
	reg         *registry.Registry
	checkpoints *MemoryCheckpointStore
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	transport := memory.NewMemoryTransport(2, 64)
	require.NoError(t, transport.Start(context.Background()))
	t.Cleanup(func() { transport.Close() })

	reg := registry.NewRegistry()
	reg.MustRegister("stub.created", func() any { return &stubPayload{} })

	return &dispatcherFixture{
		eventBus:    bus.NewEventBus(messaging.NewMessageBus(transport)),
		transport:   transport,
		reg:         reg,
		checkpoints: NewMemoryCheckpointStore(),
	}
}

func (f *dispatcherFixture) newDispatcher(p IProjection, extra ...func(*DispatcherConfig)) *Dispatcher {
	cfg := DispatcherConfig{
		Partitions: 1,
		Registry:   f.reg,
		Retry:      retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 2.0, MaxDelay: 5 * time.Millisecond},
	}
	for _, fn := range extra {
		fn(&cfg)
	}
	return NewDispatcher(p, f.eventBus, f.checkpoints, cfg)
}

func stubEvent(aggregateID string, version uint64) *eventing.Event {
	return eventing.NewEvent(aggregateID, "stub", "stub.created", version, &stubPayload{N: int(version)})
}

// TestDispatcher_StartValidatesHandlerTable 测试启动时校验处理器表
func TestDispatcher_StartValidatesHandlerTable(t *testing.T) {
	f := newDispatcherFixture(t)

	// 未注册的事件类型在启动时暴露
	d := f.newDispatcher(newStubProjection("stub.created", "stub.unregistered"))
	require.Error(t, d.Start(context.Background()))
	assert.Equal(t, StateIdle, d.State())

	// 空类型列表同样拒绝
	d = f.newDispatcher(newStubProjection())
	require.Error(t, d.Start(context.Background()))
}

// TestDispatcher_CommitsAfterSuccess 测试位点在处理成功后推进
func TestDispatcher_CommitsAfterSuccess(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	p := newStubProjection("stub.created")

	d := f.newDispatcher(p)
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)
	assert.Equal(t, StateSubscribed, d.State())

	for v := uint64(1); v <= 3; v++ {
		require.NoError(t, f.eventBus.PublishEvent(ctx, stubEvent("agg-1", v)))
	}
	p.wait(t, 3)

	// 位点最终推进到 3
	require.Eventually(t, func() bool {
		cp, err := f.checkpoints.Load(ctx, "stub", 0)
		return err == nil && cp.Position == 3
	}, 2*time.Second, 10*time.Millisecond)
}

// TestDispatcher_RetriesTransientFailure 测试瞬时失败在重试内恢复
func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	p := newStubProjection("stub.created")

	evt := stubEvent("agg-1", 1)
	p.failTimes(evt.GetID(), 1) // 失败一次，第二次尝试成功

	d := f.newDispatcher(p)
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)

	require.NoError(t, f.eventBus.PublishEvent(ctx, evt))
	p.wait(t, 1)

	assert.Equal(t, []string{evt.GetID()}, p.handledIDs())
}

// TestDispatcher_DeadLettersAfterExhaustedRetries 测试重试耗尽进入死信
func TestDispatcher_DeadLettersAfterExhaustedRetries(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	p := newStubProjection("stub.created")

	evt := stubEvent("agg-1", 1)
	p.failTimes(evt.GetID(), 100) // 永远失败

	metrics := monitoring.NewMetrics()
	deadLettered := make(chan string, 1)
	d := f.newDispatcher(p, func(cfg *DispatcherConfig) {
		cfg.Metrics = metrics
		cfg.DeadLetter = func(err error, evt eventing.IEvent, projection string) {
			deadLettered <- evt.GetID()
		}
	})
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)

	require.NoError(t, f.eventBus.PublishEvent(ctx, evt))

	select {
	case id := <-deadLettered:
		assert.Equal(t, evt.GetID(), id)
	case <-time.After(3 * time.Second):
		t.Fatal("dead letter callback was not invoked")
	}

	// 失败的事件不推进位点
	_, err := f.checkpoints.Load(ctx, "stub", 0)
	require.ErrorIs(t, err, ErrCheckpointNotFound)

	// 死信计入指标，健康评估降级
	snapshot := metrics.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.DeadLetters)
	assert.Equal(t, int64(1), snapshot.ProcessingErrors)
	health := metrics.GetHealthStatus()
	assert.False(t, health["healthy"].(bool))
}

// TestDispatcher_FatalOnUnknownKind 测试未注册事件类型导致致命停止
func TestDispatcher_FatalOnUnknownKind(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	p := newStubProjection("stub.created")

	metrics := monitoring.NewMetrics()
	d := f.newDispatcher(p, func(cfg *DispatcherConfig) {
		cfg.Metrics = metrics
	})
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)

	// 绕过总线直接投递一个模式不一致的事件（模拟错误路由）
	rogue := eventing.NewEvent("agg-1", "stub", "stub.unregistered", 1, &stubPayload{})
	require.NoError(t, d.intake.HandleEvent(ctx, rogue))

	require.Eventually(t, func() bool {
		return d.State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)

	var unknown *eventing.UnknownEventKindError
	require.ErrorAs(t, d.FatalErr(), &unknown)
	assert.Equal(t, "stub.unregistered", unknown.Kind)

	// 致命停止计入指标，健康评估降级以触发告警
	assert.Equal(t, int64(1), metrics.GetSnapshot().FatalStops)
	health := metrics.GetHealthStatus()
	assert.False(t, health["healthy"].(bool))
	assert.Contains(t, health["issues"], "projection loop halted on schema mismatch")
}

// TestDispatcher_DuplicateDelivery 测试重复投递交给幂等处理器（至少一次语义）
func TestDispatcher_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	p := newStubProjection("stub.created")

	d := f.newDispatcher(p)
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)

	evt := stubEvent("agg-1", 1)
	require.NoError(t, f.eventBus.PublishEvent(ctx, evt))
	require.NoError(t, f.eventBus.PublishEvent(ctx, evt))
	p.wait(t, 2)

	// 投递了两次：去重是投影处理器的责任，不是派发器的
	assert.Len(t, p.handledIDs(), 2)
}

// TestDispatcher_StopWaitsForInflight 测试停止时等待进行中的处理完成
func TestDispatcher_StopWaitsForInflight(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	p := newStubProjection("stub.created")

	d := f.newDispatcher(p)
	require.NoError(t, d.Start(ctx))

	require.NoError(t, f.eventBus.PublishEvent(ctx, stubEvent("agg-1", 1)))
	p.wait(t, 1)

	require.NoError(t, d.Stop(ctx))
	assert.Equal(t, StateStopped, d.State())

	// 重复停止报错
	require.Error(t, d.Stop(ctx))
}
