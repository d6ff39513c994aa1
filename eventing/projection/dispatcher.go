package projection

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"bloggo/eventing"
	"bloggo/eventing/bus"
	"bloggo/eventing/monitoring"
	"bloggo/eventing/registry"
	"bloggo/logging"
	"bloggo/messaging"
	"bloggo/patterns/retry"
)

// 派发器状态
const (
	StateIdle       = "idle"
	StateSubscribed = "subscribed"
	StateStopped    = "stopped"
	StateFailed     = "failed"
)

// DeadLetterFunc 死信处理函数（重试预算耗尽后调用）
//
// 事件在这里被"浮出"给人工重放，绝不会被静默跳过。
type DeadLetterFunc func(err error, evt eventing.IEvent, projection string)

// DispatcherConfig 派发器配置
type DispatcherConfig struct {
	// Partitions 分区循环数量（<=0 时默认 1）
	// 分区键为聚合ID，同一聚合的事件永远落在同一个顺序循环里。
	Partitions int

	// QueueSize 单分区队列大小（<=0 时默认 256）
	QueueSize int

	// Retry 瞬时故障的重试策略
	Retry retry.Config

	// DeadLetter 重试耗尽后的死信回调（nil 时仅记录错误日志）
	DeadLetter DeadLetterFunc

	// Registry 事件注册表（nil 时使用全局注册表）
	Registry *registry.Registry

	// Logger 日志（nil 时使用全局 Logger）
	Logger logging.Logger

	// Metrics 指标收集器（nil 时使用全局收集器）
	// 致命停止与死信会反映到健康评估里，供外部告警。
	Metrics *monitoring.Metrics
}

// Dispatcher 投影派发器（消费循环）
//
// 状态机：Idle → Subscribed → {Fetch → Deserialize → Dispatch → Commit}*
// → Stopped（正常关闭）/ Failed（致命模式错误）。
//
// 约定：
//   - 每个分区由一个顺序循环消费，同一聚合的处理互不重叠；
//   - 位点（检查点）严格在投影更新成功之后提交；
//   - 取消只在两次 Fetch 之间生效，绝不打断进行中的 Dispatch；
//   - 未注册的事件类型属于模式不一致，停止循环并告警。
type Dispatcher struct {
	projection  IProjection
	eventBus    bus.IEventBus
	checkpoints ICheckpointStore
	cfg         DispatcherConfig
	logger      logging.Logger
	reg         *registry.Registry
	metrics     *monitoring.Metrics

	handled   map[string]struct{}
	queues    []chan *eventing.Event
	positions []int64
	intake    *intakeHandler

	state    string
	fatalErr error
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewDispatcher 创建投影派发器
func NewDispatcher(projection IProjection, eventBus bus.IEventBus, checkpoints ICheckpointStore, cfg DispatcherConfig) *Dispatcher {
	if cfg.Partitions <= 0 {
		cfg.Partitions = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.Global()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitoring.GlobalMetrics()
	}
	logger = logger.WithFields(
		logging.String("component", "projection.dispatcher"),
		logging.String("projection", projection.GetName()),
	)

	return &Dispatcher{
		projection:  projection,
		eventBus:    eventBus,
		checkpoints: checkpoints,
		cfg:         cfg,
		logger:      logger,
		reg:         reg,
		metrics:     metrics,
		handled:     make(map[string]struct{}),
		state:       StateIdle,
	}
}

// Start 启动派发器
//
// 启动时校验处理器表的完整性：投影声明的每个事件类型都必须
// 已在注册表中注册——配置错误在这里暴露，而不是在消息流中途。
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		return fmt.Errorf("dispatcher %s already started (state=%s)", d.projection.GetName(), d.state)
	}

	types := d.projection.HandledEventTypes()
	if len(types) == 0 {
		return fmt.Errorf("projection %s declares no event types", d.projection.GetName())
	}
	for _, t := range types {
		if !d.reg.Has(t) {
			return fmt.Errorf("projection %s handles unregistered event kind %s", d.projection.GetName(), t)
		}
		d.handled[t] = struct{}{}
	}

	// 恢复每个分区的位点
	d.queues = make([]chan *eventing.Event, d.cfg.Partitions)
	d.positions = make([]int64, d.cfg.Partitions)
	for i := 0; i < d.cfg.Partitions; i++ {
		d.queues[i] = make(chan *eventing.Event, d.cfg.QueueSize)
		cp, err := d.checkpoints.Load(ctx, d.projection.GetName(), i)
		if err != nil {
			if err != ErrCheckpointNotFound {
				return fmt.Errorf("load checkpoint failed: %w", err)
			}
			continue
		}
		d.positions[i] = cp.Position
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.intake = &intakeHandler{dispatcher: d, ctx: loopCtx, types: types}
	if err := d.eventBus.SubscribeHandler(loopCtx, d.intake); err != nil {
		cancel()
		return fmt.Errorf("subscribe projection %s failed: %w", d.projection.GetName(), err)
	}

	for i := 0; i < d.cfg.Partitions; i++ {
		d.wg.Add(1)
		go d.runPartition(loopCtx, i, d.queues[i])
	}

	d.state = StateSubscribed
	d.logger.Info(ctx, "dispatcher started",
		logging.Int("partitions", d.cfg.Partitions),
		logging.Int("event_types", len(types)))
	return nil
}

// Stop 停止派发器
//
// 等待所有分区循环在下一次 Fetch 处退出；进行中的 Dispatch
// 与 Commit 会先完成。
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateSubscribed && d.state != StateFailed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher %s is not running", d.projection.GetName())
	}
	cancel := d.cancel
	intake := d.intake
	d.mu.Unlock()

	if intake != nil {
		_ = d.eventBus.UnsubscribeHandler(ctx, intake)
	}
	cancel()
	d.wg.Wait()

	d.mu.Lock()
	if d.state != StateFailed {
		d.state = StateStopped
	}
	d.mu.Unlock()

	d.logger.Info(ctx, "dispatcher stopped")
	return nil
}

// State 返回派发器当前状态
func (d *Dispatcher) State() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// FatalErr 返回导致循环停止的致命错误（无则为 nil）
func (d *Dispatcher) FatalErr() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fatalErr
}

// partitionFor 计算事件所属分区（按聚合ID哈希）
func (d *Dispatcher) partitionFor(evt eventing.IEvent) int {
	h := fnv.New32a()
	h.Write([]byte(evt.GetAggregateID()))
	return int(h.Sum32()) % d.cfg.Partitions
}

// runPartition 单分区顺序消费循环
func (d *Dispatcher) runPartition(ctx context.Context, partition int, queue chan *eventing.Event) {
	defer d.wg.Done()

	position := d.positions[partition]

	for {
		// Fetch：挂起直到下一个事件可用；取消只在这里生效
		var evt *eventing.Event
		select {
		case <-ctx.Done():
			return
		case e, ok := <-queue:
			if !ok {
				return
			}
			evt = e
		}

		// Deserialize：通过注册表解析 kind 判别符。
		// 无法解析意味着存储/消费两侧模式不一致，必须停止循环
		// 而不是丢弃事件。
		if err := d.reg.Resolve(evt); err != nil {
			d.fail(ctx, evt, err)
			return
		}
		if _, ok := d.handled[evt.GetType()]; !ok {
			d.fail(ctx, evt, fmt.Errorf("no handler bound for event kind %s", evt.GetType()))
			return
		}

		// Dispatch + Commit 期间不可取消：要么"更新已应用且位点已提交"，
		// 要么"都没发生然后重新处理"——绝不能提交了位点却丢了更新。
		dispatchCtx := context.WithoutCancel(ctx)

		started := time.Now()
		err := retry.Do(dispatchCtx, func(ctx context.Context) error {
			return d.projection.Handle(ctx, evt)
		}, d.cfg.Retry)
		d.metrics.RecordEventProcessed(time.Since(started), err == nil)
		d.metrics.RecordProjectionLag(time.Since(evt.GetTimestamp()))
		if err != nil {
			// 重试预算耗尽：浮出给人工重放，位点停在该事件之前
			d.metrics.RecordDeadLetter()
			d.logger.Error(dispatchCtx, "projection handler exhausted retries",
				logging.String("event_id", evt.GetID()),
				logging.String("event_type", evt.GetType()),
				logging.Error(err))
			if d.cfg.DeadLetter != nil {
				d.cfg.DeadLetter(err, evt, d.projection.GetName())
			}
			continue
		}

		// Commit：投影更新持久化成功之后才推进位点
		position++
		cp := NewCheckpoint(d.projection.GetName(), partition, position, evt.GetID(), evt.GetTimestamp())
		err = d.checkpoints.Save(dispatchCtx, cp)
		d.metrics.RecordCheckpointSave(err == nil)
		if err != nil {
			// 位点落后只会导致重复投递（处理器幂等），不丢更新
			d.logger.Warn(dispatchCtx, "save checkpoint failed",
				logging.Int("partition", partition),
				logging.Error(err))
		}
	}
}

// fail 记录致命模式错误并停止所有分区循环
//
// 致命停止计入指标：健康评估据此降级，由外部监控告警。
func (d *Dispatcher) fail(ctx context.Context, evt eventing.IEvent, err error) {
	d.mu.Lock()
	d.state = StateFailed
	if d.fatalErr == nil {
		d.fatalErr = err
	}
	cancel := d.cancel
	d.mu.Unlock()

	d.metrics.RecordFatalStop()
	d.logger.Error(ctx, "fatal schema mismatch, stopping dispatcher",
		logging.String("event_id", evt.GetID()),
		logging.String("event_type", evt.GetType()),
		logging.Error(err))
	cancel()
}

// intakeHandler 把总线上的事件搬运到派发器自己的分区队列
//
// 入队满时阻塞（背压到传输层的分区 worker），保证不丢事件。
type intakeHandler struct {
	dispatcher *Dispatcher
	ctx        context.Context
	types      []string
}

func (h *intakeHandler) Name() string {
	return "projection.dispatcher/" + h.dispatcher.projection.GetName()
}

func (h *intakeHandler) HandledEventTypes() []string { return h.types }

func (h *intakeHandler) Handle(ctx context.Context, message messaging.IMessage) error {
	evt, ok := message.(eventing.IEvent)
	if !ok {
		return fmt.Errorf("message %s is not an event", message.GetID())
	}
	return h.HandleEvent(ctx, evt)
}

func (h *intakeHandler) HandleEvent(ctx context.Context, evt eventing.IEvent) error {
	concrete, ok := evt.(*eventing.Event)
	if !ok {
		return fmt.Errorf("unexpected event implementation: %T", evt)
	}
	queue := h.dispatcher.queues[h.dispatcher.partitionFor(concrete)]
	select {
	case queue <- concrete:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// Ensure interface compliance.
var _ bus.IEventHandler = (*intakeHandler)(nil)
