// Package registry 提供事件类型注册表，用于事件的反序列化与派发校验
package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"bloggo/eventing"
)

// EventFactory 事件载荷工厂函数
type EventFactory func() any

// Registry 事件注册表
//
// 事件的 kind 判别符到强类型载荷的映射。消费端通过它把
// 序列化后的载荷还原为注册时的具体类型；未注册的 kind
// 视为模式不一致（致命错误）。
type Registry struct {
	factories map[string]EventFactory
	mutex     sync.RWMutex
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]EventFactory),
	}
}

// Register 注册事件类型
func (r *Registry) Register(kind string, factory EventFactory) error {
	if kind == "" {
		return fmt.Errorf("event kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("event factory cannot be nil for kind %s", kind)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("event kind already registered: %s", kind)
	}
	if factory() == nil {
		return fmt.Errorf("event factory returned nil for kind %s", kind)
	}

	r.factories[kind] = factory
	return nil
}

// MustRegister 注册事件类型（失败 panic）
func (r *Registry) MustRegister(kind string, factory EventFactory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// Has 检查事件类型是否已注册
func (r *Registry) Has(kind string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.factories[kind]
	return exists
}

// Kinds 获取所有已注册的事件类型（排序后返回，便于确定性遍历）
func (r *Registry) Kinds() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Deserialize 通过注册表反序列化事件载荷
//
// 未注册的 kind 返回 UnknownEventKindError（模式不一致，致命）。
func (r *Registry) Deserialize(kind string, data []byte) (any, error) {
	r.mutex.RLock()
	factory, exists := r.factories[kind]
	r.mutex.RUnlock()

	if !exists {
		return nil, eventing.NewUnknownEventKindError(kind)
	}

	instance := factory()
	if err := json.Unmarshal(data, instance); err != nil {
		return nil, fmt.Errorf("failed to deserialize event %s: %w", kind, err)
	}
	return instance, nil
}

// Resolve 将事件的载荷解析为注册时的强类型
//
// 事件经过存储或传输后，载荷可能是 json.RawMessage、[]byte 或
// map[string]any；本方法统一还原为工厂创建的具体类型。
// 载荷已经是强类型时原样保留。
func (r *Registry) Resolve(evt *eventing.Event) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}

	kind := evt.GetType()
	if !r.Has(kind) {
		return eventing.NewUnknownEventKindError(kind)
	}

	switch payload := evt.Payload.(type) {
	case nil:
		return nil
	case json.RawMessage:
		resolved, err := r.Deserialize(kind, payload)
		if err != nil {
			return err
		}
		evt.Payload = resolved
	case []byte:
		resolved, err := r.Deserialize(kind, payload)
		if err != nil {
			return err
		}
		evt.Payload = resolved
	case map[string]any:
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload map for %s: %w", kind, err)
		}
		resolved, err := r.Deserialize(kind, data)
		if err != nil {
			return err
		}
		evt.Payload = resolved
	default:
		// 已经是强类型载荷（同进程传递），无需转换
	}
	return nil
}

var globalRegistry = NewRegistry()

// Global 获取全局注册表
func Global() *Registry {
	return globalRegistry
}

// RegisterGlobal 注册到全局注册表
func RegisterGlobal(kind string, factory EventFactory) error {
	return globalRegistry.Register(kind, factory)
}

// MustRegisterGlobal 注册到全局注册表（失败 panic）
func MustRegisterGlobal(kind string, factory EventFactory) {
	globalRegistry.MustRegister(kind, factory)
}

// HasGlobal 检查全局注册表
func HasGlobal(kind string) bool {
	return globalRegistry.Has(kind)
}
