// Package wire 定义外部传输（NATS JetStream、Redis Streams）共用的
// 序列化信封。
//
// 信封保留分区键，领域事件还保留聚合坐标，经纪人另一侧的消费者
// 据此重建完整的 *eventing.Event 并交给投影派发器。载荷以原始 JSON
// 传输，由消费侧的事件注册表解析为强类型。
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"bloggo/eventing"
	"bloggo/messaging"
)

// Envelope 消息的线格式（与具体经纪人无关）
type Envelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Key           string          `json:"key,omitempty"`
	Timestamp     int64           `json:"timestamp"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	AggregateID   string          `json:"aggregate_id,omitempty"`
	AggregateType string          `json:"aggregate_type,omitempty"`
	Version       uint64          `json:"version,omitempty"`
}

// FromMessage 从消息构造信封；领域事件会一并捕获聚合坐标
func FromMessage(msg messaging.IMessage) (*Envelope, error) {
	payload, err := json.Marshal(msg.GetPayload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload of message %s: %w", msg.GetID(), err)
	}
	ts := msg.GetTimestamp()
	if ts.IsZero() {
		ts = time.Now()
	}

	env := &Envelope{
		ID:        msg.GetID(),
		Type:      msg.GetType(),
		Key:       msg.GetKey(),
		Timestamp: ts.UnixNano(),
		Payload:   payload,
		Metadata:  msg.GetMetadata(),
	}
	if evt, ok := msg.(eventing.IEvent); ok {
		env.AggregateID = evt.GetAggregateID()
		env.AggregateType = evt.GetAggregateType()
		env.Version = evt.GetVersion()
	}
	return env, nil
}

// ToMessage 重建进程内消息
//
// 携带聚合坐标的信封还原为 *eventing.Event；载荷保持原始 JSON，
// 留给注册表解析。
func (e *Envelope) ToMessage() messaging.IMessage {
	metadata := e.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	base := messaging.Message{
		ID:        e.ID,
		Type:      e.Type,
		Key:       e.Key,
		Timestamp: time.Unix(0, e.Timestamp),
		Payload:   json.RawMessage(e.Payload),
		Metadata:  metadata,
	}
	if e.AggregateID == "" {
		return &base
	}
	return &eventing.Event{
		Message:       base,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Version:       e.Version,
	}
}

// Encode 把消息序列化为线格式
func Encode(msg messaging.IMessage) ([]byte, error) {
	env, err := FromMessage(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode 解析线格式消息
func Decode(data []byte) (messaging.IMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode wire envelope: %w", err)
	}
	return env.ToMessage(), nil
}
