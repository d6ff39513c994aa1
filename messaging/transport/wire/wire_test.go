package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggo/eventing"
	"bloggo/eventing/registry"
	"bloggo/messaging"
)

type wirePayload struct {
	Author string `json:"author"`
}

// TestWire_PlainMessage 测试普通消息的编解码
func TestWire_PlainMessage(t *testing.T) {
	msg := messaging.NewMessage("m-1", "test.event", "key-1", &wirePayload{Author: "alice"})

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "m-1", decoded.GetID())
	assert.Equal(t, "test.event", decoded.GetType())
	assert.Equal(t, "key-1", decoded.GetKey())
	// 普通消息不会变成事件
	_, isEvent := decoded.(eventing.IEvent)
	assert.False(t, isEvent)
}

// TestWire_EventRoundTrip 测试事件信封经传输后可重建并解析
func TestWire_EventRoundTrip(t *testing.T) {
	evt := eventing.NewEvent("agg-1", "post", "test.created", 7, &wirePayload{Author: "alice"})

	data, err := Encode(evt)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	// 聚合坐标完整保留
	rebuilt, ok := decoded.(*eventing.Event)
	require.True(t, ok)
	assert.Equal(t, "agg-1", rebuilt.AggregateID)
	assert.Equal(t, "post", rebuilt.AggregateType)
	assert.Equal(t, uint64(7), rebuilt.Version)
	assert.Equal(t, "agg-1", rebuilt.GetKey())

	// 载荷保持原始 JSON，由注册表解析为强类型
	_, isRaw := rebuilt.Payload.(json.RawMessage)
	assert.True(t, isRaw)

	reg := registry.NewRegistry()
	reg.MustRegister("test.created", func() any { return &wirePayload{} })
	require.NoError(t, reg.Resolve(rebuilt))

	payload, ok := rebuilt.Payload.(*wirePayload)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.Author)
}
