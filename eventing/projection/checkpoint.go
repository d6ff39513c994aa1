package projection

import (
	"context"
	"errors"
	"time"
)

// Checkpoint 投影检查点（消费位点）
//
// 记录某个投影的某个分区最后一个投影更新已持久化成功的事件位置。
// 位点严格在投影更新成功之后推进，绝不提前——这保证了至少一次
// （而非至多一次）的应用语义。
type Checkpoint struct {
	// ProjectionName 投影名称
	ProjectionName string `json:"projection_name"`

	// Partition 分区编号（每个分区循环独立持有自己的位点）
	Partition int `json:"partition"`

	// Position 最后成功处理的事件版本位置
	Position int64 `json:"position"`

	// LastEventID 最后处理的事件ID（用于幂等检查与调试）
	LastEventID string `json:"last_event_id"`

	// LastEventTime 最后事件时间
	LastEventTime time.Time `json:"last_event_time"`

	// UpdatedAt 更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// ICheckpointStore 检查点存储接口
//
// 位点由消费组件自行持有与持久化，不依赖总线的自动提交。
// 实现应保证 Save 幂等（重复保存相同数据不会出错）。
type ICheckpointStore interface {
	// Load 加载检查点；不存在返回 ErrCheckpointNotFound
	Load(ctx context.Context, projectionName string, partition int) (*Checkpoint, error)

	// Save 保存检查点（UPSERT 语义）
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Delete 删除投影的所有检查点（重建投影前使用）
	Delete(ctx context.Context, projectionName string) error
}

// 检查点相关错误
var (
	// ErrCheckpointNotFound 检查点不存在
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrInvalidCheckpoint 无效的检查点数据
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")

	// ErrCheckpointStoreFailed 检查点存储失败
	ErrCheckpointStoreFailed = errors.New("checkpoint store failed")
)

// NewCheckpoint 创建新的检查点
func NewCheckpoint(projectionName string, partition int, position int64, lastEventID string, lastEventTime time.Time) *Checkpoint {
	return &Checkpoint{
		ProjectionName: projectionName,
		Partition:      partition,
		Position:       position,
		LastEventID:    lastEventID,
		LastEventTime:  lastEventTime,
		UpdatedAt:      time.Now(),
	}
}

// IsValid 验证检查点数据
func (c *Checkpoint) IsValid() bool {
	return c.ProjectionName != "" && c.Partition >= 0 && c.Position >= 0
}

// Clone 克隆检查点
func (c *Checkpoint) Clone() *Checkpoint {
	cp := *c
	return &cp
}
