package projection

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCheckpointStore 内存检查点存储（用于测试）
//
// 不持久化，进程重启后数据丢失。
type MemoryCheckpointStore struct {
	checkpoints map[string]*Checkpoint
	mutex       sync.RWMutex
}

// NewMemoryCheckpointStore 创建内存检查点存储
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*Checkpoint),
	}
}

func checkpointKey(projectionName string, partition int) string {
	return fmt.Sprintf("%s/%d", projectionName, partition)
}

// Load 加载检查点
func (s *MemoryCheckpointStore) Load(ctx context.Context, projectionName string, partition int) (*Checkpoint, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	checkpoint, exists := s.checkpoints[checkpointKey(projectionName, partition)]
	if !exists {
		return nil, ErrCheckpointNotFound
	}
	return checkpoint.Clone(), nil
}

// Save 保存检查点
func (s *MemoryCheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	if checkpoint == nil || !checkpoint.IsValid() {
		return ErrInvalidCheckpoint
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.checkpoints[checkpointKey(checkpoint.ProjectionName, checkpoint.Partition)] = checkpoint.Clone()
	return nil
}

// Delete 删除投影的所有检查点
func (s *MemoryCheckpointStore) Delete(ctx context.Context, projectionName string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key, cp := range s.checkpoints {
		if cp.ProjectionName == projectionName {
			delete(s.checkpoints, key)
		}
	}
	return nil
}

// Count 返回检查点数量（测试用）
func (s *MemoryCheckpointStore) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.checkpoints)
}

// Ensure MemoryCheckpointStore implements ICheckpointStore
var _ ICheckpointStore = (*MemoryCheckpointStore)(nil)
