package projection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLCheckpointStore SQL 检查点存储实现（SQLite）
//
// 使用 UPSERT 语义保证 Save 幂等，线程安全。
type SQLCheckpointStore struct {
	db        *sql.DB
	tableName string
}

// NewSQLCheckpointStore 创建 SQL 检查点存储
//
// tableName 为空时默认 "projection_checkpoints"。
func NewSQLCheckpointStore(db *sql.DB, tableName string) *SQLCheckpointStore {
	if tableName == "" {
		tableName = "projection_checkpoints"
	}
	return &SQLCheckpointStore{db: db, tableName: tableName}
}

// CreateTable 创建检查点表（幂等）
func (s *SQLCheckpointStore) CreateTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			projection_name TEXT NOT NULL,
			partition_id INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			last_event_id TEXT NOT NULL DEFAULT '',
			last_event_time DATETIME NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (projection_name, partition_id)
		);
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return nil
}

// Load 加载检查点
func (s *SQLCheckpointStore) Load(ctx context.Context, projectionName string, partition int) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT projection_name, partition_id, position, last_event_id, last_event_time, updated_at FROM %s WHERE projection_name = ? AND partition_id = ?`,
		s.tableName), projectionName, partition)

	var checkpoint Checkpoint
	var lastEventTime sql.NullTime
	err := row.Scan(
		&checkpoint.ProjectionName,
		&checkpoint.Partition,
		&checkpoint.Position,
		&checkpoint.LastEventID,
		&lastEventTime,
		&checkpoint.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrCheckpointStoreFailed, err)
	}
	if lastEventTime.Valid {
		checkpoint.LastEventTime = lastEventTime.Time
	}
	return &checkpoint, nil
}

// Save 保存检查点（UPSERT 语义）
func (s *SQLCheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	if checkpoint == nil || !checkpoint.IsValid() {
		return ErrInvalidCheckpoint
	}
	checkpoint.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (projection_name, partition_id, position, last_event_id, last_event_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (projection_name, partition_id) DO UPDATE SET
			position = excluded.position,
			last_event_id = excluded.last_event_id,
			last_event_time = excluded.last_event_time,
			updated_at = excluded.updated_at
	`, s.tableName),
		checkpoint.ProjectionName,
		checkpoint.Partition,
		checkpoint.Position,
		checkpoint.LastEventID,
		checkpoint.LastEventTime,
		checkpoint.UpdatedAt,
	)
	if err != nil {
		return errors.Join(ErrCheckpointStoreFailed, err)
	}
	return nil
}

// Delete 删除投影的所有检查点
func (s *SQLCheckpointStore) Delete(ctx context.Context, projectionName string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE projection_name = ?`, s.tableName), projectionName)
	if err != nil {
		return errors.Join(ErrCheckpointStoreFailed, err)
	}
	return nil
}

// Ensure SQLCheckpointStore implements ICheckpointStore
var _ ICheckpointStore = (*SQLCheckpointStore)(nil)
