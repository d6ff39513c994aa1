// Package sql 提供基于 database/sql 的事件存储实现（SQLite）
package sql

import (
	"context"
	"database/sql"
	"fmt"

	"bloggo/eventing/store"
)

// SQLEventStore 基于 database/sql 的事件存储
//
// 表结构以 (aggregate_id, version) 作为唯一键，流长度（行数）即
// 聚合当前版本。写入在单个事务内完成版本检查与插入，SQLite 的
// 单写者语义保证检查与插入之间不会穿插其他写入。
type SQLEventStore struct {
	db        *sql.DB
	tableName string
}

// NewSQLEventStore 创建 SQL 事件存储
func NewSQLEventStore(db *sql.DB, tableName string) *SQLEventStore {
	if tableName == "" {
		tableName = "event_store"
	}
	return &SQLEventStore{db: db, tableName: tableName}
}

// Init 建表并校验连接（幂等）
func (s *SQLEventStore) Init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			aggregate_id TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			type TEXT NOT NULL,
			version INTEGER NOT NULL,
			timestamp DATETIME NOT NULL,
			payload TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			UNIQUE (aggregate_id, version)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_aggregate_id ON %s(aggregate_id);
	`, s.tableName, s.tableName, s.tableName)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// GetTableName 返回事件表名
func (s *SQLEventStore) GetTableName() string { return s.tableName }

// Ensure interface compliance.
var _ store.IEventStore = (*SQLEventStore)(nil)
