// Package sqlite 提供 SQLite 连接管理（纯 Go 驱动，无 CGO 依赖）
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Options SQLite 连接选项
type Options struct {
	// DSN 数据源，如 "file:blog.db" 或 "file::memory:?cache=shared"
	DSN string

	// MaxOpenConns 最大连接数（SQLite 写入串行，默认 1 避免锁竞争）
	MaxOpenConns int

	// BusyTimeout 锁等待超时
	BusyTimeout time.Duration
}

// DefaultOptions 返回默认连接选项
func DefaultOptions(dsn string) Options {
	return Options{
		DSN:          dsn,
		MaxOpenConns: 1,
		BusyTimeout:  5 * time.Second,
	}
}

// Open 打开 SQLite 数据库并应用运行参数
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("sqlite dsn cannot be empty")
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 1
	}

	db, err := sql.Open("sqlite", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", opts.BusyTimeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// OpenMemory 打开独立命名的内存数据库（测试用）
//
// 每次调用得到互相隔离的数据库；连接池保持打开期间数据有效。
func OpenMemory(ctx context.Context) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return Open(ctx, DefaultOptions(dsn))
}
