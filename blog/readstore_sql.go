package blog

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLPostReadStore SQL 读模型存储（SQLite）
//
// 帖子与评论各一张表，写入全部走 UPSERT，重复应用同一事件
// 不会产生多余行。
type SQLPostReadStore struct {
	db *sql.DB
}

// NewSQLPostReadStore 创建 SQL 读模型存储
func NewSQLPostReadStore(db *sql.DB) *SQLPostReadStore {
	return &SQLPostReadStore{db: db}
}

// CreateTables 创建读模型表（幂等）
func (s *SQLPostReadStore) CreateTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			author TEXT NOT NULL,
			message TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			likes INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS post_comments (
			id TEXT NOT NULL,
			post_id TEXT NOT NULL,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (post_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_post_comments_post_id ON post_comments (post_id);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create read model tables: %w", err)
		}
	}
	return nil
}

// GetPost 按ID查询帖子
func (s *SQLPostReadStore) GetPost(ctx context.Context, postID string) (*PostRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, author, message, active, likes, version, created_at, updated_at
		 FROM posts WHERE id = ?`, postID)

	var record PostRecord
	err := row.Scan(
		&record.ID,
		&record.Author,
		&record.Message,
		&record.Active,
		&record.Likes,
		&record.Version,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPostRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post %s: %w", postID, err)
	}
	return &record, nil
}

// ListPosts 列出所有帖子（按创建时间升序）
func (s *SQLPostReadStore) ListPosts(ctx context.Context) ([]*PostRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, author, message, active, likes, version, created_at, updated_at
		 FROM posts ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var records []*PostRecord
	for rows.Next() {
		var record PostRecord
		if err := rows.Scan(
			&record.ID,
			&record.Author,
			&record.Message,
			&record.Active,
			&record.Likes,
			&record.Version,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// SavePost 保存帖子记录（UPSERT）
func (s *SQLPostReadStore) SavePost(ctx context.Context, record *PostRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author, message, active, likes, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			author = excluded.author,
			message = excluded.message,
			active = excluded.active,
			likes = excluded.likes,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		record.ID,
		record.Author,
		record.Message,
		record.Active,
		record.Likes,
		record.Version,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save post %s: %w", record.ID, err)
	}
	return nil
}

// GetComment 查询评论
func (s *SQLPostReadStore) GetComment(ctx context.Context, postID, commentID string) (*CommentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, post_id, author, text, created_at, updated_at
		 FROM post_comments WHERE post_id = ? AND id = ?`, postID, commentID)

	var record CommentRecord
	err := row.Scan(
		&record.ID,
		&record.PostID,
		&record.Author,
		&record.Text,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCommentRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comment %s: %w", commentID, err)
	}
	return &record, nil
}

// ListComments 列出帖子的评论（按添加时间升序）
func (s *SQLPostReadStore) ListComments(ctx context.Context, postID string) ([]*CommentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, author, text, created_at, updated_at
		 FROM post_comments WHERE post_id = ? ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for post %s: %w", postID, err)
	}
	defer rows.Close()

	var records []*CommentRecord
	for rows.Next() {
		var record CommentRecord
		if err := rows.Scan(
			&record.ID,
			&record.PostID,
			&record.Author,
			&record.Text,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// SaveComment 保存评论记录（UPSERT，CreatedAt 保留首次值）
func (s *SQLPostReadStore) SaveComment(ctx context.Context, record *CommentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_comments (id, post_id, author, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (post_id, id) DO UPDATE SET
			author = excluded.author,
			text = excluded.text,
			updated_at = excluded.updated_at`,
		record.ID,
		record.PostID,
		record.Author,
		record.Text,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save comment %s: %w", record.ID, err)
	}
	return nil
}

// DeleteComment 删除评论记录（幂等）
func (s *SQLPostReadStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM post_comments WHERE post_id = ? AND id = ?`, postID, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", commentID, err)
	}
	return nil
}

// Ensure interface compliance.
var _ IPostReadStore = (*SQLPostReadStore)(nil)
