package blog

import (
	"context"
	"sort"
	"sync"
)

// MemoryPostReadStore 内存读模型存储（用于测试与示例）
type MemoryPostReadStore struct {
	posts    map[string]*PostRecord
	comments map[string]map[string]*CommentRecord
	mutex    sync.RWMutex
}

// NewMemoryPostReadStore 创建内存读模型存储
func NewMemoryPostReadStore() *MemoryPostReadStore {
	return &MemoryPostReadStore{
		posts:    make(map[string]*PostRecord),
		comments: make(map[string]map[string]*CommentRecord),
	}
}

// GetPost 按ID查询帖子
func (s *MemoryPostReadStore) GetPost(ctx context.Context, postID string) (*PostRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.posts[postID]
	if !exists {
		return nil, ErrPostRecordNotFound
	}
	clone := *record
	return &clone, nil
}

// ListPosts 列出所有帖子（按创建时间升序）
func (s *MemoryPostReadStore) ListPosts(ctx context.Context) ([]*PostRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*PostRecord, 0, len(s.posts))
	for _, record := range s.posts {
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// SavePost 保存帖子记录（UPSERT）
func (s *MemoryPostReadStore) SavePost(ctx context.Context, record *PostRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clone := *record
	s.posts[record.ID] = &clone
	return nil
}

// GetComment 查询评论
func (s *MemoryPostReadStore) GetComment(ctx context.Context, postID, commentID string) (*CommentRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	comment, exists := s.comments[postID][commentID]
	if !exists {
		return nil, ErrCommentRecordNotFound
	}
	clone := *comment
	return &clone, nil
}

// ListComments 列出帖子的评论（按添加时间升序）
func (s *MemoryPostReadStore) ListComments(ctx context.Context, postID string) ([]*CommentRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*CommentRecord, 0, len(s.comments[postID]))
	for _, comment := range s.comments[postID] {
		clone := *comment
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// SaveComment 保存评论记录（UPSERT）
func (s *MemoryPostReadStore) SaveComment(ctx context.Context, record *CommentRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.comments[record.PostID] == nil {
		s.comments[record.PostID] = make(map[string]*CommentRecord)
	}
	clone := *record
	s.comments[record.PostID][record.ID] = &clone
	return nil
}

// DeleteComment 删除评论记录（幂等）
func (s *MemoryPostReadStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.comments[postID], commentID)
	return nil
}

// Ensure interface compliance.
var _ IPostReadStore = (*MemoryPostReadStore)(nil)
