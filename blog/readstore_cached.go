package blog

import (
	"context"
	"time"

	"bloggo/cache"
)

// CachedPostReadStore 给读模型查询加一层内存缓存
//
// 只缓存按ID的单条查询；列表查询直接穿透到底层存储。写路径
// 先落底层存储再失效缓存，投影推进后的下一次查询会重新填充。
// 缓存值是记录副本，调用方修改返回值不会污染缓存。
type CachedPostReadStore struct {
	inner    IPostReadStore
	posts    *cache.Cache[string, PostRecord]
	comments *cache.Cache[string, CommentRecord]
}

// CacheConfig 读模型缓存配置
type CacheConfig struct {
	// MaxPosts 帖子缓存容量，0 使用默认值 1024
	MaxPosts int

	// MaxComments 评论缓存容量，0 使用默认值 4096
	MaxComments int

	// TTL 条目过期时间，0 使用默认值 5 分钟
	TTL time.Duration
}

// NewCachedPostReadStore 包装底层读模型存储
func NewCachedPostReadStore(inner IPostReadStore, cfg CacheConfig) *CachedPostReadStore {
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = 1024
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = 4096
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &CachedPostReadStore{
		inner: inner,
		posts: cache.New[string, PostRecord](cache.Config{
			Name:    "post_record",
			MaxSize: cfg.MaxPosts,
			TTL:     cfg.TTL,
		}),
		comments: cache.New[string, CommentRecord](cache.Config{
			Name:    "comment_record",
			MaxSize: cfg.MaxComments,
			TTL:     cfg.TTL,
		}),
	}
}

// GetPost 优先读缓存，未命中时回源并填充
func (s *CachedPostReadStore) GetPost(ctx context.Context, postID string) (*PostRecord, error) {
	if record, found := s.posts.Get(postID); found {
		return &record, nil
	}
	record, err := s.inner.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.posts.Set(postID, *record)
	return record, nil
}

// ListPosts 列表查询不走缓存
func (s *CachedPostReadStore) ListPosts(ctx context.Context) ([]*PostRecord, error) {
	return s.inner.ListPosts(ctx)
}

// SavePost 写入底层存储后失效缓存条目
func (s *CachedPostReadStore) SavePost(ctx context.Context, record *PostRecord) error {
	if err := s.inner.SavePost(ctx, record); err != nil {
		return err
	}
	s.posts.Delete(record.ID)
	return nil
}

// GetComment 优先读缓存，未命中时回源并填充
func (s *CachedPostReadStore) GetComment(ctx context.Context, postID, commentID string) (*CommentRecord, error) {
	key := commentKey(postID, commentID)
	if record, found := s.comments.Get(key); found {
		return &record, nil
	}
	record, err := s.inner.GetComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	s.comments.Set(key, *record)
	return record, nil
}

// ListComments 列表查询不走缓存
func (s *CachedPostReadStore) ListComments(ctx context.Context, postID string) ([]*CommentRecord, error) {
	return s.inner.ListComments(ctx, postID)
}

// SaveComment 写入底层存储后失效缓存条目
func (s *CachedPostReadStore) SaveComment(ctx context.Context, record *CommentRecord) error {
	if err := s.inner.SaveComment(ctx, record); err != nil {
		return err
	}
	s.comments.Delete(commentKey(record.PostID, record.ID))
	return nil
}

// DeleteComment 删除底层记录后失效缓存条目
func (s *CachedPostReadStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := s.inner.DeleteComment(ctx, postID, commentID); err != nil {
		return err
	}
	s.comments.Delete(commentKey(postID, commentID))
	return nil
}

// Stats 返回两个缓存的命中统计
func (s *CachedPostReadStore) Stats() (posts, comments cache.CacheStats) {
	return s.posts.Stats(), s.comments.Stats()
}

func commentKey(postID, commentID string) string {
	return postID + "/" + commentID
}

// Ensure interface compliance.
var _ IPostReadStore = (*CachedPostReadStore)(nil)
