package blog

import (
	"context"
	"errors"

	"bloggo/domain/eventsourced"
	"bloggo/eventing"
	"bloggo/eventing/bus"
	"bloggo/eventing/registry"
	"bloggo/eventing/store"
	"bloggo/logging"
)

// defaultConflictRetries 并发冲突时的重载重试次数上限
const defaultConflictRetries = 3

// Service 帖子命令服务
//
// 命令入口：加载聚合 → 执行业务方法 → 持久化并发布。
// 乐观并发冲突时重新加载最新状态再执行一次命令（业务校验
// 基于新状态重跑），超出重试上限后把冲突原样返回给调用方。
type Service struct {
	repo       *eventsourced.Repository[*Post]
	maxRetries int
	logger     logging.Logger
}

// NewService 创建帖子命令服务
//
// reg 为 nil 时使用全局事件注册表。
func NewService(eventStore store.IEventStore, eventBus bus.IEventBus, reg *registry.Registry) *Service {
	return &Service{
		repo:       eventsourced.NewRepository(AggregateType, NewPost, eventStore, eventBus, reg),
		maxRetries: defaultConflictRetries,
		logger:     logging.GetLogger().WithFields(logging.String("component", "blog.service")),
	}
}

// CreatePost 创建帖子，返回新帖子ID
func (s *Service) CreatePost(ctx context.Context, author, message string) (string, error) {
	post, err := CreatePost("", author, message)
	if err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, post); err != nil {
		return "", err
	}
	return post.GetID(), nil
}

// EditMessage 修改帖子正文
func (s *Service) EditMessage(ctx context.Context, postID, message string) error {
	return s.mutate(ctx, postID, func(post *Post) error {
		return post.EditMessage(message)
	})
}

// LikePost 点赞
func (s *Service) LikePost(ctx context.Context, postID string) error {
	return s.mutate(ctx, postID, func(post *Post) error {
		return post.Like()
	})
}

// AddComment 添加评论，返回新评论ID
func (s *Service) AddComment(ctx context.Context, postID, author, text string) (string, error) {
	var commentID string
	err := s.mutate(ctx, postID, func(post *Post) error {
		id, err := post.AddComment(author, text)
		if err != nil {
			return err
		}
		commentID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return commentID, nil
}

// EditComment 修改评论
func (s *Service) EditComment(ctx context.Context, postID, commentID, author, text string) error {
	return s.mutate(ctx, postID, func(post *Post) error {
		return post.EditComment(commentID, author, text)
	})
}

// RemoveComment 删除评论
func (s *Service) RemoveComment(ctx context.Context, postID, commentID, author string) error {
	return s.mutate(ctx, postID, func(post *Post) error {
		return post.RemoveComment(commentID, author)
	})
}

// DeletePost 删除帖子（软删除）
func (s *Service) DeletePost(ctx context.Context, postID, author string) error {
	return s.mutate(ctx, postID, func(post *Post) error {
		return post.Delete(author)
	})
}

// GetPost 从事件流重放帖子当前状态
//
// 命令侧的权威读取；最终一致的查询走读模型。
func (s *Service) GetPost(ctx context.Context, postID string) (*Post, error) {
	return s.repo.GetByID(ctx, postID)
}

// mutate 加载-执行-保存，并发冲突时重载重试
func (s *Service) mutate(ctx context.Context, postID string, op func(*Post) error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		post, err := s.repo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if err := op(post); err != nil {
			return err
		}
		err = s.repo.Save(ctx, post)
		if err == nil {
			return nil
		}

		var conflict *eventing.ConcurrencyError
		if !errors.As(err, &conflict) {
			return err
		}
		// 冲突说明有人先写入了：基于最新状态重跑业务校验
		lastErr = err
		s.logger.Debug(ctx, "concurrency conflict, reloading",
			logging.String("post_id", postID),
			logging.Int("attempt", attempt+1))
	}
	return lastErr
}
