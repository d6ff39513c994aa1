package blog

import (
	"context"
	"errors"

	"bloggo/eventing"
	"bloggo/eventing/projection"
	"bloggo/logging"
)

// ProjectionName 帖子读模型投影名称
const ProjectionName = "post_summary"

// PostProjection 帖子读模型投影
//
// 把帖子事件流折叠为 PostRecord / CommentRecord 非规范化视图。
// 处理器幂等：以记录的 Version 作守卫，重复投递（至少一次语义）
// 不会重复累加点赞或重复追加评论。
type PostProjection struct {
	store  IPostReadStore
	logger logging.Logger
}

// NewPostProjection 创建帖子投影
func NewPostProjection(store IPostReadStore) *PostProjection {
	return &PostProjection{
		store:  store,
		logger: logging.GetLogger().WithFields(logging.String("component", "blog.projection")),
	}
}

// GetName 投影名称
func (p *PostProjection) GetName() string { return ProjectionName }

// HandledEventTypes 该投影处理的事件类型全集
func (p *PostProjection) HandledEventTypes() []string {
	return []string{
		EventPostCreated,
		EventMessageEdited,
		EventPostLiked,
		EventCommentAdded,
		EventCommentEdited,
		EventCommentRemoved,
		EventPostDeleted,
	}
}

// Handle 处理单个事件并更新读模型
func (p *PostProjection) Handle(ctx context.Context, evt eventing.IEvent) error {
	if created, ok := payloadOf(evt).(*PostCreated); ok {
		return p.applyCreated(ctx, evt, created)
	}

	record, err := p.store.GetPost(ctx, evt.GetAggregateID())
	if err != nil {
		// 记录缺失时返回错误交给重试；同一聚合的事件保序投递，
		// 创建事件总在其余事件之前到达
		return err
	}
	if evt.GetVersion() <= record.Version {
		// 重复投递，读模型已折叠过该事件
		p.logger.Debug(ctx, "duplicate event skipped",
			logging.String("event_id", evt.GetID()),
			logging.Uint64("version", evt.GetVersion()))
		return nil
	}

	switch payload := payloadOf(evt).(type) {
	case *MessageEdited:
		record.Message = payload.Message
	case *PostLiked:
		record.Likes++
	case *CommentAdded:
		if err := p.store.SaveComment(ctx, &CommentRecord{
			ID:        payload.CommentID,
			PostID:    evt.GetAggregateID(),
			Author:    payload.Author,
			Text:      payload.Text,
			CreatedAt: evt.GetTimestamp(),
			UpdatedAt: evt.GetTimestamp(),
		}); err != nil {
			return err
		}
	case *CommentEdited:
		comment, err := p.store.GetComment(ctx, evt.GetAggregateID(), payload.CommentID)
		if err != nil {
			return err
		}
		comment.Author = payload.Author
		comment.Text = payload.Text
		comment.UpdatedAt = evt.GetTimestamp()
		if err := p.store.SaveComment(ctx, comment); err != nil {
			return err
		}
	case *CommentRemoved:
		if err := p.store.DeleteComment(ctx, evt.GetAggregateID(), payload.CommentID); err != nil {
			return err
		}
	case *PostDeleted:
		record.Active = false
	default:
		return eventing.NewUnknownEventKindError(evt.GetType())
	}

	record.Version = evt.GetVersion()
	record.UpdatedAt = evt.GetTimestamp()
	return p.store.SavePost(ctx, record)
}

// applyCreated 创建帖子记录（按版本守卫幂等）
func (p *PostProjection) applyCreated(ctx context.Context, evt eventing.IEvent, created *PostCreated) error {
	existing, err := p.store.GetPost(ctx, evt.GetAggregateID())
	if err == nil && evt.GetVersion() <= existing.Version {
		return nil
	}
	if err != nil && !errors.Is(err, ErrPostRecordNotFound) {
		return err
	}

	return p.store.SavePost(ctx, &PostRecord{
		ID:        evt.GetAggregateID(),
		Author:    created.Author,
		Message:   created.Message,
		Active:    true,
		Version:   evt.GetVersion(),
		CreatedAt: evt.GetTimestamp(),
		UpdatedAt: evt.GetTimestamp(),
	})
}

// payloadOf 取出事件载荷（派发器已通过注册表解析为强类型）
func payloadOf(evt eventing.IEvent) any {
	return evt.GetPayload()
}

// Ensure interface compliance.
var _ projection.IProjection = (*PostProjection)(nil)
