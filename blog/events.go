// Package blog 实现博客帖子聚合及其读模型
package blog

import (
	"sync"

	"bloggo/eventing/registry"
)

// AggregateType 帖子聚合类型名
const AggregateType = "post"

// 事件 kind 判别符
const (
	EventPostCreated    = "post.created"
	EventMessageEdited  = "post.message_edited"
	EventPostLiked      = "post.liked"
	EventCommentAdded   = "post.comment_added"
	EventCommentEdited  = "post.comment_edited"
	EventCommentRemoved = "post.comment_removed"
	EventPostDeleted    = "post.deleted"
)

// PostCreated 帖子已创建
type PostCreated struct {
	Author  string `json:"author"`
	Message string `json:"message"`
}

func (*PostCreated) EventType() string { return EventPostCreated }

// MessageEdited 帖子正文已修改
type MessageEdited struct {
	Message string `json:"message"`
}

func (*MessageEdited) EventType() string { return EventMessageEdited }

// PostLiked 帖子被点赞
type PostLiked struct{}

func (*PostLiked) EventType() string { return EventPostLiked }

// CommentAdded 评论已添加
type CommentAdded struct {
	CommentID string `json:"comment_id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}

func (*CommentAdded) EventType() string { return EventCommentAdded }

// CommentEdited 评论已修改
//
// Author 为本次操作者；折叠时替换评论的文本与作者署名。
type CommentEdited struct {
	CommentID string `json:"comment_id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}

func (*CommentEdited) EventType() string { return EventCommentEdited }

// CommentRemoved 评论已删除
type CommentRemoved struct {
	CommentID string `json:"comment_id"`
	Author    string `json:"author"`
}

func (*CommentRemoved) EventType() string { return EventCommentRemoved }

// PostDeleted 帖子已删除（软删除）
type PostDeleted struct{}

func (*PostDeleted) EventType() string { return EventPostDeleted }

var registerOnce sync.Once

// RegisterEvents 把帖子事件类型注册到全局注册表（幂等）
func RegisterEvents() {
	registerOnce.Do(func() {
		registerInto(registry.Global())
	})
}

// RegisterEventsInto 把帖子事件类型注册到指定注册表
//
// 测试中使用独立注册表时调用。
func RegisterEventsInto(reg *registry.Registry) {
	registerInto(reg)
}

func registerInto(reg *registry.Registry) {
	reg.MustRegister(EventPostCreated, func() any { return &PostCreated{} })
	reg.MustRegister(EventMessageEdited, func() any { return &MessageEdited{} })
	reg.MustRegister(EventPostLiked, func() any { return &PostLiked{} })
	reg.MustRegister(EventCommentAdded, func() any { return &CommentAdded{} })
	reg.MustRegister(EventCommentEdited, func() any { return &CommentEdited{} })
	reg.MustRegister(EventCommentRemoved, func() any { return &CommentRemoved{} })
	reg.MustRegister(EventPostDeleted, func() any { return &PostDeleted{} })
}
