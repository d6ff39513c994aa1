package blog

import (
	"strings"

	"github.com/google/uuid"

	"bloggo/domain"
	"bloggo/domain/eventsourced"
	"bloggo/eventing"
	"bloggo/validation"
)

// 输入长度上限（按 rune 计数）
const (
	MaxAuthorLength  = 100
	MaxMessageLength = 10000
	MaxCommentLength = 2000
)

// Comment 帖子评论（聚合内部实体）
type Comment struct {
	ID     string
	Author string
	Text   string
}

// Post 博客帖子聚合根
//
// 所有变更遵循同一条路径：业务校验 → 产生事件 → 折叠事件更新
// 状态。校验只发生在命令方法里；ApplyEvent 是纯状态折叠，重放
// 历史时不会重复校验。
//
// 删除是软删除：active 置为 false，历史事件流保留。失活后的
// 一切变更命令（包括再次删除）都返回 ErrPostInactive。
type Post struct {
	eventsourced.EventSourcedAggregate

	author   string
	message  string
	active   bool
	likes    int
	comments map[string]*Comment
}

// NewPost 创建零版本的空聚合实例（供仓储重放历史使用）
func NewPost(id string) *Post {
	return &Post{
		EventSourcedAggregate: eventsourced.NewEventSourcedAggregate(id, AggregateType),
		comments:              make(map[string]*Comment),
	}
}

// CreatePost 创建新帖子
//
// id 为空时自动生成。新帖子处于激活状态。
func CreatePost(id, author, message string) (*Post, error) {
	if strings.TrimSpace(author) == "" {
		return nil, ErrBlankAuthor
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrBlankText
	}
	if err := validation.ValidateStringLength(author, "author", 1, MaxAuthorLength); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringLength(message, "message", 1, MaxMessageLength); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	post := NewPost(id)
	if err := post.raise(&PostCreated{Author: author, Message: message}); err != nil {
		return nil, err
	}
	return post, nil
}

// EditMessage 修改帖子正文
func (p *Post) EditMessage(message string) error {
	if !p.active {
		return ErrPostInactive
	}
	if strings.TrimSpace(message) == "" {
		return ErrBlankText
	}
	if err := validation.ValidateStringLength(message, "message", 1, MaxMessageLength); err != nil {
		return err
	}
	return p.raise(&MessageEdited{Message: message})
}

// Like 点赞
//
// 无业务限制：同一用户可以重复点赞。
func (p *Post) Like() error {
	if !p.active {
		return ErrPostInactive
	}
	return p.raise(&PostLiked{})
}

// AddComment 添加评论，返回新评论ID
func (p *Post) AddComment(author, text string) (string, error) {
	if !p.active {
		return "", ErrPostInactive
	}
	if strings.TrimSpace(author) == "" {
		return "", ErrBlankAuthor
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrBlankText
	}
	if err := validation.ValidateStringLength(author, "author", 1, MaxAuthorLength); err != nil {
		return "", err
	}
	if err := validation.ValidateStringLength(text, "text", 1, MaxCommentLength); err != nil {
		return "", err
	}

	commentID := uuid.NewString()
	if err := p.raise(&CommentAdded{CommentID: commentID, Author: author, Text: text}); err != nil {
		return "", err
	}
	return commentID, nil
}

// EditComment 修改评论
//
// 作者比较不区分大小写；非评论作者返回 ErrNotCommentAuthor。
func (p *Post) EditComment(commentID, author, text string) error {
	if !p.active {
		return ErrPostInactive
	}
	comment, exists := p.comments[commentID]
	if !exists {
		return ErrCommentNotFound
	}
	if !strings.EqualFold(comment.Author, author) {
		return ErrNotCommentAuthor
	}
	if strings.TrimSpace(text) == "" {
		return ErrBlankText
	}
	if err := validation.ValidateStringLength(text, "text", 1, MaxCommentLength); err != nil {
		return err
	}
	// 事件携带本次操作者：修改会替换评论的文本与作者署名
	return p.raise(&CommentEdited{CommentID: commentID, Author: author, Text: text})
}

// RemoveComment 删除评论
//
// 作者比较不区分大小写；非评论作者返回 ErrNotCommentAuthor。
func (p *Post) RemoveComment(commentID, author string) error {
	if !p.active {
		return ErrPostInactive
	}
	comment, exists := p.comments[commentID]
	if !exists {
		return ErrCommentNotFound
	}
	if !strings.EqualFold(comment.Author, author) {
		return ErrNotCommentAuthor
	}
	return p.raise(&CommentRemoved{CommentID: commentID, Author: comment.Author})
}

// Delete 删除帖子（软删除）
//
// 只有帖子作者可以删除，作者比较不区分大小写；
// 已删除的帖子再次删除返回 ErrPostInactive。
func (p *Post) Delete(author string) error {
	if !p.active {
		return ErrPostInactive
	}
	if !strings.EqualFold(p.author, author) {
		return ErrNotPostAuthor
	}
	return p.raise(&PostDeleted{})
}

// GetAuthor 返回帖子作者
func (p *Post) GetAuthor() string { return p.author }

// GetMessage 返回帖子正文
func (p *Post) GetMessage() string { return p.message }

// IsActive 返回帖子是否处于激活状态
func (p *Post) IsActive() bool { return p.active }

// GetLikes 返回点赞数
func (p *Post) GetLikes() int { return p.likes }

// GetComment 按ID查找评论
func (p *Post) GetComment(commentID string) (Comment, bool) {
	comment, exists := p.comments[commentID]
	if !exists {
		return Comment{}, false
	}
	return *comment, true
}

// GetComments 返回所有评论的副本
func (p *Post) GetComments() []Comment {
	comments := make([]Comment, 0, len(p.comments))
	for _, c := range p.comments {
		comments = append(comments, *c)
	}
	return comments
}

// raise 先折叠再记录：内存状态与待持久化事件流保持一致
func (p *Post) raise(evt domain.IDomainEvent) error {
	if err := p.ApplyEvent(evt); err != nil {
		return err
	}
	p.RecordEvent(evt)
	return nil
}

// ApplyEvent 把单个事件折叠进聚合状态
//
// 纯状态变换：不校验业务规则、不产生新事件。未知事件类型
// 意味着模式不一致，返回错误而不是忽略——静默跳过会让重放
// 出的状态悄悄偏离真实历史。
func (p *Post) ApplyEvent(evt domain.IDomainEvent) error {
	switch e := evt.(type) {
	case *PostCreated:
		p.author = e.Author
		p.message = e.Message
		p.active = true
	case *MessageEdited:
		p.message = e.Message
	case *PostLiked:
		p.likes++
	case *CommentAdded:
		p.comments[e.CommentID] = &Comment{ID: e.CommentID, Author: e.Author, Text: e.Text}
	case *CommentEdited:
		if comment, exists := p.comments[e.CommentID]; exists {
			comment.Author = e.Author
			comment.Text = e.Text
		}
	case *CommentRemoved:
		delete(p.comments, e.CommentID)
	case *PostDeleted:
		p.active = false
	default:
		return eventing.NewUnknownEventKindError(evt.EventType())
	}
	p.Advance()
	return nil
}

// Ensure interface compliance.
var _ eventsourced.IEventSourcedAggregate = (*Post)(nil)
