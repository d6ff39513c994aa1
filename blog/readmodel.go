package blog

import (
	"context"
	"time"

	"bloggo/errors"
)

// PostRecord 帖子读模型记录（非规范化视图）
//
// Version 记录该视图折叠到的事件版本，投影处理器据此做
// 幂等守卫：重复投递的事件版本不大于已有版本时直接跳过。
type PostRecord struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Active    bool      `json:"active"`
	Likes     int       `json:"likes"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentRecord 评论读模型记录
//
// 评论修改替换 Text 与 Author 署名并更新 UpdatedAt，
// CreatedAt 保留首次添加时间。
type CommentRecord struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 读模型错误
var (
	// ErrPostRecordNotFound 帖子记录不存在
	ErrPostRecordNotFound = errors.NewError(errors.ErrCodeNotFound, "post record not found")

	// ErrCommentRecordNotFound 评论记录不存在
	ErrCommentRecordNotFound = errors.NewError(errors.ErrCodeNotFound, "comment record not found")
)

// IPostReadStore 帖子读模型存储接口
//
// 写操作都是按ID的 UPSERT / DELETE，天然幂等。
type IPostReadStore interface {
	// GetPost 按ID查询帖子；不存在返回 ErrPostRecordNotFound
	GetPost(ctx context.Context, postID string) (*PostRecord, error)

	// ListPosts 列出所有帖子（含软删除的）
	ListPosts(ctx context.Context) ([]*PostRecord, error)

	// SavePost 保存帖子记录（UPSERT）
	SavePost(ctx context.Context, record *PostRecord) error

	// GetComment 查询评论；不存在返回 ErrCommentRecordNotFound
	GetComment(ctx context.Context, postID, commentID string) (*CommentRecord, error)

	// ListComments 列出帖子的评论（按添加时间升序）
	ListComments(ctx context.Context, postID string) ([]*CommentRecord, error)

	// SaveComment 保存评论记录（UPSERT）
	SaveComment(ctx context.Context, record *CommentRecord) error

	// DeleteComment 删除评论记录（不存在时不报错）
	DeleteComment(ctx context.Context, postID, commentID string) error
}
