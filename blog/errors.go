package blog

import (
	"bloggo/errors"
)

// 帖子业务错误
//
// 与 AppError 的错误码比较语义配合，调用方可以用 errors.Is
// 按类别匹配（校验失败、越权、聚合失活、评论不存在）。
var (
	// ErrBlankText 文本为空或仅含空白字符
	ErrBlankText = errors.NewError(errors.ErrCodeValidation, "text cannot be empty or whitespace")

	// ErrBlankAuthor 作者为空或仅含空白字符
	ErrBlankAuthor = errors.NewError(errors.ErrCodeValidation, "author cannot be empty or whitespace")

	// ErrPostInactive 帖子已删除，拒绝一切后续变更
	ErrPostInactive = errors.NewError(errors.ErrCodeInactiveAggregate, "post is inactive")

	// ErrNotCommentAuthor 只有评论作者本人可以修改或删除评论
	ErrNotCommentAuthor = errors.NewError(errors.ErrCodeUnauthorized, "only the comment author may modify the comment")

	// ErrNotPostAuthor 只有帖子作者本人可以删除帖子
	ErrNotPostAuthor = errors.NewError(errors.ErrCodeUnauthorized, "only the post author may delete the post")

	// ErrCommentNotFound 评论不存在
	ErrCommentNotFound = errors.NewError(errors.ErrCodeNotFound, "comment not found")
)
