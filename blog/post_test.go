package blog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggo/domain"
	"bloggo/domain/eventsourced"
	"bloggo/errors"
	"bloggo/eventing"
)

// TestCreatePost 测试创建帖子
func TestCreatePost(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello world")
	require.NoError(t, err)

	assert.Equal(t, "post-1", post.GetID())
	assert.Equal(t, "alice", post.GetAuthor())
	assert.Equal(t, "hello world", post.GetMessage())
	assert.True(t, post.IsActive())
	assert.Equal(t, uint64(1), post.GetVersion())
	assert.Len(t, post.GetUncommittedEvents(), 1)
}

// TestCreatePost_GeneratesID 测试省略ID时自动生成
func TestCreatePost_GeneratesID(t *testing.T) {
	post, err := CreatePost("", "alice", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, post.GetID())
}

// TestCreatePost_Validation 测试空白文本校验
func TestCreatePost_Validation(t *testing.T) {
	_, err := CreatePost("post-1", "alice", "   ")
	require.ErrorIs(t, err, ErrBlankText)

	_, err = CreatePost("post-1", "", "hello")
	require.ErrorIs(t, err, ErrBlankAuthor)

	_, err = CreatePost("post-1", "alice", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

// TestCreatePost_LengthLimits 测试长度上限校验
func TestCreatePost_LengthLimits(t *testing.T) {
	_, err := CreatePost("post-1", "alice", strings.Repeat("a", MaxMessageLength+1))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = CreatePost("post-1", strings.Repeat("a", MaxAuthorLength+1), "hello")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)
	_, err = post.AddComment("bob", strings.Repeat("x", MaxCommentLength+1))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	// 超长校验失败不产生事件
	assert.Equal(t, uint64(1), post.GetVersion())
}

// TestPost_EditMessage 测试修改正文
func TestPost_EditMessage(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "first")
	require.NoError(t, err)

	require.NoError(t, post.EditMessage("second"))
	assert.Equal(t, "second", post.GetMessage())
	assert.Equal(t, uint64(2), post.GetVersion())

	require.ErrorIs(t, post.EditMessage("\t\n "), ErrBlankText)
}

// TestPost_Like 测试点赞可重复
func TestPost_Like(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)

	require.NoError(t, post.Like())
	require.NoError(t, post.Like())
	require.NoError(t, post.Like())
	assert.Equal(t, 3, post.GetLikes())
}

// TestPost_Comments 测试评论的增改删
func TestPost_Comments(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)

	commentID, err := post.AddComment("bob", "nice")
	require.NoError(t, err)
	require.NotEmpty(t, commentID)

	comment, exists := post.GetComment(commentID)
	require.True(t, exists)
	assert.Equal(t, "bob", comment.Author)
	assert.Equal(t, "nice", comment.Text)

	require.NoError(t, post.EditComment(commentID, "bob", "very nice"))
	comment, _ = post.GetComment(commentID)
	assert.Equal(t, "very nice", comment.Text)

	require.NoError(t, post.RemoveComment(commentID, "bob"))
	_, exists = post.GetComment(commentID)
	assert.False(t, exists)
}

// TestPost_CommentAuthorization 测试评论作者鉴权（大小写不敏感）
func TestPost_CommentAuthorization(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)

	commentID, err := post.AddComment("Bob", "nice")
	require.NoError(t, err)

	// 非作者被拒绝
	require.ErrorIs(t, post.EditComment(commentID, "mallory", "hacked"), ErrNotCommentAuthor)
	require.ErrorIs(t, post.RemoveComment(commentID, "mallory"), ErrNotCommentAuthor)

	// 作者本人大小写不同也放行
	require.NoError(t, post.EditComment(commentID, "BOB", "edited"))
	require.NoError(t, post.RemoveComment(commentID, "bob"))
}

// TestPost_EditCommentReplacesAuthor 测试修改评论替换文本与作者署名
func TestPost_EditCommentReplacesAuthor(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)

	commentID, err := post.AddComment("Bob", "nice")
	require.NoError(t, err)

	require.NoError(t, post.EditComment(commentID, "BOB", "edited"))
	comment, exists := post.GetComment(commentID)
	require.True(t, exists)
	assert.Equal(t, "BOB", comment.Author)
	assert.Equal(t, "edited", comment.Text)
}

// TestPost_CommentNotFound 测试操作不存在的评论
func TestPost_CommentNotFound(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)

	require.ErrorIs(t, post.EditComment("missing", "bob", "text"), ErrCommentNotFound)
	require.ErrorIs(t, post.RemoveComment("missing", "bob"), ErrCommentNotFound)
}

// TestPost_Delete 测试软删除及作者鉴权（大小写不敏感）
func TestPost_Delete(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)

	require.ErrorIs(t, post.Delete("bob"), ErrNotPostAuthor)
	// 作者本人大小写不同也放行
	require.NoError(t, post.Delete("ALICE"))
	assert.False(t, post.IsActive())
}

// TestPost_InactiveRejectsAllMutations 测试失活后拒绝一切变更
func TestPost_InactiveRejectsAllMutations(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)
	commentID, err := post.AddComment("bob", "nice")
	require.NoError(t, err)
	require.NoError(t, post.Delete("alice"))

	require.ErrorIs(t, post.EditMessage("changed"), ErrPostInactive)
	require.ErrorIs(t, post.Like(), ErrPostInactive)
	_, err = post.AddComment("bob", "more")
	require.ErrorIs(t, err, ErrPostInactive)
	require.ErrorIs(t, post.EditComment(commentID, "bob", "changed"), ErrPostInactive)
	require.ErrorIs(t, post.RemoveComment(commentID, "bob"), ErrPostInactive)
	require.ErrorIs(t, post.Delete("alice"), ErrPostInactive)
}

// TestPost_Scenario 测试完整业务场景：创建→评论→越权→删除→失活
func TestPost_Scenario(t *testing.T) {
	post, err := CreatePost("post-1", "alice", "event sourcing rocks")
	require.NoError(t, err)

	commentID, err := post.AddComment("bob", "agreed")
	require.NoError(t, err)

	// 非评论作者修改评论 → 越权
	err = post.EditComment(commentID, "carol", "disagreed")
	require.ErrorIs(t, err, ErrNotCommentAuthor)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))

	// 作者删除帖子（软删除）
	require.NoError(t, post.Delete("alice"))

	// 删除后点赞 → 失活
	err = post.Like()
	require.ErrorIs(t, err, ErrPostInactive)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInactiveAggregate))

	// 历史完整保留：创建、评论、删除各一个事件
	assert.Len(t, post.GetUncommittedEvents(), 3)
}

// TestPost_ReplayDeterminism 测试重放确定性：同一历史重放得到相同状态
func TestPost_ReplayDeterminism(t *testing.T) {
	original, err := CreatePost("post-1", "alice", "hello")
	require.NoError(t, err)
	require.NoError(t, original.EditMessage("hello, edited"))
	commentID, err := original.AddComment("bob", "nice")
	require.NoError(t, err)
	require.NoError(t, original.Like())
	require.NoError(t, original.EditComment(commentID, "bob", "very nice"))

	history := original.GetUncommittedEvents()

	replayed := NewPost("post-1")
	require.NoError(t, eventsourced.LoadFromHistory(replayed, history))

	assert.Equal(t, original.GetVersion(), replayed.GetVersion())
	assert.Equal(t, original.GetAuthor(), replayed.GetAuthor())
	assert.Equal(t, original.GetMessage(), replayed.GetMessage())
	assert.Equal(t, original.GetLikes(), replayed.GetLikes())
	assert.Equal(t, original.IsActive(), replayed.IsActive())
	assert.ElementsMatch(t, original.GetComments(), replayed.GetComments())

	// 重放不产生新事件
	assert.Empty(t, replayed.GetUncommittedEvents())

	// 再次重放同样的历史到另一个实例，结果一致
	again := NewPost("post-1")
	require.NoError(t, eventsourced.LoadFromHistory(again, history))
	assert.Equal(t, replayed.GetVersion(), again.GetVersion())
	assert.Equal(t, replayed.GetMessage(), again.GetMessage())
}

// TestPost_ApplyUnknownEvent 测试未知事件类型不被静默忽略
func TestPost_ApplyUnknownEvent(t *testing.T) {
	post := NewPost("post-1")
	err := post.ApplyEvent(unknownEvent{})
	require.Error(t, err)

	var unknown *eventing.UnknownEventKindError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bogus.event", unknown.Kind)
	// 版本没有前进
	assert.Equal(t, uint64(0), post.GetVersion())
}

type unknownEvent struct{}

func (unknownEvent) EventType() string { return "bogus.event" }

// 编译期断言：所有事件载荷都实现了领域事件接口
var (
	_ domain.IDomainEvent = (*PostCreated)(nil)
	_ domain.IDomainEvent = (*MessageEdited)(nil)
	_ domain.IDomainEvent = (*PostLiked)(nil)
	_ domain.IDomainEvent = (*CommentAdded)(nil)
	_ domain.IDomainEvent = (*CommentEdited)(nil)
	_ domain.IDomainEvent = (*CommentRemoved)(nil)
	_ domain.IDomainEvent = (*PostDeleted)(nil)
)
