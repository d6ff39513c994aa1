// Package projection 提供投影（读模型）的消费与进度管理
package projection

import (
	"context"

	"bloggo/eventing"
)

// IProjection 投影接口
//
// 投影把事件流折叠为读侧的非规范化视图。处理器必须幂等：
// 事件是至少一次投递的，重复投递同一事件后投影状态必须与
// 只投递一次时完全相同（按ID upsert，而不是盲目追加/累加）。
type IProjection interface {
	// GetName 投影名称（唯一标识，用于检查点）
	GetName() string

	// Handle 处理单个事件并更新读模型
	Handle(ctx context.Context, evt eventing.IEvent) error

	// HandledEventTypes 该投影处理的事件类型全集
	//
	// 派发器启动时据此校验处理器表的完整性；
	// 运行中出现未声明的类型属于配置错误。
	HandledEventTypes() []string
}
