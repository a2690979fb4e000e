// Package events 定义HashWeft系统的事件类型常量
package events

import "github.com/hashweft/v1/pkg/types"

// 管线生命周期事件
const (
	// OpIntegrated 操作已集成到权威存储
	OpIntegrated types.EventType = "pipeline.op.integrated"

	// OpRejected 操作被终局拒绝
	OpRejected types.EventType = "pipeline.op.rejected"

	// OpPublished 已授权操作完成一次网络公告
	OpPublished types.EventType = "pipeline.op.published"

	// WorkflowError 工作流单轮执行失败（事务已回滚，循环继续）
	WorkflowError types.EventType = "pipeline.workflow.error"
)
