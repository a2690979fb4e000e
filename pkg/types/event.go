// Package types 定义HashWeft系统的核心数据类型
//
// 📢 **事件类型 (Event Types)**
//
// 本文件定义事件总线使用的事件类型与事件负载。
package types

// EventType 事件类型标识
type EventType string

// String 返回事件类型的字符串表示
func (e EventType) String() string {
	return string(e)
}

// OpIntegratedEvent 操作集成完成事件负载
type OpIntegratedEvent struct {
	OpHash OpHash  `json:"op_hash"`
	Kind   OpKind  `json:"kind"`
	Author AgentID `json:"author"`
}

// OpRejectedEvent 操作终局拒绝事件负载
type OpRejectedEvent struct {
	OpHash OpHash `json:"op_hash"`
	Kind   OpKind `json:"kind"`
	Reason string `json:"reason"`
}

// OpPublishedEvent 操作发布完成事件负载
type OpPublishedEvent struct {
	OpHash OpHash `json:"op_hash"`
	Kind   OpKind `json:"kind"`
}

// WorkflowErrorEvent 工作流单轮失败事件负载
// 单轮失败不会中断消费循环，事件仅用于监督方观测
type WorkflowErrorEvent struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}
