// Package types 定义HashWeft系统的核心数据类型
//
// 🔄 **DHT操作 (DHT Operations)**
//
// 本文件定义了DHT状态变更的原子单元：
// - OpKind：操作类别的固定集合
// - DhtOp：由链头派生的内容寻址操作
// - OpStatus / QueuedOp：操作在验证/集成管线中的状态记录
//
// 🎯 **设计原则**
// - 操作不可变：操作一经产生不再修改，只有状态记录变化
// - 内容寻址：操作哈希由类别与链头哈希共同决定，稳定可复现
package types

import (
	"encoding/json"
	"fmt"
)

// OpKind DHT操作类别
type OpKind string

const (
	// OpStoreElement 存储元素：将完整元素存入其链头哈希所属的分区
	OpStoreElement OpKind = "store_element"

	// OpStoreEntry 存储条目：将条目及其引用链头存入条目哈希所属的分区
	OpStoreEntry OpKind = "store_entry"

	// OpRegisterAgentActivity 注册链活动：在作者分区登记新的链头
	OpRegisterAgentActivity OpKind = "register_agent_activity"

	// OpRegisterAddLink 注册链接添加：在链接基分区登记链接目标
	OpRegisterAddLink OpKind = "register_add_link"
)

// IsValid 检查操作类别是否属于固定集合
func (k OpKind) IsValid() bool {
	switch k {
	case OpStoreElement, OpStoreEntry, OpRegisterAgentActivity, OpRegisterAddLink:
		return true
	default:
		return false
	}
}

// String 返回操作类别的字符串表示
func (k OpKind) String() string {
	return string(k)
}

// DhtOp DHT状态变更的原子单元
// 由已授权的链头派生，通过验证管线逐步进入权威存储
type DhtOp struct {
	// Kind 操作类别
	Kind OpKind `json:"kind"`

	// Header 派生本操作的带签名链头
	Header SignedHeader `json:"header"`

	// Entry 操作携带的条目负载（仅StoreElement/StoreEntry需要）
	Entry *Entry `json:"entry,omitempty"`
}

// Hash 计算操作哈希
// 由操作类别与链头哈希共同决定，同一链头派生的不同类别操作互不相同
func (op *DhtOp) Hash() OpHash {
	return NewOpHash([]byte(fmt.Sprintf("%s:%s", op.Kind, op.Header.Hash())))
}

// HeaderHash 返回派生本操作的链头哈希
func (op *DhtOp) HeaderHash() HeaderHash {
	return op.Header.Hash()
}

// Element 将操作还原为元素形式（链头+可选条目）
func (op *DhtOp) Element() *Element {
	return &Element{
		SignedHeader: op.Header,
		Entry:        op.Entry,
	}
}

// Validate 检查操作的结构完整性
func (op *DhtOp) Validate() error {
	if !op.Kind.IsValid() {
		return fmt.Errorf("未知的操作类别: %s", op.Kind)
	}
	if err := op.Header.Header.Validate(); err != nil {
		return fmt.Errorf("操作的链头非法: %w", err)
	}
	if op.Kind == OpStoreEntry && op.Entry == nil {
		return fmt.Errorf("存储条目操作缺少条目负载")
	}
	if op.Kind == OpRegisterAddLink && !op.Header.Header.IsAddLink() {
		return fmt.Errorf("链接添加操作的链头缺少链接字段")
	}
	return nil
}

// OpStatus 操作在管线中的状态
type OpStatus string

const (
	// OpStatusPending 等待系统验证
	OpStatusPending OpStatus = "pending"

	// OpStatusSysValidated 已通过系统验证，等待应用验证
	OpStatusSysValidated OpStatus = "sys_validated"

	// OpStatusValidated 已通过全部验证，等待集成
	OpStatusValidated OpStatus = "validated"

	// OpStatusIntegrated 已集成到权威存储
	OpStatusIntegrated OpStatus = "integrated"

	// OpStatusRejected 验证终局失败，已被拒绝
	OpStatusRejected OpStatus = "rejected"
)

// QueuedOp 操作的管线状态记录
// 操作本体不可变，仅状态记录随处理推进而更新
type QueuedOp struct {
	// Op 操作本体
	Op DhtOp `json:"op"`

	// Status 当前管线状态
	Status OpStatus `json:"status"`

	// Attempts 依赖未就绪而被重新排队的次数
	Attempts int `json:"attempts"`

	// EnqueuedAt 首次入队时间（Unix毫秒）
	EnqueuedAt int64 `json:"enqueued_at"`
}

// Encode 序列化状态记录
func (q *QueuedOp) Encode() ([]byte, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("序列化操作状态记录失败: %w", err)
	}
	return data, nil
}

// DecodeQueuedOp 反序列化状态记录
func DecodeQueuedOp(data []byte) (*QueuedOp, error) {
	var q QueuedOp
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("解析操作状态记录失败: %w", err)
	}
	return &q, nil
}
