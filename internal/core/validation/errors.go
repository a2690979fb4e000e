package validation

import (
	"errors"
	"fmt"
)

// DepKind 被依赖事实的类别
type DepKind string

const (
	// DepHeader 链头事实
	DepHeader DepKind = "header"

	// DepElement 元素事实
	DepElement DepKind = "element"

	// DepEntry 条目事实
	DepEntry DepKind = "entry"

	// DepActivity 作者链活动元数据
	DepActivity DepKind = "activity"

	// DepEntryRef 条目引用元数据
	DepEntryRef DepKind = "entry_ref"

	// DepLink 链接登记元数据
	DepLink DepKind = "link"
)

// NotHoldingDepError 可恢复失败
// 在请求的检查级别下本地/声称证据不足；依赖可能随后续gossip到达，
// 调用工作流应将被依赖的操作重新排队等待
type NotHoldingDepError struct {
	Kind DepKind
	Hash string
}

// Error 实现error接口
func (e *NotHoldingDepError) Error() string {
	return fmt.Sprintf("本地证据不足，暂不持有依赖: %s %s", e.Kind, e.Hash)
}

// DepMissingError 终局失败
// 仅在CheckLevelClaim下网络级联也否认事实存在时产生；
// 调用工作流应直接拒绝被依赖的操作
type DepMissingError struct {
	Kind DepKind
	Hash string
}

// Error 实现error接口
func (e *DepMissingError) Error() string {
	return fmt.Sprintf("网络确认依赖不存在: %s %s", e.Kind, e.Hash)
}

// RejectedError 验证拒绝
// 操作自身结构或语义非法，与依赖缺失无关的终局失败
type RejectedError struct {
	Reason string
}

// Error 实现error接口
func (e *RejectedError) Error() string {
	return fmt.Sprintf("操作验证被拒绝: %s", e.Reason)
}

// IsRecoverable 判断验证失败是否可恢复
// 只有NotHoldingDepError是可恢复的；其余失败均为终局
func IsRecoverable(err error) bool {
	var notHolding *NotHoldingDepError
	return errors.As(err, &notHolding)
}

// IsTerminal 判断验证失败是否终局
func IsTerminal(err error) bool {
	var missing *DepMissingError
	var rejected *RejectedError
	return errors.As(err, &missing) || errors.As(err, &rejected)
}
