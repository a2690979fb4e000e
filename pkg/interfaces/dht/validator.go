// Package dht 定义HashWeft系统DHT核心对外接口
//
// ✅ **验证协作方 (Validation Collaborators)**
//
// 具体的验证规则逻辑（什么使一个操作在语义上有效）是外部协作方，
// 核心只通过本文件的窄接口调用它们。
package dht

import (
	"context"

	"github.com/hashweft/v1/pkg/types"
)

// SysChecker 系统级语义校验接口
// 依赖解析（前驱、条目、链接目标是否可担保）由核心完成；
// 其余系统级规则（签名、时间戳、条目大小等）由本接口的实现方负责
type SysChecker interface {
	// Check 对单个操作执行系统级语义校验
	// 返回nil表示通过；返回错误表示该操作应被拒绝
	Check(ctx context.Context, op *types.DhtOp) error
}

// AppOutcome 应用验证结论
type AppOutcome struct {
	// Accepted 是否接受
	Accepted bool
	// Reason 拒绝原因（Accepted为false时有效）
	Reason string
}

// AppValidator 应用级验证接口
// 对应原体系中由WASM托管的应用回调；核心只消费结论
type AppValidator interface {
	// Validate 对单个元素执行应用级验证
	Validate(ctx context.Context, el *types.Element) (*AppOutcome, error)
}

// Signer 链头签名接口
// 具体签名算法由外部密码学协作方提供
type Signer interface {
	// Agent 返回本地代理标识
	Agent() types.AgentID

	// Sign 对链头的规范序列化内容签名
	Sign(ctx context.Context, data []byte) ([]byte, error)
}
