// Package dht 定义HashWeft系统DHT核心对外接口
//
// 🌐 **级联检索 (Cascade Retrieval)**
//
// 本文件定义网络级联检索接口：当本地三级存储（vault/judged/pending）
// 均未持有某个事实时，依赖解析器在 CheckLevel 为 Claim 时通过级联
// 向网络请求该事实。
//
// 🎯 **契约**
// - 未找到时返回 (nil, nil)，调用方以 nil 值判断网络层面的缺失
// - 超时与取消由调用方的 context 控制，实现内部不做重试
// - 级联返回的事实仅具备 Claim 置信级，未经本节点验证
package dht

import (
	"context"

	"github.com/hashweft/v1/pkg/types"
)

// Cascade 网络级联检索接口
// 仅在本地证据耗尽且调用方接受 Claim 级置信时使用
type Cascade interface {
	// RetrieveElement 按链头哈希检索完整元素
	RetrieveElement(ctx context.Context, hash types.HeaderHash) (*types.Element, error)

	// RetrieveHeader 按链头哈希检索带签名链头
	RetrieveHeader(ctx context.Context, hash types.HeaderHash) (*types.SignedHeader, error)

	// RetrieveEntry 按条目哈希检索携带该条目的元素
	RetrieveEntry(ctx context.Context, hash types.EntryHash) (*types.Element, error)
}

// Publisher 操作公告接口
// Publish工作流通过本接口向网络公告已授权操作
type Publisher interface {
	// PublishOp 公告单个操作（gossip广播 + 提供者记录）
	PublishOp(ctx context.Context, op *types.DhtOp) error
}
