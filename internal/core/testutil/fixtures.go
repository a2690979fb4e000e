// Package testutil 提供测试专用的数据构造工具
package testutil

import (
	"fmt"
	"time"

	"github.com/hashweft/v1/pkg/types"
)

// TestAgent 生成确定性的测试代理ID
func TestAgent(index int) types.AgentID {
	return types.NewAgentID([]byte(fmt.Sprintf("test_agent_%d", index)))
}

// GenesisElement 构造创世元素
func GenesisElement(author types.AgentID) *types.Element {
	entry := &types.Entry{Content: []byte(fmt.Sprintf("genesis_%s", author))}
	header := types.Header{
		Author:    author,
		Seq:       0,
		EntryHash: entry.Hash(),
		Timestamp: time.Now().UnixMilli(),
	}
	return &types.Element{
		SignedHeader: types.SignedHeader{Header: header, Signature: []byte("test_signature")},
		Entry:        entry,
	}
}

// ChainElement 构造引用前驱的后继元素
func ChainElement(author types.AgentID, seq uint64, prev types.HeaderHash, content []byte) *types.Element {
	entry := &types.Entry{Content: content}
	header := types.Header{
		Author:     author,
		Seq:        seq,
		PrevHeader: prev,
		EntryHash:  entry.Hash(),
		Timestamp:  time.Now().UnixMilli(),
	}
	return &types.Element{
		SignedHeader: types.SignedHeader{Header: header, Signature: []byte("test_signature")},
		Entry:        entry,
	}
}

// LinkElement 构造链接添加元素
func LinkElement(author types.AgentID, seq uint64, prev types.HeaderHash, base, target types.EntryHash) *types.Element {
	header := types.Header{
		Author:     author,
		Seq:        seq,
		PrevHeader: prev,
		LinkBase:   base,
		LinkTarget: target,
		Timestamp:  time.Now().UnixMilli(),
	}
	return &types.Element{
		SignedHeader: types.SignedHeader{Header: header, Signature: []byte("test_signature")},
	}
}

// OpFromElement 从元素派生指定类别的操作
func OpFromElement(kind types.OpKind, el *types.Element) *types.DhtOp {
	return &types.DhtOp{
		Kind:   kind,
		Header: el.SignedHeader,
		Entry:  el.Entry,
	}
}

// QueuedOpFromElement 从元素派生带状态的操作记录
func QueuedOpFromElement(kind types.OpKind, el *types.Element, status types.OpStatus) *types.QueuedOp {
	return &types.QueuedOp{
		Op:         *OpFromElement(kind, el),
		Status:     status,
		EnqueuedAt: time.Now().UnixMilli(),
	}
}
