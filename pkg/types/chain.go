// Package types 定义HashWeft系统的核心数据类型
//
// ⛓️ **源链记录 (Source Chain Records)**
//
// 本文件定义了代理源链的基础记录类型：
// - Header：链头，记录一次状态变更的元信息（作者、序号、前驱、条目引用）
// - SignedHeader：带签名的链头
// - Entry：内容条目（内容寻址的不透明负载）
// - Element：链头与可选条目的组合，是验证与存储的基本单元
package types

import (
	"encoding/json"
	"fmt"
)

// Header 链头
// 一次链上状态变更的元信息；链头本身内容寻址，哈希即标识
type Header struct {
	// Author 链头作者
	Author AgentID `json:"author"`

	// Seq 链上序号，从0开始单调递增
	Seq uint64 `json:"seq"`

	// PrevHeader 前驱链头哈希；创世链头（Seq==0）为空
	PrevHeader HeaderHash `json:"prev_header,omitempty"`

	// EntryHash 本链头引用的条目哈希；纯链活动记录可为空
	EntryHash EntryHash `json:"entry_hash,omitempty"`

	// LinkBase 链接基哈希；仅链接添加类链头使用
	LinkBase EntryHash `json:"link_base,omitempty"`

	// LinkTarget 链接目标哈希；仅链接添加类链头使用
	LinkTarget EntryHash `json:"link_target,omitempty"`

	// Timestamp 创建时间（Unix毫秒）
	Timestamp int64 `json:"timestamp"`
}

// Hash 计算链头哈希
// 使用规范JSON序列化作为哈希输入
func (h *Header) Hash() HeaderHash {
	data, err := json.Marshal(h)
	if err != nil {
		// Header字段均为可序列化的基础类型，此分支不可达
		return ""
	}
	return NewHeaderHash(data)
}

// IsGenesis 检查是否为创世链头
func (h *Header) IsGenesis() bool {
	return h.Seq == 0 && h.PrevHeader == ""
}

// IsAddLink 检查是否为链接添加类链头
func (h *Header) IsAddLink() bool {
	return h.LinkBase != "" && h.LinkTarget != ""
}

// Validate 检查链头的结构完整性
// 仅做结构校验，不涉及任何业务语义
func (h *Header) Validate() error {
	if !h.Author.IsValid() {
		return fmt.Errorf("链头缺少作者")
	}
	if h.Seq == 0 && h.PrevHeader != "" {
		return fmt.Errorf("创世链头不允许存在前驱引用")
	}
	if h.Seq > 0 && h.PrevHeader == "" {
		return fmt.Errorf("非创世链头必须引用前驱链头")
	}
	if (h.LinkBase == "") != (h.LinkTarget == "") {
		return fmt.Errorf("链接基与链接目标必须同时存在")
	}
	return nil
}

// SignedHeader 带签名的链头
// 签名验证由外部密码学协作方负责，核心只做透传
type SignedHeader struct {
	Header    Header `json:"header"`
	Signature []byte `json:"signature"`
}

// Hash 返回内部链头的哈希
func (sh *SignedHeader) Hash() HeaderHash {
	return sh.Header.Hash()
}

// Entry 内容条目
// 内容寻址的不透明负载，核心不解释其内部结构
type Entry struct {
	Content []byte `json:"content"`
}

// Hash 计算条目哈希
func (e *Entry) Hash() EntryHash {
	return NewEntryHash(e.Content)
}

// Element 链头与可选条目的组合
// 验证、存储与网络检索的基本单元
type Element struct {
	SignedHeader SignedHeader `json:"signed_header"`
	Entry        *Entry       `json:"entry,omitempty"`
}

// HeaderHash 返回元素的链头哈希
func (el *Element) HeaderHash() HeaderHash {
	return el.SignedHeader.Hash()
}

// HasEntry 检查元素是否携带条目
func (el *Element) HasEntry() bool {
	return el.Entry != nil
}
