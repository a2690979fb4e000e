// Package types 定义HashWeft系统的核心数据类型
//
// 📋 **内容寻址标识符 (Content-Addressed Identifiers)**
//
// 本文件定义了系统中所有基于内容哈希的标识符类型，专注于：
// - 统一的哈希标识：操作、链头、条目、代理的稳定标识
// - 可读编码：对外展示使用Base58编码
// - 序列化支持：JSON序列化和反序列化
//
// 🎯 **设计原则**
// - 类型安全：不同类别的哈希使用不同的Go类型，避免混用
// - 不可变性：哈希一经计算不再变化，作为存储键和网络寻址键
// - 零依赖业务：仅依赖哈希与编码库，不包含任何业务逻辑
package types

import (
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/mr-tron/base58"
)

// OpHash DHT操作标识符
// 基于操作内容的SHA-256哈希，Base58编码
type OpHash string

// HeaderHash 链头标识符
// 基于链头规范序列化内容的SHA-256哈希，Base58编码
type HeaderHash string

// EntryHash 条目标识符
// 基于条目内容的SHA-256哈希，Base58编码
type EntryHash string

// AgentID 代理标识符
// 基于代理公钥的哈希，Base58编码
type AgentID string

// hashBytes 计算内容哈希并返回Base58编码字符串
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return base58.Encode(sum[:])
}

// NewOpHash 根据操作的规范序列化内容计算操作哈希
func NewOpHash(data []byte) OpHash {
	return OpHash(hashBytes(data))
}

// NewHeaderHash 根据链头的规范序列化内容计算链头哈希
func NewHeaderHash(data []byte) HeaderHash {
	return HeaderHash(hashBytes(data))
}

// NewEntryHash 根据条目内容计算条目哈希
func NewEntryHash(data []byte) EntryHash {
	return EntryHash(hashBytes(data))
}

// NewAgentID 根据代理公钥计算代理标识符
func NewAgentID(pubKey []byte) AgentID {
	return AgentID(hashBytes(pubKey))
}

// String 返回OpHash的字符串表示
func (h OpHash) String() string {
	return string(h)
}

// IsValid 检查OpHash是否有效
func (h OpHash) IsValid() bool {
	return len(strings.TrimSpace(string(h))) > 0
}

// MarshalJSON 实现JSON序列化
func (h OpHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON 实现JSON反序列化
func (h *OpHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = OpHash(s)
	return nil
}

// String 返回HeaderHash的字符串表示
func (h HeaderHash) String() string {
	return string(h)
}

// IsValid 检查HeaderHash是否有效
func (h HeaderHash) IsValid() bool {
	return len(strings.TrimSpace(string(h))) > 0
}

// Bytes 返回哈希的原始字节
// 如果Base58解码失败，返回nil
func (h HeaderHash) Bytes() []byte {
	b, err := base58.Decode(string(h))
	if err != nil {
		return nil
	}
	return b
}

// MarshalJSON 实现JSON序列化
func (h HeaderHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON 实现JSON反序列化
func (h *HeaderHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = HeaderHash(s)
	return nil
}

// String 返回EntryHash的字符串表示
func (h EntryHash) String() string {
	return string(h)
}

// IsValid 检查EntryHash是否有效
func (h EntryHash) IsValid() bool {
	return len(strings.TrimSpace(string(h))) > 0
}

// Bytes 返回哈希的原始字节
// 如果Base58解码失败，返回nil
func (h EntryHash) Bytes() []byte {
	b, err := base58.Decode(string(h))
	if err != nil {
		return nil
	}
	return b
}

// MarshalJSON 实现JSON序列化
func (h EntryHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON 实现JSON反序列化
func (h *EntryHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = EntryHash(s)
	return nil
}

// String 返回AgentID的字符串表示
func (a AgentID) String() string {
	return string(a)
}

// IsValid 检查AgentID是否有效
func (a AgentID) IsValid() bool {
	return len(strings.TrimSpace(string(a))) > 0
}

// MarshalJSON 实现JSON序列化
func (a AgentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// UnmarshalJSON 实现JSON反序列化
func (a *AgentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = AgentID(s)
	return nil
}
