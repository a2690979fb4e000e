// Package cascade 提供DHT网络侧能力
//
// 🌐 **线上编码 (Wire Encoding)**
//
// 本文件定义级联检索与操作传播的线上信封。核心数据类型本身以
// 规范JSON做内容寻址，线上信封沿用同一编码，避免双编码体系。
package cascade

import (
	"encoding/json"
	"fmt"

	"github.com/hashweft/v1/pkg/types"
)

// 检索事实类别
const (
	factElement = "element"
	factHeader  = "header"
	factEntry   = "entry"
)

// fetchRequest 级联检索请求
type fetchRequest struct {
	// Fact 请求的事实类别：element/header/entry
	Fact string `json:"fact"`

	// Hash 内容哈希（Base58）
	Hash string `json:"hash"`
}

// validate 检查请求结构
func (r *fetchRequest) validate() error {
	switch r.Fact {
	case factElement, factHeader, factEntry:
	default:
		return fmt.Errorf("未知的检索事实类别: %s", r.Fact)
	}
	if len(r.Hash) == 0 {
		return fmt.Errorf("检索请求缺少内容哈希")
	}
	return nil
}

// fetchResponse 级联检索应答
// 三类事实统一以元素形式应答；Header请求取元素中的带签名链头，
// Entry请求要求元素携带匹配条目
type fetchResponse struct {
	// Found 本节点是否持有
	Found bool `json:"found"`

	// Element 持有时的完整元素
	Element *types.Element `json:"element,omitempty"`
}

// opEnvelope 操作传播信封
type opEnvelope struct {
	// Op 被传播的操作
	Op *types.DhtOp `json:"op"`
}

// encodeOpEnvelope 序列化操作传播信封
func encodeOpEnvelope(op *types.DhtOp) ([]byte, error) {
	data, err := json.Marshal(&opEnvelope{Op: op})
	if err != nil {
		return nil, fmt.Errorf("序列化操作信封失败: %w", err)
	}
	return data, nil
}

// decodeOpEnvelope 反序列化操作传播信封
func decodeOpEnvelope(data []byte) (*types.DhtOp, error) {
	var envelope opEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("解析操作信封失败: %w", err)
	}
	if envelope.Op == nil {
		return nil, fmt.Errorf("操作信封缺少操作本体")
	}
	return envelope.Op, nil
}
