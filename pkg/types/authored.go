// Package types 定义HashWeft系统的核心数据类型
//
// ✍️ **已授权操作记录 (Authored Op Records)**
//
// 本文件定义授权路径产生的操作在发布账本中的记录形式。
package types

import (
	"encoding/json"
	"fmt"
)

// AuthoredOp 已授权操作的发布账本记录
// Produce阶段写入，Publish阶段读取并更新发布簿记
type AuthoredOp struct {
	// Op 操作本体
	Op DhtOp `json:"op"`

	// PublishCount 已向网络公告的次数
	PublishCount int `json:"publish_count"`

	// LastPublishedAt 最近一次公告时间（Unix毫秒）；从未公告为0
	LastPublishedAt int64 `json:"last_published_at"`
}

// Encode 序列化发布账本记录
func (a *AuthoredOp) Encode() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("序列化已授权操作记录失败: %w", err)
	}
	return data, nil
}

// DecodeAuthoredOp 反序列化发布账本记录
func DecodeAuthoredOp(data []byte) (*AuthoredOp, error) {
	var a AuthoredOp
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("解析已授权操作记录失败: %w", err)
	}
	return &a, nil
}
