package dhtstore

import (
	"encoding/json"
	"fmt"

	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// ElementStore 分层元素存储
// 以链头哈希索引元素，以条目哈希索引条目；两者均内容寻址且不可变
type ElementStore struct{}

// NewElementStore 创建元素存储
func NewElementStore() *ElementStore {
	return &ElementStore{}
}

// Put 将元素写入指定层
// 元素携带条目时同时写入条目索引，供按条目哈希检索
func (s *ElementStore) Put(tx interfaces.BadgerTransaction, tier Tier, el *types.Element) error {
	data, err := json.Marshal(el)
	if err != nil {
		return fmt.Errorf("序列化元素失败: %w", err)
	}
	if err := tx.Set(elementKey(tier, el.HeaderHash()), data); err != nil {
		return fmt.Errorf("写入元素失败: %w", err)
	}

	if el.HasEntry() {
		entryData, err := json.Marshal(el.Entry)
		if err != nil {
			return fmt.Errorf("序列化条目失败: %w", err)
		}
		if err := tx.Set(entryKey(tier, el.Entry.Hash()), entryData); err != nil {
			return fmt.Errorf("写入条目失败: %w", err)
		}
	}
	return nil
}

// Get 从指定层读取元素
// 元素不存在时返回nil元素和nil错误
func (s *ElementStore) Get(tx interfaces.BadgerTransaction, tier Tier, hash types.HeaderHash) (*types.Element, error) {
	data, err := tx.Get(elementKey(tier, hash))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var el types.Element
	if err := json.Unmarshal(data, &el); err != nil {
		return nil, fmt.Errorf("解析元素失败: %w", err)
	}
	return &el, nil
}

// GetHeader 从指定层读取链头
// 元素存在时其链头必然存在，不单独建链头索引
func (s *ElementStore) GetHeader(tx interfaces.BadgerTransaction, tier Tier, hash types.HeaderHash) (*types.SignedHeader, error) {
	el, err := s.Get(tx, tier, hash)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	return &el.SignedHeader, nil
}

// GetEntry 从指定层读取条目
func (s *ElementStore) GetEntry(tx interfaces.BadgerTransaction, tier Tier, hash types.EntryHash) (*types.Entry, error) {
	data, err := tx.Get(entryKey(tier, hash))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var entry types.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("解析条目失败: %w", err)
	}
	return &entry, nil
}

// Has 检查指定层是否持有元素
func (s *ElementStore) Has(tx interfaces.BadgerTransaction, tier Tier, hash types.HeaderHash) (bool, error) {
	return tx.Exists(elementKey(tier, hash))
}

// Delete 从指定层移除元素
// 仅用于判定后清理pending层；不清理条目索引（条目可能被其他元素共享）
func (s *ElementStore) Delete(tx interfaces.BadgerTransaction, tier Tier, hash types.HeaderHash) error {
	return tx.Delete(elementKey(tier, hash))
}
