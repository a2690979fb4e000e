package dhtstore

import (
	"fmt"
	"sort"

	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// AuthoredStore 自产操作存储
// 记录本节点代理产生、待发布到网络的操作及其发布进度
type AuthoredStore struct{}

// NewAuthoredStore 创建自产操作存储
func NewAuthoredStore() *AuthoredStore {
	return &AuthoredStore{}
}

// Put 写入或更新自产操作记录
func (s *AuthoredStore) Put(tx interfaces.BadgerTransaction, a *types.AuthoredOp) error {
	data, err := a.Encode()
	if err != nil {
		return err
	}
	if err := tx.Set(authoredKey(a.Op.Hash()), data); err != nil {
		return fmt.Errorf("写入自产操作失败: %w", err)
	}
	return nil
}

// Get 读取自产操作记录
// 记录不存在时返回nil记录和nil错误
func (s *AuthoredStore) Get(tx interfaces.BadgerTransaction, hash types.OpHash) (*types.AuthoredOp, error) {
	data, err := tx.Get(authoredKey(hash))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeAuthoredOp(data)
}

// List 按上次发布时间升序列出至多limit条记录
// 从未发布的记录排在最前，保证新产生的操作优先发布
func (s *AuthoredStore) List(tx interfaces.BadgerTransaction, limit int) ([]*types.AuthoredOp, error) {
	var ops []*types.AuthoredOp
	err := tx.IteratePrefix(authoredPrefix, func(_, value []byte) (bool, error) {
		a, err := types.DecodeAuthoredOp(value)
		if err != nil {
			return false, err
		}
		ops = append(ops, a)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("列举自产操作失败: %w", err)
	}

	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].LastPublishedAt < ops[j].LastPublishedAt
	})
	if limit > 0 && len(ops) > limit {
		ops = ops[:limit]
	}
	return ops, nil
}

// Cursor 读取产出游标：下一个待派生操作的链序号
// 从未派生过时返回0
func (s *AuthoredStore) Cursor(tx interfaces.BadgerTransaction, agent types.AgentID) (uint64, error) {
	data, err := tx.Get(produceCursorKey(agent))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	var seq uint64
	if _, err := fmt.Sscanf(string(data), "%016x", &seq); err != nil {
		return 0, fmt.Errorf("解析产出游标失败: %w", err)
	}
	return seq, nil
}

// SetCursor 更新产出游标
func (s *AuthoredStore) SetCursor(tx interfaces.BadgerTransaction, agent types.AgentID, seq uint64) error {
	if err := tx.Set(produceCursorKey(agent), []byte(fmt.Sprintf("%016x", seq))); err != nil {
		return fmt.Errorf("更新产出游标失败: %w", err)
	}
	return nil
}

// MarkPublished 登记一次成功发布
func (s *AuthoredStore) MarkPublished(tx interfaces.BadgerTransaction, hash types.OpHash, now int64) error {
	a, err := s.Get(tx, hash)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("自产操作不存在: %s", hash)
	}
	a.PublishCount++
	a.LastPublishedAt = now
	return s.Put(tx, a)
}
