package dhtstore

import (
	"fmt"
	"sort"

	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// Limbo 操作中转队列
// 验证中转（validation limbo）与集成中转（integration limbo）共用同一实现，
// 以键前缀区分；队列内容为操作的管线状态记录
type Limbo struct {
	name     string
	keyFn    func(types.OpHash) []byte
	prefixFn []byte
}

// NewValidationLimbo 创建验证中转队列
// 收纳等待系统验证/应用验证的操作
func NewValidationLimbo() *Limbo {
	return &Limbo{name: "validation", keyFn: validationLimboKey, prefixFn: validationLimboPrefix}
}

// NewIntegrationLimbo 创建集成中转队列
// 收纳已通过全部验证、等待写入权威层的操作
func NewIntegrationLimbo() *Limbo {
	return &Limbo{name: "integration", keyFn: integrationLimboKey, prefixFn: integrationLimboPrefix}
}

// Put 写入或更新状态记录
func (l *Limbo) Put(tx interfaces.BadgerTransaction, q *types.QueuedOp) error {
	data, err := q.Encode()
	if err != nil {
		return err
	}
	if err := tx.Set(l.keyFn(q.Op.Hash()), data); err != nil {
		return fmt.Errorf("写入中转队列失败: %w", err)
	}
	return nil
}

// Get 读取状态记录
// 记录不存在时返回nil记录和nil错误
func (l *Limbo) Get(tx interfaces.BadgerTransaction, hash types.OpHash) (*types.QueuedOp, error) {
	data, err := tx.Get(l.keyFn(hash))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeQueuedOp(data)
}

// Has 检查操作是否在队列中
func (l *Limbo) Has(tx interfaces.BadgerTransaction, hash types.OpHash) (bool, error) {
	return tx.Exists(l.keyFn(hash))
}

// Remove 移除状态记录
func (l *Limbo) Remove(tx interfaces.BadgerTransaction, hash types.OpHash) error {
	return tx.Delete(l.keyFn(hash))
}

// List 按入队时间排序列出至多limit条状态记录
// limit为0时不限制数量
func (l *Limbo) List(tx interfaces.BadgerTransaction, limit int) ([]*types.QueuedOp, error) {
	var ops []*types.QueuedOp
	err := tx.IteratePrefix(l.prefixFn, func(_, value []byte) (bool, error) {
		q, err := types.DecodeQueuedOp(value)
		if err != nil {
			return false, err
		}
		ops = append(ops, q)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("列举中转队列失败: %w", err)
	}

	// 键序即哈希序，按入队时间重排保证公平调度
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].EnqueuedAt < ops[j].EnqueuedAt
	})
	observeLimboDepth(l.name, len(ops))
	if limit > 0 && len(ops) > limit {
		ops = ops[:limit]
	}
	return ops, nil
}

// ListByStatus 列出指定状态的记录
func (l *Limbo) ListByStatus(tx interfaces.BadgerTransaction, status types.OpStatus, limit int) ([]*types.QueuedOp, error) {
	all, err := l.List(tx, 0)
	if err != nil {
		return nil, err
	}
	var ops []*types.QueuedOp
	for _, q := range all {
		if q.Status == status {
			ops = append(ops, q)
			if limit > 0 && len(ops) == limit {
				break
			}
		}
	}
	return ops, nil
}

// Count 统计队列长度
func (l *Limbo) Count(tx interfaces.BadgerTransaction) (int, error) {
	count := 0
	err := tx.IteratePrefix(l.prefixFn, func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("统计中转队列失败: %w", err)
	}
	return count, nil
}
