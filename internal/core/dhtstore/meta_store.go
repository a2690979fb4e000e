package dhtstore

import (
	"fmt"

	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// MetaStore 分层元数据存储
// 登记三类元数据关系：
// - 链活动：链头已在作者分区登记
// - 条目引用：链头已在其引用条目的分区下登记
// - 链接登记：链接添加链头已在链接基分区下登记
type MetaStore struct{}

// NewMetaStore 创建元数据存储
func NewMetaStore() *MetaStore {
	return &MetaStore{}
}

// RegisterActivity 在指定层登记链活动
func (s *MetaStore) RegisterActivity(tx interfaces.BadgerTransaction, tier Tier, header *types.Header) error {
	key := activityKey(tier, header.Author, header.Hash())
	value := []byte(fmt.Sprintf("%016x", header.Seq))
	if err := tx.Set(key, value); err != nil {
		return fmt.Errorf("登记链活动失败: %w", err)
	}
	return nil
}

// HasActivity 检查指定层是否登记了该作者的该链头
func (s *MetaStore) HasActivity(tx interfaces.BadgerTransaction, tier Tier, agent types.AgentID, header types.HeaderHash) (bool, error) {
	return tx.Exists(activityKey(tier, agent, header))
}

// RegisterHeaderOnEntry 在指定层将链头登记到其引用的条目之下
func (s *MetaStore) RegisterHeaderOnEntry(tx interfaces.BadgerTransaction, tier Tier, entry types.EntryHash, header types.HeaderHash) error {
	if err := tx.Set(headerOnEntryKey(tier, entry, header), []byte{1}); err != nil {
		return fmt.Errorf("登记条目引用失败: %w", err)
	}
	return nil
}

// HasHeaderOnEntry 检查指定层是否在条目之下登记了该链头
func (s *MetaStore) HasHeaderOnEntry(tx interfaces.BadgerTransaction, tier Tier, entry types.EntryHash, header types.HeaderHash) (bool, error) {
	return tx.Exists(headerOnEntryKey(tier, entry, header))
}

// HeadersOnEntry 列出指定层某条目之下登记的全部链头
func (s *MetaStore) HeadersOnEntry(tx interfaces.BadgerTransaction, tier Tier, entry types.EntryHash) ([]types.HeaderHash, error) {
	prefix := headerOnEntryPrefix(tier, entry)
	var headers []types.HeaderHash
	err := tx.IteratePrefix(prefix, func(key, _ []byte) (bool, error) {
		headers = append(headers, types.HeaderHash(key[len(prefix):]))
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("列举条目引用失败: %w", err)
	}
	return headers, nil
}

// RegisterLink 在指定层将链接添加链头登记到链接基之下
func (s *MetaStore) RegisterLink(tx interfaces.BadgerTransaction, tier Tier, header *types.Header) error {
	if !header.IsAddLink() {
		return fmt.Errorf("非链接添加链头不允许登记链接")
	}
	key := linkKey(tier, header.LinkBase, header.Hash())
	if err := tx.Set(key, []byte(header.LinkTarget)); err != nil {
		return fmt.Errorf("登记链接失败: %w", err)
	}
	return nil
}

// HasLink 检查指定层是否在链接基之下登记了该链头
func (s *MetaStore) HasLink(tx interfaces.BadgerTransaction, tier Tier, base types.EntryHash, header types.HeaderHash) (bool, error) {
	return tx.Exists(linkKey(tier, base, header))
}

// LinksOnBase 列出指定层某链接基之下登记的全部链接目标
func (s *MetaStore) LinksOnBase(tx interfaces.BadgerTransaction, tier Tier, base types.EntryHash) ([]types.EntryHash, error) {
	var targets []types.EntryHash
	err := tx.IteratePrefix(linkPrefix(tier, base), func(_, value []byte) (bool, error) {
		targets = append(targets, types.EntryHash(value))
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("列举链接失败: %w", err)
	}
	return targets, nil
}

// RegisterOpMetadata 按操作类别登记对应的元数据关系
// 供判定与集成时统一调用，保证各层的元数据视图与元素视图一致
func (s *MetaStore) RegisterOpMetadata(tx interfaces.BadgerTransaction, tier Tier, op *types.DhtOp) error {
	header := &op.Header.Header
	switch op.Kind {
	case types.OpRegisterAgentActivity:
		return s.RegisterActivity(tx, tier, header)
	case types.OpStoreEntry:
		return s.RegisterHeaderOnEntry(tx, tier, header.EntryHash, header.Hash())
	case types.OpRegisterAddLink:
		return s.RegisterLink(tx, tier, header)
	case types.OpStoreElement:
		// 存储元素本身不产生元数据关系
		return nil
	default:
		return fmt.Errorf("未知的操作类别: %s", op.Kind)
	}
}

// UnregisterOpMetadata 按操作类别注销对应的元数据关系
// 操作离开某一层（晋升、拒绝、集成）时调用，防止该层残留陈旧索引
func (s *MetaStore) UnregisterOpMetadata(tx interfaces.BadgerTransaction, tier Tier, op *types.DhtOp) error {
	header := &op.Header.Header
	switch op.Kind {
	case types.OpRegisterAgentActivity:
		return tx.Delete(activityKey(tier, header.Author, header.Hash()))
	case types.OpStoreEntry:
		return tx.Delete(headerOnEntryKey(tier, header.EntryHash, header.Hash()))
	case types.OpRegisterAddLink:
		return tx.Delete(linkKey(tier, header.LinkBase, header.Hash()))
	case types.OpStoreElement:
		return nil
	default:
		return fmt.Errorf("未知的操作类别: %s", op.Kind)
	}
}
