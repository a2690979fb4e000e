package dhtstore

import (
	"context"
	"fmt"

	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// DhtStore 分层存储的聚合入口
// 持有全部子存储与事务管理器，是管线各工作流的唯一存储依赖
type DhtStore struct {
	Elements         *ElementStore
	Meta             *MetaStore
	ValidationLimbo  *Limbo
	IntegrationLimbo *Limbo
	Authored         *AuthoredStore
	Chain            *ChainStore

	txns   *TxnManager
	cache  *ElementCache
	logger log.Logger
}

// New 创建分层存储聚合入口
func New(store interfaces.BadgerStore, logger log.Logger) (*DhtStore, error) {
	cache, err := NewElementCache()
	if err != nil {
		return nil, err
	}

	elements := NewElementStore()
	meta := NewMetaStore()

	return &DhtStore{
		Elements:         elements,
		Meta:             meta,
		ValidationLimbo:  NewValidationLimbo(),
		IntegrationLimbo: NewIntegrationLimbo(),
		Authored:         NewAuthoredStore(),
		Chain:            NewChainStore(elements, meta),
		txns:             NewTxnManager(store, logger),
		cache:            cache,
		logger:           logger.With("module", "dhtstore"),
	}, nil
}

// NewWriteTxn 创建单次使用的写事务
func (s *DhtStore) NewWriteTxn(ctx context.Context) (*WriteTxn, error) {
	return s.txns.NewWriteTxn(ctx)
}

// NewReadTxn 创建只读快照事务
func (s *DhtStore) NewReadTxn(ctx context.Context) (interfaces.BadgerTransaction, error) {
	return s.txns.NewReadTxn(ctx)
}

// GetElement 从指定层读取元素，权威层走读缓存
func (s *DhtStore) GetElement(tx interfaces.BadgerTransaction, tier Tier, hash types.HeaderHash) (*types.Element, error) {
	if tier == TierVault {
		if el, ok := s.cache.Get(hash); ok {
			return el, nil
		}
	}
	el, err := s.Elements.Get(tx, tier, hash)
	if err != nil {
		return nil, err
	}
	if el != nil && tier == TierVault {
		s.cache.Set(hash, el)
	}
	return el, nil
}

// ParkOp 将新到达的操作收入管线
// 元素进入待定层供依赖解析探测，状态记录进入验证中转队列；
// 已在队列或已集成的操作为幂等空操作
func (s *DhtStore) ParkOp(tx interfaces.BadgerTransaction, op *types.DhtOp, now int64) (bool, error) {
	hash := op.Hash()

	integrated, err := s.IsIntegrated(tx, hash)
	if err != nil {
		return false, err
	}
	if integrated {
		return false, nil
	}
	queued, err := s.ValidationLimbo.Has(tx, hash)
	if err != nil {
		return false, err
	}
	if queued {
		return false, nil
	}

	if err := s.Elements.Put(tx, TierPending, op.Element()); err != nil {
		return false, err
	}
	// 待定层的元数据视图与元素视图同步登记，供依赖解析按
	// PendingValidation置信度探测
	if err := s.Meta.RegisterOpMetadata(tx, TierPending, op); err != nil {
		return false, err
	}
	q := &types.QueuedOp{
		Op:         *op,
		Status:     types.OpStatusPending,
		EnqueuedAt: now,
	}
	if err := s.ValidationLimbo.Put(tx, q); err != nil {
		return false, err
	}
	return true, nil
}

// MarkIntegrated 登记操作的集成终态记录
func (s *DhtStore) MarkIntegrated(tx interfaces.BadgerTransaction, q *types.QueuedOp) error {
	data, err := q.Encode()
	if err != nil {
		return err
	}
	if err := tx.Set(integratedKey(q.Op.Hash()), data); err != nil {
		return fmt.Errorf("登记集成终态失败: %w", err)
	}
	return nil
}

// IsIntegrated 检查操作是否已有集成终态记录
func (s *DhtStore) IsIntegrated(tx interfaces.BadgerTransaction, hash types.OpHash) (bool, error) {
	return tx.Exists(integratedKey(hash))
}

// Close 释放存储聚合入口持有的资源
func (s *DhtStore) Close() error {
	return s.cache.Close()
}
