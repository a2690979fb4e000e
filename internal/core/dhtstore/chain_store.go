package dhtstore

import (
	"encoding/json"
	"fmt"

	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// ChainHead 链头指针
// 记录某代理源链的最新链头与序号
type ChainHead struct {
	Header types.HeaderHash `json:"header"`
	Seq    uint64           `json:"seq"`
}

// ChainStore 本地源链存储
// 维护本节点代理的只追加源链：序号索引 + 链头指针；
// 链头对应的元素写入权威层（自产数据本地视为已证实）
type ChainStore struct {
	elements *ElementStore
	meta     *MetaStore
}

// NewChainStore 创建源链存储
func NewChainStore(elements *ElementStore, meta *MetaStore) *ChainStore {
	return &ChainStore{elements: elements, meta: meta}
}

// Head 读取链头指针
// 链为空时返回nil指针和nil错误
func (s *ChainStore) Head(tx interfaces.BadgerTransaction, agent types.AgentID) (*ChainHead, error) {
	data, err := tx.Get(chainHeadKey(agent))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var head ChainHead
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("解析链头指针失败: %w", err)
	}
	return &head, nil
}

// Append 将元素追加到源链
// 校验只追加约束（序号连续、前驱一致），通过后写入权威层并更新链头指针
func (s *ChainStore) Append(tx interfaces.BadgerTransaction, el *types.Element) error {
	header := &el.SignedHeader.Header
	if err := header.Validate(); err != nil {
		return fmt.Errorf("追加源链的链头非法: %w", err)
	}

	head, err := s.Head(tx, header.Author)
	if err != nil {
		return err
	}
	if head == nil {
		if !header.IsGenesis() {
			return fmt.Errorf("空链只允许追加创世链头")
		}
	} else {
		if header.Seq != head.Seq+1 {
			return fmt.Errorf("源链序号不连续: 期望%d, 实际%d", head.Seq+1, header.Seq)
		}
		if header.PrevHeader != head.Header {
			return fmt.Errorf("源链前驱不一致: 期望%s, 实际%s", head.Header, header.PrevHeader)
		}
	}

	hash := header.Hash()
	if err := s.elements.Put(tx, TierVault, el); err != nil {
		return err
	}
	if err := s.meta.RegisterActivity(tx, TierVault, header); err != nil {
		return err
	}
	if err := tx.Set(chainSeqKey(header.Author, header.Seq), []byte(hash)); err != nil {
		return fmt.Errorf("写入源链序号索引失败: %w", err)
	}

	newHead := ChainHead{Header: hash, Seq: header.Seq}
	headData, err := json.Marshal(&newHead)
	if err != nil {
		return fmt.Errorf("序列化链头指针失败: %w", err)
	}
	if err := tx.Set(chainHeadKey(header.Author), headData); err != nil {
		return fmt.Errorf("更新链头指针失败: %w", err)
	}
	return nil
}

// HeaderAt 按序号读取链头哈希
func (s *ChainStore) HeaderAt(tx interfaces.BadgerTransaction, agent types.AgentID, seq uint64) (types.HeaderHash, error) {
	data, err := tx.Get(chainSeqKey(agent, seq))
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}
	return types.HeaderHash(data), nil
}
