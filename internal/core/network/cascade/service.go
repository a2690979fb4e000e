// Package cascade 级联检索服务
//
// 🌐 **级联检索 (Cascade Retrieval)**
//
// 流式协议的双端实现：
// - 服务端：应答远端的事实检索请求，只供给vault/judged两个可信层
// - 客户端：实现dht.Cascade，经Kademlia提供者记录定位持有方后拉取
package cascade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multihash"

	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/p2p"
	"github.com/hashweft/v1/pkg/constants/protocols"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	"github.com/hashweft/v1/pkg/types"
)

// 单次检索最多询问的提供者数
const fetchProviderLimit = 8

// 单条流的读写期限
const streamDeadline = 30 * time.Second

// servingTiers 对外供给的存储层
// pending层的事实未经本节点验证，不对网络供给
var servingTiers = []dhtstore.Tier{dhtstore.TierVault, dhtstore.TierJudged}

// Service 级联检索服务
type Service struct {
	node   *p2p.Node
	store  *dhtstore.DhtStore
	logger log.Logger
}

// 静态断言：Service实现级联检索接口
var _ dht.Cascade = (*Service)(nil)

// New 创建级联检索服务并注册流处理器
func New(node *p2p.Node, store *dhtstore.DhtStore, logger log.Logger) *Service {
	s := &Service{
		node:   node,
		store:  store,
		logger: logger.With("module", "cascade"),
	}
	node.Host.SetStreamHandler(protocol.ID(protocols.FetchProtocol), s.handleFetch)
	return s
}

// RetrieveElement 按链头哈希检索完整元素
func (s *Service) RetrieveElement(ctx context.Context, hash types.HeaderHash) (*types.Element, error) {
	el, err := s.fetch(ctx, factElement, hash.String(), hash.Bytes())
	if err != nil || el == nil {
		return nil, err
	}
	if el.HeaderHash() != hash {
		return nil, fmt.Errorf("远端应答的元素哈希不匹配: 期望%s", hash)
	}
	return el, nil
}

// RetrieveHeader 按链头哈希检索带签名链头
func (s *Service) RetrieveHeader(ctx context.Context, hash types.HeaderHash) (*types.SignedHeader, error) {
	el, err := s.fetch(ctx, factHeader, hash.String(), hash.Bytes())
	if err != nil || el == nil {
		return nil, err
	}
	if el.HeaderHash() != hash {
		return nil, fmt.Errorf("远端应答的链头哈希不匹配: 期望%s", hash)
	}
	return &el.SignedHeader, nil
}

// RetrieveEntry 按条目哈希检索携带该条目的元素
func (s *Service) RetrieveEntry(ctx context.Context, hash types.EntryHash) (*types.Element, error) {
	el, err := s.fetch(ctx, factEntry, hash.String(), hash.Bytes())
	if err != nil || el == nil {
		return nil, err
	}
	if !el.HasEntry() || el.Entry.Hash() != hash {
		return nil, fmt.Errorf("远端应答的条目哈希不匹配: 期望%s", hash)
	}
	return el, nil
}

// fetch 经提供者记录定位持有方并逐个拉取
// 所有提供者均未持有时返回 (nil, nil)
func (s *Service) fetch(ctx context.Context, fact, hash string, digest []byte) (*types.Element, error) {
	c, err := contentCID(digest)
	if err != nil {
		return nil, err
	}

	providers := s.node.DHT.FindProvidersAsync(ctx, c, fetchProviderLimit)
	for provider := range providers {
		if provider.ID == s.node.Host.ID() {
			continue
		}
		el, err := s.fetchFromPeer(ctx, provider.ID, fact, hash)
		if err != nil {
			s.logger.Debugf("向提供者拉取失败: peer=%s fact=%s: %v", provider.ID, fact, err)
			continue
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, nil
}

// fetchFromPeer 向单个对端发起一次检索
// 对端未持有时返回 (nil, nil)
func (s *Service) fetchFromPeer(ctx context.Context, target peer.ID, fact, hash string) (*types.Element, error) {
	stream, err := s.node.Host.NewStream(ctx, target, protocol.ID(protocols.FetchProtocol))
	if err != nil {
		return nil, fmt.Errorf("打开检索流失败: %w", err)
	}
	defer func() { _ = stream.Close() }()
	_ = stream.SetDeadline(time.Now().Add(streamDeadline))

	request := fetchRequest{Fact: fact, Hash: hash}
	if err := json.NewEncoder(stream).Encode(&request); err != nil {
		_ = stream.Reset()
		return nil, fmt.Errorf("写入检索请求失败: %w", err)
	}
	if err := stream.CloseWrite(); err != nil {
		_ = stream.Reset()
		return nil, fmt.Errorf("关闭写端失败: %w", err)
	}

	var response fetchResponse
	if err := json.NewDecoder(stream).Decode(&response); err != nil {
		_ = stream.Reset()
		return nil, fmt.Errorf("解析检索应答失败: %w", err)
	}
	if !response.Found {
		return nil, nil
	}
	if response.Element == nil {
		return nil, fmt.Errorf("应答声称持有但缺少元素")
	}
	return response.Element, nil
}

// handleFetch 应答入站检索请求
func (s *Service) handleFetch(stream network.Stream) {
	defer func() { _ = stream.Close() }()
	_ = stream.SetDeadline(time.Now().Add(streamDeadline))

	var request fetchRequest
	if err := json.NewDecoder(stream).Decode(&request); err != nil {
		s.logger.Debugf("解析检索请求失败: peer=%s: %v", stream.Conn().RemotePeer(), err)
		_ = stream.Reset()
		return
	}
	if err := request.validate(); err != nil {
		s.logger.Debugf("检索请求非法: peer=%s: %v", stream.Conn().RemotePeer(), err)
		_ = stream.Reset()
		return
	}

	el, err := s.lookupLocal(&request)
	if err != nil {
		s.logger.Warnf("本地检索失败: fact=%s hash=%s: %v", request.Fact, request.Hash, err)
		_ = stream.Reset()
		return
	}

	response := fetchResponse{Found: el != nil, Element: el}
	if err := json.NewEncoder(stream).Encode(&response); err != nil {
		s.logger.Debugf("写入检索应答失败: peer=%s: %v", stream.Conn().RemotePeer(), err)
		_ = stream.Reset()
	}
}

// lookupLocal 在可信层中查找被请求的事实
func (s *Service) lookupLocal(request *fetchRequest) (*types.Element, error) {
	rtx, err := s.store.NewReadTxn(context.Background())
	if err != nil {
		return nil, err
	}
	defer rtx.Discard()

	for _, tier := range servingTiers {
		switch request.Fact {
		case factElement, factHeader:
			el, err := s.store.Elements.Get(rtx, tier, types.HeaderHash(request.Hash))
			if err != nil {
				return nil, err
			}
			if el != nil {
				return el, nil
			}
		case factEntry:
			// 经条目元数据定位携带该条目的链头
			headers, err := s.store.Meta.HeadersOnEntry(rtx, tier, types.EntryHash(request.Hash))
			if err != nil {
				return nil, err
			}
			for _, header := range headers {
				el, err := s.store.Elements.Get(rtx, tier, header)
				if err != nil {
					return nil, err
				}
				if el != nil && el.HasEntry() {
					return el, nil
				}
			}
		}
	}
	return nil, nil
}

// contentCID 由内容哈希构造提供者记录的CID
func contentCID(digest []byte) (cid.Cid, error) {
	if len(digest) == 0 {
		return cid.Undef, fmt.Errorf("内容哈希为空，无法构造CID")
	}
	mh, err := multihash.Encode(digest, multihash.SHA2_256)
	if err != nil {
		return cid.Undef, fmt.Errorf("编码multihash失败: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
