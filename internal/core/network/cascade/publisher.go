// Package cascade 操作公告
//
// 🌐 **操作公告 (Op Publishing)**
//
// Publish工作流经本实现向网络公告已授权操作：
// - gossip广播：操作信封进入传播主题，由各节点的入站处理器接收
// - 提供者记录：在Kademlia登记本节点为操作基哈希的提供者，
//   供级联检索定位持有方
package cascade

import (
	"context"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"

	"github.com/hashweft/v1/internal/core/p2p"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	"github.com/hashweft/v1/pkg/types"
)

// Publisher 操作公告实现
type Publisher struct {
	node   *p2p.Node
	topic  *pubsub.Topic
	logger log.Logger
}

// 静态断言：Publisher实现操作公告接口
var _ dht.Publisher = (*Publisher)(nil)

// NewPublisher 创建操作公告实现
// topic为已加入的传播主题，与gossip入站处理器共享
func NewPublisher(node *p2p.Node, topic *pubsub.Topic, logger log.Logger) *Publisher {
	return &Publisher{
		node:   node,
		topic:  topic,
		logger: logger.With("module", "publisher"),
	}
}

// PublishOp 公告单个操作
// gossip广播失败视为本轮公告失败；提供者记录失败只记录，
// 重发机制会在下一轮重试
func (p *Publisher) PublishOp(ctx context.Context, op *types.DhtOp) error {
	data, err := encodeOpEnvelope(op)
	if err != nil {
		return err
	}
	if err := p.topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("广播操作失败: %w", err)
	}

	if err := p.provide(ctx, op); err != nil {
		p.logger.Warnf("登记提供者记录失败: op=%s: %v", op.Hash(), err)
	}
	return nil
}

// provide 按操作基哈希登记提供者记录
func (p *Publisher) provide(ctx context.Context, op *types.DhtOp) error {
	c, err := contentCID(basisDigest(op))
	if err != nil {
		return err
	}
	return p.node.DHT.Provide(ctx, c, true)
}

// basisDigest 返回操作的基哈希原始字节
// 基哈希决定操作归属的分区：元素与链活动归链头，条目归条目，
// 链接归链接基
func basisDigest(op *types.DhtOp) []byte {
	switch op.Kind {
	case types.OpStoreEntry:
		return op.Header.Header.EntryHash.Bytes()
	case types.OpRegisterAddLink:
		return op.Header.Header.LinkBase.Bytes()
	default:
		return op.HeaderHash().Bytes()
	}
}
