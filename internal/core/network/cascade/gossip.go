// Package cascade gossip入站处理
//
// 🌐 **操作入站 (Op Ingestion)**
//
// 订阅操作传播主题，将远端公告的操作停靠到pending层并唤醒
// 系统验证阶段。停靠是幂等的：重复传播的操作不会二次入队。
package cascade

import (
	"context"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"

	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/p2p"
	"github.com/hashweft/v1/internal/core/pipeline"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// Ingestor 操作入站处理器
// 独立于订阅循环，便于直接对信封字节做停靠处理
type Ingestor struct {
	store  *dhtstore.DhtStore
	sysval *pipeline.TriggerSender
	logger log.Logger
}

// NewIngestor 创建操作入站处理器
func NewIngestor(store *dhtstore.DhtStore, sysval *pipeline.TriggerSender, logger log.Logger) *Ingestor {
	return &Ingestor{
		store:  store,
		sysval: sysval,
		logger: logger.With("module", "gossip"),
	}
}

// HandleMessage 处理一条传播消息
// 结构非法的信封丢弃并返回错误；停靠成功且为新操作时触发系统验证
func (i *Ingestor) HandleMessage(ctx context.Context, data []byte) error {
	op, err := decodeOpEnvelope(data)
	if err != nil {
		return err
	}
	if err := op.Validate(); err != nil {
		return err
	}

	wtx, err := i.store.NewWriteTxn(ctx)
	if err != nil {
		return err
	}
	defer wtx.Discard()

	parked, err := i.store.ParkOp(wtx.Txn(), op, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	if err := wtx.Commit(); err != nil {
		return err
	}

	if parked {
		i.logger.Debugf("入站操作已停靠: op=%s kind=%s", op.Hash(), op.Kind)
		i.sysval.Trigger()
	}
	return nil
}

// Gossip 传播主题的订阅循环
type Gossip struct {
	node     *p2p.Node
	topic    *pubsub.Topic
	ingestor *Ingestor
	logger   log.Logger

	sub    *pubsub.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGossip 创建订阅循环
func NewGossip(node *p2p.Node, topic *pubsub.Topic, ingestor *Ingestor, logger log.Logger) *Gossip {
	return &Gossip{
		node:     node,
		topic:    topic,
		ingestor: ingestor,
		logger:   logger.With("module", "gossip"),
	}
}

// Start 开始消费传播消息
func (g *Gossip) Start() error {
	sub, err := g.topic.Subscribe()
	if err != nil {
		return err
	}
	g.sub = sub

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.loop(ctx)
	return nil
}

// loop 订阅消费循环
func (g *Gossip) loop(ctx context.Context) {
	defer close(g.done)
	for {
		msg, err := g.sub.Next(ctx)
		if err != nil {
			// 订阅取消或上下文结束
			return
		}
		if msg.ReceivedFrom == g.node.Host.ID() {
			continue
		}
		if err := g.ingestor.HandleMessage(ctx, msg.Data); err != nil {
			g.logger.Warnf("入站操作处理失败: peer=%s: %v", msg.ReceivedFrom, err)
		}
	}
}

// Stop 停止消费
func (g *Gossip) Stop() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	g.sub.Cancel()
	<-g.done
}
