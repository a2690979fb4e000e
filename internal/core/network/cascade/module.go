// Package cascade fx模块装配
package cascade

import (
	"context"

	"go.uber.org/fx"

	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/p2p"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/pkg/constants/protocols"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// ModuleInput 网络侧模块依赖
type ModuleInput struct {
	fx.In

	Node   *p2p.Node
	Store  *dhtstore.DhtStore
	Graph  *pipeline.Graph
	Logger log.Logger
}

// ModuleOutput 网络侧模块产出
type ModuleOutput struct {
	fx.Out

	Cascade   dht.Cascade
	Publisher dht.Publisher
	Gossip    *Gossip
}

// Module 网络侧fx模块
// 传播主题只加入一次，公告方与订阅方共享同一个主题句柄
var Module = fx.Module("cascade",
	fx.Provide(func(in ModuleInput, lc fx.Lifecycle) (ModuleOutput, error) {
		topic, err := in.Node.PubSub.Join(protocols.OpGossipTopic)
		if err != nil {
			return ModuleOutput{}, err
		}

		service := New(in.Node, in.Store, in.Logger)
		publisher := NewPublisher(in.Node, topic, in.Logger)
		ingestor := NewIngestor(in.Store, in.Graph.Sender(pipeline.StageSysValidate), in.Logger)
		gossip := NewGossip(in.Node, topic, ingestor, in.Logger)

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return gossip.Start()
			},
			OnStop: func(ctx context.Context) error {
				gossip.Stop()
				return topic.Close()
			},
		})

		return ModuleOutput{
			Cascade:   service,
			Publisher: publisher,
			Gossip:    gossip,
		}, nil
	}),
)
