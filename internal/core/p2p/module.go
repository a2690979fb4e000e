// Package p2p fx模块装配
package p2p

import (
	"context"

	"go.uber.org/fx"

	nodeconfig "github.com/hashweft/v1/internal/config/node"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// ModuleInput 网络模块依赖
type ModuleInput struct {
	fx.In

	Config *nodeconfig.Config
	Logger log.Logger
}

// ModuleOutput 网络模块产出
type ModuleOutput struct {
	fx.Out

	Identity *Identity
	Signer   dht.Signer
	Node     *Node
}

// Module 网络fx模块
var Module = fx.Module("p2p",
	fx.Provide(func(in ModuleInput, lc fx.Lifecycle) (ModuleOutput, error) {
		identity, err := NewIdentity(in.Config)
		if err != nil {
			return ModuleOutput{}, err
		}
		node, err := NewNode(context.Background(), in.Config, identity, in.Logger)
		if err != nil {
			return ModuleOutput{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return node.Close()
			},
		})
		return ModuleOutput{
			Identity: identity,
			Signer:   identity,
			Node:     node,
		}, nil
	}),
)
