// Package authoring fx模块装配
package authoring

import (
	"go.uber.org/fx"

	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// ModuleInput 授权模块依赖
type ModuleInput struct {
	fx.In

	Store  *dhtstore.DhtStore
	Signer dht.Signer
	Graph  *pipeline.Graph
	Logger log.Logger
}

// ModuleOutput 授权模块产出
type ModuleOutput struct {
	fx.Out

	Service *Service
}

// Module 授权fx模块
var Module = fx.Module("authoring",
	fx.Provide(func(in ModuleInput) ModuleOutput {
		return ModuleOutput{
			Service: New(in.Store, in.Signer, in.Graph.Sender(pipeline.StageProduce), in.Logger),
		}
	}),
)
