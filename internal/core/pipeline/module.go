package pipeline

import (
	"github.com/hashweft/v1/internal/core/dhtstore"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
)

//=============================================================================
// fx模块定义
//=============================================================================

// ModuleInput 模块依赖
type ModuleInput struct {
	fx.In

	DhtStore *dhtstore.DhtStore
	Logger   log.Logger
}

// ModuleOutput 模块产出
type ModuleOutput struct {
	fx.Out

	Graph *Graph
}

// NewModule 构造管线图模块
// 工作流注入与启动由应用装配层负责
func NewModule(input ModuleInput) ModuleOutput {
	return ModuleOutput{
		Graph: NewGraph(input.DhtStore, input.Logger),
	}
}

// Module 管线调度fx模块
var Module = fx.Module("pipeline",
	fx.Provide(NewModule),
)
