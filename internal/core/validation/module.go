package validation

import (
	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/pkg/interfaces/dht"
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
	Cascade  dht.Cascade
	Config   *pipelineconfig.Config
	Logger   log.Logger
}

// ModuleOutput 模块产出
type ModuleOutput struct {
	fx.Out

	Resolver   *Resolver
	SysChecker dht.SysChecker
}

// NewModule 构造依赖解析模块
func NewModule(input ModuleInput) ModuleOutput {
	resolver := NewResolver(input.DhtStore, input.Cascade, input.Config.GetFetchTimeout(), input.Logger)
	return ModuleOutput{
		Resolver:   resolver,
		SysChecker: NewChecker(resolver, input.Logger),
	}
}

// Module 依赖解析fx模块
var Module = fx.Module("validation",
	fx.Provide(NewModule),
)
