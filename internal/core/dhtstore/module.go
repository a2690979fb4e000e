package dhtstore

import (
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"go.uber.org/fx"
)

//=============================================================================
// fx模块定义
//=============================================================================

// ModuleInput 模块依赖
type ModuleInput struct {
	fx.In

	Store  interfaces.BadgerStore
	Logger log.Logger
}

// ModuleOutput 模块产出
type ModuleOutput struct {
	fx.Out

	DhtStore *DhtStore
}

// NewModule 构造分层存储模块
func NewModule(input ModuleInput) (ModuleOutput, error) {
	store, err := New(input.Store, input.Logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{DhtStore: store}, nil
}

// Module DHT分层存储fx模块
var Module = fx.Module("dhtstore",
	fx.Provide(NewModule),
)
