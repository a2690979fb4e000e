// Package integrate 提供集成阶段的工作流
//
// 🏛️ **操作集成 (Op Integration)**
//
// 将通过全部验证的操作写入权威层：元素与元数据入vault，清理judged/
// pending层副本，登记集成终态并发布集成事件。
package integrate

import (
	"context"

	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/pkg/constants/events"
	event "github.com/hashweft/v1/pkg/interfaces/infrastructure/event"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// Workflow 集成工作流
type Workflow struct {
	store      *dhtstore.DhtStore
	downstream *pipeline.TriggerSender
	bus        event.EventBus
	config     *pipelineconfig.Config
	logger     log.Logger
}

// 编译时校验Workflow实现了接口
var _ pipeline.Workflow = (*Workflow)(nil)

// New 创建集成工作流
// downstream为发布阶段的触发发送端
func New(
	store *dhtstore.DhtStore,
	downstream *pipeline.TriggerSender,
	bus event.EventBus,
	config *pipelineconfig.Config,
	logger log.Logger,
) *Workflow {
	return &Workflow{
		store:      store,
		downstream: downstream,
		bus:        bus,
		config:     config,
		logger:     logger.With("module", "workflow", "stage", "integrate"),
	}
}

// Name 返回工作流名
func (w *Workflow) Name() string {
	return "integrate"
}

// Run 执行一轮集成
func (w *Workflow) Run(ctx context.Context, tx interfaces.BadgerTransaction) (pipeline.WorkComplete, error) {
	batch := w.config.GetBatchSize()
	ops, err := w.store.IntegrationLimbo.List(tx, batch)
	if err != nil {
		return pipeline.WorkCompleteComplete, err
	}

	for _, q := range ops {
		if err := w.integrate(tx, q); err != nil {
			return pipeline.WorkCompleteComplete, err
		}
	}

	if len(ops) > 0 {
		w.downstream.Trigger()
	}
	if len(ops) == batch {
		return pipeline.WorkCompleteIncomplete, nil
	}
	return pipeline.WorkCompleteComplete, nil
}

// integrate 集成单个操作到权威层
func (w *Workflow) integrate(tx interfaces.BadgerTransaction, q *types.QueuedOp) error {
	el := q.Op.Element()
	hash := el.HeaderHash()

	if err := w.store.Elements.Put(tx, dhtstore.TierVault, el); err != nil {
		return err
	}
	if err := w.store.Meta.RegisterOpMetadata(tx, dhtstore.TierVault, &q.Op); err != nil {
		return err
	}

	// 清理非权威层副本与judged层元数据索引
	if err := w.store.Elements.Delete(tx, dhtstore.TierJudged, hash); err != nil {
		return err
	}
	if err := w.store.Meta.UnregisterOpMetadata(tx, dhtstore.TierJudged, &q.Op); err != nil {
		return err
	}
	if err := w.store.Elements.Delete(tx, dhtstore.TierPending, hash); err != nil {
		return err
	}

	if err := w.store.IntegrationLimbo.Remove(tx, q.Op.Hash()); err != nil {
		return err
	}
	q.Status = types.OpStatusIntegrated
	if err := w.store.MarkIntegrated(tx, q); err != nil {
		return err
	}

	w.bus.Publish(events.OpIntegrated, &types.OpIntegratedEvent{
		OpHash: q.Op.Hash(),
		Kind:   q.Op.Kind,
		Author: q.Op.Header.Header.Author,
	})
	return nil
}
