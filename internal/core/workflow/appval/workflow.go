// Package appval 提供应用验证阶段的工作流
//
// ✅ **应用验证 (Application Validation)**
//
// 对已通过系统验证的操作应用注入的应用级验证策略（原体系中由WASM
// 托管的回调）：接受的操作迁入集成中转队列，拒绝的操作登记终态。
package appval

import (
	"context"
	"fmt"

	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/pkg/constants/events"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	event "github.com/hashweft/v1/pkg/interfaces/infrastructure/event"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// Workflow 应用验证工作流
type Workflow struct {
	store      *dhtstore.DhtStore
	validator  dht.AppValidator
	downstream *pipeline.TriggerSender
	bus        event.EventBus
	config     *pipelineconfig.Config
	logger     log.Logger
}

// 编译时校验Workflow实现了接口
var _ pipeline.Workflow = (*Workflow)(nil)

// New 创建应用验证工作流
// downstream为集成阶段的触发发送端
func New(
	store *dhtstore.DhtStore,
	validator dht.AppValidator,
	downstream *pipeline.TriggerSender,
	bus event.EventBus,
	config *pipelineconfig.Config,
	logger log.Logger,
) *Workflow {
	return &Workflow{
		store:      store,
		validator:  validator,
		downstream: downstream,
		bus:        bus,
		config:     config,
		logger:     logger.With("module", "workflow", "stage", "app_validate"),
	}
}

// Name 返回工作流名
func (w *Workflow) Name() string {
	return "app_validate"
}

// Run 执行一轮应用验证
func (w *Workflow) Run(ctx context.Context, tx interfaces.BadgerTransaction) (pipeline.WorkComplete, error) {
	batch := w.config.GetBatchSize()
	ops, err := w.store.ValidationLimbo.ListByStatus(tx, types.OpStatusSysValidated, batch)
	if err != nil {
		return pipeline.WorkCompleteComplete, err
	}

	advanced := 0
	for _, q := range ops {
		outcome, err := w.validator.Validate(ctx, q.Op.Element())
		if err != nil {
			// 验证方基础设施故障：中止本轮并上报监督方，
			// 事务整体丢弃，操作原地等待下一次触发
			return pipeline.WorkCompleteComplete, fmt.Errorf("应用验证方不可用: op=%s: %w", q.Op.Hash(), err)
		}

		if outcome.Accepted {
			if err := w.accept(tx, q); err != nil {
				return pipeline.WorkCompleteComplete, err
			}
			advanced++
		} else {
			if err := w.reject(tx, q, outcome.Reason); err != nil {
				return pipeline.WorkCompleteComplete, err
			}
		}
	}

	if advanced > 0 {
		w.downstream.Trigger()
	}
	if len(ops) == batch {
		return pipeline.WorkCompleteIncomplete, nil
	}
	return pipeline.WorkCompleteComplete, nil
}

// accept 操作通过全部验证：迁入集成中转队列
func (w *Workflow) accept(tx interfaces.BadgerTransaction, q *types.QueuedOp) error {
	if err := w.store.ValidationLimbo.Remove(tx, q.Op.Hash()); err != nil {
		return err
	}
	q.Status = types.OpStatusValidated
	return w.store.IntegrationLimbo.Put(tx, q)
}

// reject 应用层拒绝：移出队列、清理judged层副本并登记终态
func (w *Workflow) reject(tx interfaces.BadgerTransaction, q *types.QueuedOp, reason string) error {
	w.logger.Warnf("操作被应用验证拒绝: op=%s reason=%s", q.Op.Hash(), reason)

	if err := w.store.ValidationLimbo.Remove(tx, q.Op.Hash()); err != nil {
		return err
	}
	if err := w.store.Elements.Delete(tx, dhtstore.TierJudged, q.Op.HeaderHash()); err != nil {
		return err
	}
	if err := w.store.Meta.UnregisterOpMetadata(tx, dhtstore.TierJudged, &q.Op); err != nil {
		return err
	}
	q.Status = types.OpStatusRejected
	if err := w.store.MarkIntegrated(tx, q); err != nil {
		return err
	}

	w.bus.Publish(events.OpRejected, &types.OpRejectedEvent{
		OpHash: q.Op.Hash(),
		Kind:   q.Op.Kind,
		Reason: reason,
	})
	return nil
}
