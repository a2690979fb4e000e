// Package sysval 提供系统验证阶段的工作流
//
// ✅ **系统验证 (System Validation)**
//
// 排空验证中转队列中pending状态的操作：依赖解析与系统级校验通过的
// 操作晋升到judged层并标记sys_validated；依赖未就绪的操作重新排队
// 等待后续gossip补齐；终局失败的操作被拒绝并登记终态。
package sysval

import (
	"context"
	"fmt"

	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/internal/core/validation"
	"github.com/hashweft/v1/pkg/constants/events"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	event "github.com/hashweft/v1/pkg/interfaces/infrastructure/event"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// Workflow 系统验证工作流
type Workflow struct {
	store      *dhtstore.DhtStore
	checker    dht.SysChecker
	downstream *pipeline.TriggerSender
	bus        event.EventBus
	config     *pipelineconfig.Config
	logger     log.Logger
}

// 编译时校验Workflow实现了接口
var _ pipeline.Workflow = (*Workflow)(nil)

// New 创建系统验证工作流
// downstream为应用验证阶段的触发发送端
func New(
	store *dhtstore.DhtStore,
	checker dht.SysChecker,
	downstream *pipeline.TriggerSender,
	bus event.EventBus,
	config *pipelineconfig.Config,
	logger log.Logger,
) *Workflow {
	return &Workflow{
		store:      store,
		checker:    checker,
		downstream: downstream,
		bus:        bus,
		config:     config,
		logger:     logger.With("module", "workflow", "stage", "sys_validate"),
	}
}

// Name 返回工作流名
func (w *Workflow) Name() string {
	return "sys_validate"
}

// Run 执行一轮系统验证
func (w *Workflow) Run(ctx context.Context, tx interfaces.BadgerTransaction) (pipeline.WorkComplete, error) {
	batch := w.config.GetBatchSize()
	ops, err := w.store.ValidationLimbo.ListByStatus(tx, types.OpStatusPending, batch)
	if err != nil {
		return pipeline.WorkCompleteComplete, err
	}

	advanced := 0
	settled := 0
	for _, q := range ops {
		checkErr := w.checker.Check(ctx, &q.Op)
		switch {
		case checkErr == nil:
			if err := w.promote(tx, q); err != nil {
				return pipeline.WorkCompleteComplete, err
			}
			advanced++

		case validation.IsRecoverable(checkErr):
			if err := w.requeue(tx, q, checkErr); err != nil {
				return pipeline.WorkCompleteComplete, err
			}

		default:
			// 终局失败：DepMissing、Rejected以及未分类错误一律拒绝
			if err := w.reject(tx, q, checkErr); err != nil {
				return pipeline.WorkCompleteComplete, err
			}
			settled++
		}
	}

	if advanced > 0 {
		w.downstream.Trigger()
	}
	// 满批且本轮有实际进展才自触发继续排空；整批都在等依赖时
	// 报告Complete，留待gossip/produce带来新数据再唤醒，
	// 避免零进展空转烧尽尝试配额
	if len(ops) == batch && advanced+settled > 0 {
		return pipeline.WorkCompleteIncomplete, nil
	}
	return pipeline.WorkCompleteComplete, nil
}

// promote 操作通过系统验证：元素晋升judged层，状态推进到sys_validated
func (w *Workflow) promote(tx interfaces.BadgerTransaction, q *types.QueuedOp) error {
	el := q.Op.Element()
	if err := w.store.Elements.Put(tx, dhtstore.TierJudged, el); err != nil {
		return err
	}
	if err := w.store.Meta.RegisterOpMetadata(tx, dhtstore.TierJudged, &q.Op); err != nil {
		return err
	}
	if err := w.store.Elements.Delete(tx, dhtstore.TierPending, el.HeaderHash()); err != nil {
		return err
	}
	if err := w.store.Meta.UnregisterOpMetadata(tx, dhtstore.TierPending, &q.Op); err != nil {
		return err
	}

	q.Status = types.OpStatusSysValidated
	return w.store.ValidationLimbo.Put(tx, q)
}

// requeue 依赖未就绪：记一次尝试后留在队列等待新数据到达
// 配置了尝试上限且超限时转为终局拒绝，避免无限重排队
func (w *Workflow) requeue(tx interfaces.BadgerTransaction, q *types.QueuedOp, cause error) error {
	q.Attempts++
	maxAttempts := w.config.GetMaxDepAttempts()
	if maxAttempts > 0 && q.Attempts >= maxAttempts {
		return w.reject(tx, q, fmt.Errorf("依赖等待超过%d次尝试: %w", maxAttempts, cause))
	}
	w.logger.Debugf("依赖未就绪，操作重新排队: op=%s attempts=%d cause=%v", q.Op.Hash(), q.Attempts, cause)
	return w.store.ValidationLimbo.Put(tx, q)
}

// reject 终局拒绝：移出队列、清理待定层、登记终态并发布事件
func (w *Workflow) reject(tx interfaces.BadgerTransaction, q *types.QueuedOp, cause error) error {
	w.logger.Warnf("操作被终局拒绝: op=%s kind=%s cause=%v", q.Op.Hash(), q.Op.Kind, cause)

	if err := w.store.ValidationLimbo.Remove(tx, q.Op.Hash()); err != nil {
		return err
	}
	if err := w.store.Elements.Delete(tx, dhtstore.TierPending, q.Op.HeaderHash()); err != nil {
		return err
	}
	if err := w.store.Meta.UnregisterOpMetadata(tx, dhtstore.TierPending, &q.Op); err != nil {
		return err
	}
	q.Status = types.OpStatusRejected
	if err := w.store.MarkIntegrated(tx, q); err != nil {
		return err
	}

	w.bus.Publish(events.OpRejected, &types.OpRejectedEvent{
		OpHash: q.Op.Hash(),
		Kind:   q.Op.Kind,
		Reason: cause.Error(),
	})
	return nil
}
