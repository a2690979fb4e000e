// Package produce 提供产出阶段的工作流
//
// ✍️ **操作产出 (Op Production)**
//
// 扫描本地代理源链上尚未派生操作的新链头，为每个链头派生全套DHT
// 操作：写入发布账本（供Publish公告）与集成中转队列（自产数据
// 无需再走验证，直接等待集成）。
package produce

import (
	"context"
	"time"

	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// Workflow 产出工作流
type Workflow struct {
	store      *dhtstore.DhtStore
	signer     dht.Signer
	downstream *pipeline.TriggerSender
	config     *pipelineconfig.Config
	logger     log.Logger
}

// 编译时校验Workflow实现了接口
var _ pipeline.Workflow = (*Workflow)(nil)

// New 创建产出工作流
// downstream为集成阶段的触发发送端
func New(
	store *dhtstore.DhtStore,
	signer dht.Signer,
	downstream *pipeline.TriggerSender,
	config *pipelineconfig.Config,
	logger log.Logger,
) *Workflow {
	return &Workflow{
		store:      store,
		signer:     signer,
		downstream: downstream,
		config:     config,
		logger:     logger.With("module", "workflow", "stage", "produce"),
	}
}

// Name 返回工作流名
func (w *Workflow) Name() string {
	return "produce"
}

// Run 执行一轮操作产出
// 以产出游标追踪进度：游标到链头之间的每个链头派生全套操作
func (w *Workflow) Run(ctx context.Context, tx interfaces.BadgerTransaction) (pipeline.WorkComplete, error) {
	agent := w.signer.Agent()

	head, err := w.store.Chain.Head(tx, agent)
	if err != nil {
		return pipeline.WorkCompleteComplete, err
	}
	if head == nil {
		// 源链尚未初始化
		return pipeline.WorkCompleteComplete, nil
	}

	cursor, err := w.store.Authored.Cursor(tx, agent)
	if err != nil {
		return pipeline.WorkCompleteComplete, err
	}

	batch := uint64(w.config.GetBatchSize())
	produced := 0
	now := time.Now().UnixMilli()

	seq := cursor
	for ; seq <= head.Seq && uint64(produced) < batch; seq++ {
		hash, err := w.store.Chain.HeaderAt(tx, agent, seq)
		if err != nil {
			return pipeline.WorkCompleteComplete, err
		}
		if hash == "" {
			// 序号索引缺口不应出现，跳过并告警
			w.logger.Errorf("源链序号索引缺失: agent=%s seq=%d", agent, seq)
			continue
		}
		el, err := w.store.Elements.Get(tx, dhtstore.TierVault, hash)
		if err != nil {
			return pipeline.WorkCompleteComplete, err
		}
		if el == nil {
			w.logger.Errorf("源链元素缺失: agent=%s hash=%s", agent, hash)
			continue
		}

		for _, op := range opsFromElement(el) {
			if err := w.emit(tx, op, now); err != nil {
				return pipeline.WorkCompleteComplete, err
			}
		}
		produced++
	}

	if err := w.store.Authored.SetCursor(tx, agent, seq); err != nil {
		return pipeline.WorkCompleteComplete, err
	}

	if produced > 0 {
		w.downstream.Trigger()
	}
	if seq <= head.Seq {
		return pipeline.WorkCompleteIncomplete, nil
	}
	return pipeline.WorkCompleteComplete, nil
}

// emit 登记单个派生操作：发布账本 + 集成中转队列
func (w *Workflow) emit(tx interfaces.BadgerTransaction, op *types.DhtOp, now int64) error {
	if err := w.store.Authored.Put(tx, &types.AuthoredOp{Op: *op}); err != nil {
		return err
	}
	return w.store.IntegrationLimbo.Put(tx, &types.QueuedOp{
		Op:         *op,
		Status:     types.OpStatusValidated,
		EnqueuedAt: now,
	})
}

// opsFromElement 为单个链头派生全套操作
// 所有链头派生StoreElement与RegisterAgentActivity；
// 携带条目的追加StoreEntry；链接添加链头追加RegisterAddLink
func opsFromElement(el *types.Element) []*types.DhtOp {
	ops := []*types.DhtOp{
		{Kind: types.OpStoreElement, Header: el.SignedHeader, Entry: el.Entry},
		{Kind: types.OpRegisterAgentActivity, Header: el.SignedHeader},
	}
	if el.HasEntry() {
		ops = append(ops, &types.DhtOp{Kind: types.OpStoreEntry, Header: el.SignedHeader, Entry: el.Entry})
	}
	if el.SignedHeader.Header.IsAddLink() {
		ops = append(ops, &types.DhtOp{Kind: types.OpRegisterAddLink, Header: el.SignedHeader})
	}
	return ops
}
