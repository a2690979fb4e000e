// Package publish 提供发布阶段的工作流
//
// 🌐 **操作发布 (Op Publication)**
//
// 读取发布账本中到期的已授权操作，逐个交给网络公告方
// （gossip广播 + 提供者记录），成功后登记发布簿记。
package publish

import (
	"context"
	"time"

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

// republishInterval 重发间隔
// 发布是尽力而为的反熵过程，定期重发对冲早期公告的丢失
const republishInterval = 5 * time.Minute

// Workflow 发布工作流
type Workflow struct {
	store     *dhtstore.DhtStore
	publisher dht.Publisher
	bus       event.EventBus
	config    *pipelineconfig.Config
	logger    log.Logger
}

// 编译时校验Workflow实现了接口
var _ pipeline.Workflow = (*Workflow)(nil)

// New 创建发布工作流
func New(
	store *dhtstore.DhtStore,
	publisher dht.Publisher,
	bus event.EventBus,
	config *pipelineconfig.Config,
	logger log.Logger,
) *Workflow {
	return &Workflow{
		store:     store,
		publisher: publisher,
		bus:       bus,
		config:    config,
		logger:    logger.With("module", "workflow", "stage", "publish"),
	}
}

// Name 返回工作流名
func (w *Workflow) Name() string {
	return "publish"
}

// Run 执行一轮发布
// 公告失败只记录并留待下一轮：网络瞬断不应拒绝或丢弃自产操作
func (w *Workflow) Run(ctx context.Context, tx interfaces.BadgerTransaction) (pipeline.WorkComplete, error) {
	batch := w.config.GetBatchSize()
	ops, err := w.store.Authored.List(tx, batch)
	if err != nil {
		return pipeline.WorkCompleteComplete, err
	}

	now := time.Now().UnixMilli()
	published := 0
	for _, a := range ops {
		if !isDue(a, now) {
			continue
		}
		if err := w.publisher.PublishOp(ctx, &a.Op); err != nil {
			w.logger.Warnf("操作公告失败，留待下一轮: op=%s err=%v", a.Op.Hash(), err)
			continue
		}
		if err := w.store.Authored.MarkPublished(tx, a.Op.Hash(), now); err != nil {
			return pipeline.WorkCompleteComplete, err
		}
		published++
		w.bus.Publish(events.OpPublished, &types.OpPublishedEvent{
			OpHash: a.Op.Hash(),
			Kind:   a.Op.Kind,
		})
	}

	// 满批且本轮公告有进展才自触发继续；整批未到期或网络不可达时
	// 报告Complete，由重发定时器或下游触发再唤醒
	if len(ops) == batch && published > 0 {
		return pipeline.WorkCompleteIncomplete, nil
	}
	return pipeline.WorkCompleteComplete, nil
}

// isDue 判断记录是否到期应发布
func isDue(a *types.AuthoredOp, now int64) bool {
	if a.LastPublishedAt == 0 {
		return true
	}
	return now-a.LastPublishedAt >= republishInterval.Milliseconds()
}
