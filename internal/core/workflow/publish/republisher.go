package publish

import (
	"time"

	"github.com/hashweft/v1/internal/core/pipeline"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// Republisher 发布阶段的重发定时器
// 安静节点上集成触发会停止到来，发布阶段随之休眠；定时器按重发
// 间隔唤醒发布阶段，保证到期记录的反熵重公告持续进行
type Republisher struct {
	interval time.Duration
	trigger  *pipeline.TriggerSender
	logger   log.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewRepublisher 创建重发定时器
// trigger为发布阶段的触发发送端
func NewRepublisher(trigger *pipeline.TriggerSender, logger log.Logger) *Republisher {
	return newRepublisher(republishInterval, trigger, logger)
}

func newRepublisher(interval time.Duration, trigger *pipeline.TriggerSender, logger log.Logger) *Republisher {
	return &Republisher{
		interval: interval,
		trigger:  trigger,
		logger:   logger.With("module", "workflow", "stage", "publish"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动定时循环
func (r *Republisher) Start() {
	go r.loop()
}

func (r *Republisher) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.logger.Debug("重发定时器唤醒发布阶段")
			r.trigger.Trigger()
		}
	}
}

// Stop 停止定时循环并等待退出
func (r *Republisher) Stop() {
	close(r.stop)
	<-r.done
}
