package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashweft/v1/internal/core/dhtstore"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
)

// WorkComplete 工作流单轮完成状态
type WorkComplete int

const (
	// WorkCompleteComplete 队列已排空，等待下一次触发
	WorkCompleteComplete WorkComplete = iota

	// WorkCompleteIncomplete 仍有剩余工作，阶段应自触发继续排空
	WorkCompleteIncomplete
)

// Workflow 阶段工作流
// 每个阶段外部注入一个工作流策略；下游触发发送端在构造工作流时注入，
// 工作流在产生新数据时自行触发下游
type Workflow interface {
	// Name 工作流名
	Name() string

	// Run 在给定写事务内执行一轮处理
	// 返回完成状态；返回错误时本轮事务被整体丢弃
	Run(ctx context.Context, tx interfaces.BadgerTransaction) (WorkComplete, error)
}

// StageError 阶段工作流错误
// 携带阶段名向监督方上报，单轮失败不终止阶段循环
type StageError struct {
	Stage string
	Err   error
}

// Error 实现error接口
func (e *StageError) Error() string {
	return fmt.Sprintf("阶段%s工作流失败: %v", e.Stage, e.Err)
}

// Unwrap 支持errors.Is/As
func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage 管线阶段
// 长驻循环：Idle（等待触发或停机）→ Running（单次写事务内执行一轮
// 工作流）→ Idle；停机与触发同时就绪时停机优先；
// Running一旦开始必然执行到提交或丢弃，不会中途观察停机
type Stage struct {
	name     string
	workflow Workflow
	receiver *TriggerReceiver
	self     *TriggerSender
	store    *dhtstore.DhtStore
	stop     <-chan struct{}
	errs     chan<- error
	logger   log.Logger
}

// NewStage 创建管线阶段
func NewStage(
	name string,
	workflow Workflow,
	receiver *TriggerReceiver,
	self *TriggerSender,
	store *dhtstore.DhtStore,
	stop <-chan struct{},
	errs chan<- error,
	logger log.Logger,
) *Stage {
	return &Stage{
		name:     name,
		workflow: workflow,
		receiver: receiver,
		self:     self,
		store:    store,
		stop:     stop,
		errs:     errs,
		logger:   logger.With("module", "pipeline", "stage", name),
	}
}

// Run 运行阶段循环直到停机
// 由管线图作为独立goroutine调度
func (s *Stage) Run() {
	s.logger.Debug("阶段启动")
	defer s.logger.Debug("阶段停止")

	// 停机广播转为Listen可观察的上下文取消
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	for {
		// 停机优先：触发与停机同时就绪时先观察停机
		select {
		case <-s.stop:
			return
		default:
		}

		if err := s.receiver.Listen(ctx); err != nil {
			if errors.Is(err, ErrTriggerClosed) || errors.Is(err, context.Canceled) {
				// 发送端关闭等价于停机信号
				return
			}
			s.report(err)
			continue
		}

		// 唤醒与停机竞争的第二次裁决
		select {
		case <-s.stop:
			return
		default:
		}

		s.runPass()
	}
}

// runPass 执行一轮工作流
// 单轮失败只丢弃本轮事务并上报监督方，阶段循环继续
func (s *Stage) runPass() {
	// Running过程不接受停机抢占，使用独立上下文
	ctx := context.Background()

	wtx, err := s.store.NewWriteTxn(ctx)
	if err != nil {
		s.report(fmt.Errorf("获取写事务失败: %w", err))
		return
	}
	defer wtx.Discard()

	complete, err := s.workflow.Run(ctx, wtx.Txn())
	if err != nil {
		wtx.Discard()
		s.report(err)
		return
	}
	if err := wtx.Commit(); err != nil {
		s.report(fmt.Errorf("提交写事务失败: %w", err))
		return
	}
	observePass(s.name, complete)

	if complete == WorkCompleteIncomplete {
		// 队列未排空：自触发继续，单轮让出保证阶段间公平
		s.self.Trigger()
	}
}

// report 向监督方上报错误
// 监督通道满时降级为日志，不阻塞阶段循环
func (s *Stage) report(err error) {
	stageErr := &StageError{Stage: s.name, Err: err}
	observeStageError(s.name)
	s.logger.Errorf("%v", stageErr)
	select {
	case s.errs <- stageErr:
	default:
		s.logger.Warn("监督通道已满，错误仅记录日志")
	}
}
