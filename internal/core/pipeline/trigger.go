// Package pipeline 提供HashWeft系统的触发驱动管线调度器
//
// ⚙️ **管线调度 (Pipeline Scheduling)**
//
// 五个长驻阶段（Produce/SysValidate/AppValidate/Integrate/Publish）
// 通过触发通道连成固定拓扑：上游提交写事务后触发下游，下游被唤醒后
// 在单次写事务内执行一轮工作流。通道只传递唤醒信号，不携带数据，
// 因果顺序经由共享事务存储保证。
//
// 🎯 **核心契约**
// - 唤醒不丢失：只要有信号排队，消费方必然被唤醒
// - 唤醒必合并：两次Listen之间的N次触发恰好唤醒一次
// - 关闭即停机：发送端全部关闭等价于停机信号，不作为错误上报
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"

	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// ErrTriggerClosed 触发通道已关闭
// Listen在发送端关闭后返回本错误，是停机检测路径而非运行故障
var ErrTriggerClosed = errors.New("触发通道已关闭")

// TriggerSender 触发通道发送端
// 多个生产者可并发持有与调用；关闭后触发被静默丢弃
type TriggerSender struct {
	name   string
	ch     chan struct{}
	mu     sync.RWMutex
	closed bool
	logger log.Logger
}

// TriggerReceiver 触发通道接收端
// 恰好一个消费任务持有
type TriggerReceiver struct {
	name string
	ch   chan struct{}
}

// NewTrigger 创建触发通道
// 容量按CPU核数取定，排满即代表未来唤醒已有保障
func NewTrigger(name string, logger log.Logger) (*TriggerSender, *TriggerReceiver) {
	ch := make(chan struct{}, runtime.NumCPU())
	sender := &TriggerSender{
		name:   name,
		ch:     ch,
		logger: logger.With("module", "pipeline"),
	}
	receiver := &TriggerReceiver{name: name, ch: ch}
	return sender, receiver
}

// Trigger 发出一次唤醒信号
// 非阻塞：队列有空位则入队；已满则静默成功（排队信号已保证未来唤醒）；
// 通道已关闭则记录警告并丢弃，不向触发方传播错误
func (s *TriggerSender) Trigger() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warnf("向已关闭的触发通道发送信号: stage=%s", s.name)
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
		// 队列已满：已有信号保证唤醒，无工作丢失
	}
}

// Close 关闭触发通道
// 幂等；关闭后接收端的Listen返回ErrTriggerClosed
func (s *TriggerSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Name 返回通道所属的阶段名
func (s *TriggerSender) Name() string {
	return s.name
}

// Listen 等待唤醒信号
// 阻塞直到至少一个信号排队，随后排空所有已排队信号再返回，
// 使两次Listen之间的N次触发合并为恰好一次唤醒。
// 发送端关闭返回ErrTriggerClosed；上下文取消返回上下文错误
func (r *TriggerReceiver) Listen(ctx context.Context) error {
	select {
	case _, ok := <-r.ch:
		if !ok {
			return ErrTriggerClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	// 排空剩余信号：合并唤醒
	for {
		select {
		case _, ok := <-r.ch:
			if !ok {
				// 唤醒已经取得，关闭留给下一次Listen上报
				return nil
			}
		default:
			return nil
		}
	}
}

// Name 返回通道所属的阶段名
func (r *TriggerReceiver) Name() string {
	return r.name
}
