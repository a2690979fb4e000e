package pipeline

import (
	"fmt"
	"sync"

	"github.com/hashweft/v1/internal/core/dhtstore"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// StageName 阶段名
type StageName string

const (
	// StageProduce 产出阶段：新链头派生操作
	StageProduce StageName = "produce"

	// StageSysValidate 系统验证阶段
	StageSysValidate StageName = "sys_validate"

	// StageAppValidate 应用验证阶段
	StageAppValidate StageName = "app_validate"

	// StageIntegrate 集成阶段
	StageIntegrate StageName = "integrate"

	// StagePublish 发布阶段
	StagePublish StageName = "publish"
)

// constructionOrder 触发通道构造顺序
// 下游先建：Publish → Integrate → AppValidate → SysValidate → Produce，
// 保证上游工作流构造时其下游发送端已经存在
var constructionOrder = []StageName{
	StagePublish,
	StageIntegrate,
	StageAppValidate,
	StageSysValidate,
	StageProduce,
}

// 监督错误通道容量
const errorChannelCapacity = 32

// Graph 管线图
// 持有五个阶段的触发通道与长驻循环，固定拓扑：
//
//	gossip ─────────────┐
//	authoring → Produce ─┼→ SysValidate → AppValidate → Integrate → Publish
//	            └────────────────────────────────────────↑
//
// Produce同时向Integrate与Publish供货（经集成中转与自产存储）
type Graph struct {
	senders   map[StageName]*TriggerSender
	receivers map[StageName]*TriggerReceiver
	initial   *InitialTriggers

	store  *dhtstore.DhtStore
	stop   chan struct{}
	errs   chan error
	wg     sync.WaitGroup
	logger log.Logger

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewGraph 创建管线图
// 只构造触发通道；阶段循环在Start时注入工作流后启动
func NewGraph(store *dhtstore.DhtStore, logger log.Logger) *Graph {
	g := &Graph{
		senders:   make(map[StageName]*TriggerSender),
		receivers: make(map[StageName]*TriggerReceiver),
		store:     store,
		stop:      make(chan struct{}),
		errs:      make(chan error, errorChannelCapacity),
		logger:    logger.With("module", "pipeline"),
	}
	for _, name := range constructionOrder {
		sender, receiver := NewTrigger(string(name), logger)
		g.senders[name] = sender
		g.receivers[name] = receiver
	}
	g.initial = newInitialTriggers(g.orderedSenders(), g.logger)
	return g
}

// Sender 取某阶段的触发发送端
// 供工作流构造时注入下游触发，以及gossip/authoring入口使用
func (g *Graph) Sender(name StageName) *TriggerSender {
	return g.senders[name]
}

// InitialTriggers 返回一次性引导器
func (g *Graph) InitialTriggers() *InitialTriggers {
	return g.initial
}

// Errors 返回监督错误通道
// 所有阶段的单轮工作流错误汇聚于此，由外部监督方消费
func (g *Graph) Errors() <-chan error {
	return g.errs
}

// Start 注入工作流并启动全部阶段循环
// 必须为五个阶段各提供一个工作流；重复启动返回错误
func (g *Graph) Start(workflows map[StageName]Workflow) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return fmt.Errorf("管线图已启动")
	}
	for _, name := range constructionOrder {
		if workflows[name] == nil {
			return fmt.Errorf("阶段%s缺少工作流", name)
		}
	}

	for _, name := range constructionOrder {
		stage := NewStage(
			string(name),
			workflows[name],
			g.receivers[name],
			g.senders[name],
			g.store,
			g.stop,
			g.errs,
			g.logger,
		)
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			stage.Run()
		}()
	}
	g.started = true
	g.logger.Info("管线图已启动，共5个阶段")
	return nil
}

// Stop 停机
// 广播停机信号并关闭全部触发通道，等待所有阶段循环退出；幂等
func (g *Graph) Stop() {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.stopped = true
	g.mu.Unlock()

	close(g.stop)
	for _, sender := range g.senders {
		sender.Close()
	}
	g.wg.Wait()
	close(g.errs)
	g.logger.Info("管线图已停机")
}

// orderedSenders 按构造顺序返回发送端切片
func (g *Graph) orderedSenders() []*TriggerSender {
	senders := make([]*TriggerSender, 0, len(constructionOrder))
	for _, name := range constructionOrder {
		senders = append(senders, g.senders[name])
	}
	return senders
}

// InitialTriggers 一次性引导器
// 管线完全由触发驱动，零初始信号会导致死锁；
// 引导器在图构造完成后为每个阶段补发首个触发，进程范围恰好一次
type InitialTriggers struct {
	once    sync.Once
	senders []*TriggerSender
	logger  log.Logger
}

func newInitialTriggers(senders []*TriggerSender, logger log.Logger) *InitialTriggers {
	return &InitialTriggers{senders: senders, logger: logger}
}

// InitializeWorkflows 触发全部阶段的首次唤醒
// 可被任意次数、任意并发调用；实际扇出进程范围内恰好执行一次
func (i *InitialTriggers) InitializeWorkflows() {
	i.once.Do(func() {
		for _, sender := range i.senders {
			sender.Trigger()
		}
		i.logger.Info("管线初始触发已发出")
	})
}
