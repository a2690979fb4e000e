// Package app 应用装配
//
// ⚙️ **应用启动 (Application Bootstrap)**
//
// 以fx为骨架装配完整节点：配置 → 基础设施（日志/存储/事件）→
// 网络底座 → 分层存储 → 依赖解析 → 管线 → 工作流。
// 管线的启动与停机由fx生命周期托管。
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	logconfig "github.com/hashweft/v1/internal/config/log"
	nodeconfig "github.com/hashweft/v1/internal/config/node"
	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	badgerconfig "github.com/hashweft/v1/internal/config/storage/badger"
	"github.com/hashweft/v1/internal/core/authoring"
	"github.com/hashweft/v1/internal/core/dhtstore"
	eventimpl "github.com/hashweft/v1/internal/core/infrastructure/event"
	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
	badgerimpl "github.com/hashweft/v1/internal/core/infrastructure/storage/badger"
	"github.com/hashweft/v1/internal/core/network/cascade"
	"github.com/hashweft/v1/internal/core/p2p"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/internal/core/validation"
	"github.com/hashweft/v1/internal/core/workflow/appval"
	"github.com/hashweft/v1/internal/core/workflow/integrate"
	"github.com/hashweft/v1/internal/core/workflow/produce"
	"github.com/hashweft/v1/internal/core/workflow/publish"
	"github.com/hashweft/v1/internal/core/workflow/sysval"
	"github.com/hashweft/v1/pkg/constants/events"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	event "github.com/hashweft/v1/pkg/interfaces/infrastructure/event"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	storage "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// 停机超时：给存储同步与网络关闭留足时间
const stopTimeout = 60 * time.Second

// App 是HashWeft节点的对外接口
type App interface {
	// Stop 停止应用
	Stop() error

	// Wait 等待应用收到退出信号
	Wait()

	// Authoring 返回本地授权服务
	// 宿主应用经此提交条目与链接
	Authoring() *authoring.Service
}

// internalApp HashWeft节点的内部实现
type internalApp struct {
	fxApp     *fx.App
	authoring *authoring.Service
}

// Authoring 返回本地授权服务
func (a *internalApp) Authoring() *authoring.Service {
	return a.authoring
}

// Stop 停止应用
func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.fxApp.Stop(ctx)
}

// Wait 等待应用收到退出信号
func (a *internalApp) Wait() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals
	fmt.Printf("收到信号 %v，正在优雅退出...\n", sig)
	if err := a.Stop(); err != nil {
		fmt.Printf("停止应用时出错: %v\n", err)
	}
}

// Start 启动HashWeft节点
func Start(appOptions ...Option) (App, error) {
	opts := newOptions(appOptions...)
	appConfig, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	nodeApp := &internalApp{}
	fxOptions := append(buildOptions(appConfig, opts), fx.Populate(&nodeApp.authoring))

	fxApp := fx.New(fxOptions...)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("应用装配失败: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return nil, fmt.Errorf("应用启动失败: %w", err)
	}
	nodeApp.fxApp = fxApp
	return nodeApp, nil
}

// loadConfig 确定最终生效的应用配置
// 优先级：嵌入配置 > 配置文件 > 选项内配置
func loadConfig(opts *options) (*types.AppConfig, error) {
	var data []byte
	switch {
	case len(opts.embeddedConfig) > 0:
		data = opts.embeddedConfig
	case opts.configFilePath != "":
		fileData, err := os.ReadFile(opts.configFilePath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		data = fileData
	default:
		applyOverrides(opts.appConfig, opts)
		return opts.appConfig, nil
	}

	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	applyOverrides(&appConfig, opts)
	return &appConfig, nil
}

// applyOverrides 应用节点级覆盖
func applyOverrides(appConfig *types.AppConfig, opts *options) {
	if opts.dataDir != "" {
		if appConfig.Storage == nil {
			appConfig.Storage = &types.UserStorageConfig{}
		}
		dataDir := opts.dataDir
		appConfig.Storage.DataRoot = &dataDir
	}
}

// buildOptions 组装fx模块集
func buildOptions(appConfig *types.AppConfig, opts *options) []fx.Option {
	return []fx.Option{
		fx.NopLogger,

		// 配置
		fx.Provide(
			func() *types.AppConfig { return appConfig },
			func(cfg *types.AppConfig) *logconfig.Config { return logconfig.New(cfg.Log) },
			func(cfg *types.AppConfig) *badgerconfig.Config { return badgerconfig.New(cfg.Storage) },
			func(cfg *types.AppConfig) *nodeconfig.Config { return nodeconfig.New(cfg.Node) },
			func(cfg *types.AppConfig) *pipelineconfig.Config { return pipelineconfig.New(cfg.Pipeline) },
		),

		// 基础设施：日志、存储、事件总线
		fx.Provide(
			func(cfg *logconfig.Config) (log.Logger, error) { return logimpl.New(cfg) },
			func(cfg *badgerconfig.Config, logger log.Logger, lc fx.Lifecycle) (storage.BadgerStore, error) {
				store, err := badgerimpl.New(cfg, logger)
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error { return store.Close() },
				})
				return store, nil
			},
			func() event.EventBus { return eventimpl.New() },
		),

		// 应用验证策略
		fx.Provide(func() dht.AppValidator {
			if opts.appValidator != nil {
				return opts.appValidator
			}
			return &acceptAllValidator{}
		}),

		// 核心模块
		dhtstore.Module,
		pipeline.Module,
		p2p.Module,
		cascade.Module,
		validation.Module,
		authoring.Module,

		// 工作流与管线启动
		fx.Provide(provideWorkflows),
		fx.Invoke(runPipeline),
	}
}

// workflowSet 五个阶段的工作流集合
type workflowSet struct {
	fx.Out

	Workflows map[pipeline.StageName]pipeline.Workflow
}

// workflowDeps 工作流构造依赖
type workflowDeps struct {
	fx.In

	Store     *dhtstore.DhtStore
	Graph     *pipeline.Graph
	Checker   dht.SysChecker
	Validator dht.AppValidator
	Signer    dht.Signer
	Publisher dht.Publisher
	Bus       event.EventBus
	Config    *pipelineconfig.Config
	Logger    log.Logger
}

// provideWorkflows 构造五个阶段的工作流
// 下游触发发送端来自管线图，保证拓扑与图一致
func provideWorkflows(deps workflowDeps) workflowSet {
	return workflowSet{
		Workflows: map[pipeline.StageName]pipeline.Workflow{
			pipeline.StageProduce: produce.New(
				deps.Store, deps.Signer, deps.Graph.Sender(pipeline.StageIntegrate), deps.Config, deps.Logger),
			pipeline.StageSysValidate: sysval.New(
				deps.Store, deps.Checker, deps.Graph.Sender(pipeline.StageAppValidate), deps.Bus, deps.Config, deps.Logger),
			pipeline.StageAppValidate: appval.New(
				deps.Store, deps.Validator, deps.Graph.Sender(pipeline.StageIntegrate), deps.Bus, deps.Config, deps.Logger),
			pipeline.StageIntegrate: integrate.New(
				deps.Store, deps.Graph.Sender(pipeline.StagePublish), deps.Bus, deps.Config, deps.Logger),
			pipeline.StagePublish: publish.New(
				deps.Store, deps.Publisher, deps.Bus, deps.Config, deps.Logger),
		},
	}
}

// pipelineDeps 管线启动依赖
type pipelineDeps struct {
	fx.In

	Graph     *pipeline.Graph
	Workflows map[pipeline.StageName]pipeline.Workflow
	Bus       event.EventBus
	Logger    log.Logger
}

// runPipeline 托管管线的启动与停机
// 启动后补发初始触发、启动重发定时器并消费监督错误通道；
// 停机时先停定时器再等待全部阶段退出
func runPipeline(deps pipelineDeps, lc fx.Lifecycle) {
	republisher := publish.NewRepublisher(deps.Graph.Sender(pipeline.StagePublish), deps.Logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := deps.Graph.Start(deps.Workflows); err != nil {
				return err
			}
			go superviseErrors(deps.Graph, deps.Bus, deps.Logger)
			deps.Graph.InitialTriggers().InitializeWorkflows()
			republisher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			republisher.Stop()
			deps.Graph.Stop()
			return nil
		},
	})
}

// superviseErrors 消费监督错误通道
// 单轮失败只观测不中断；通道随管线停机关闭后退出
func superviseErrors(graph *pipeline.Graph, bus event.EventBus, logger log.Logger) {
	for err := range graph.Errors() {
		payload := &types.WorkflowErrorEvent{Error: err.Error()}
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			payload.Stage = stageErr.Stage
		}
		bus.Publish(events.WorkflowError, payload)
		logger.Warnf("工作流单轮失败: stage=%s: %v", payload.Stage, err)
	}
}
