// Package pipeline 阶段与管线图测试
package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashweft/v1/internal/core/dhtstore"
	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
	"github.com/hashweft/v1/internal/core/infrastructure/storage/memory"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
)

// stubWorkflow 可编程的工作流替身
// 按脚本依次返回结果，记录每次执行
type stubWorkflow struct {
	name string

	mu      sync.Mutex
	script  []func() (WorkComplete, error)
	runs    int
	runNote chan struct{}
}

func newStubWorkflow(name string) *stubWorkflow {
	return &stubWorkflow{
		name:    name,
		runNote: make(chan struct{}, 128),
	}
}

func (w *stubWorkflow) Name() string { return w.name }

func (w *stubWorkflow) Run(ctx context.Context, tx interfaces.BadgerTransaction) (WorkComplete, error) {
	w.mu.Lock()
	w.runs++
	var step func() (WorkComplete, error)
	if len(w.script) > 0 {
		step = w.script[0]
		w.script = w.script[1:]
	}
	w.mu.Unlock()

	w.runNote <- struct{}{}
	if step != nil {
		return step()
	}
	return WorkCompleteComplete, nil
}

func (w *stubWorkflow) enqueue(result WorkComplete, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.script = append(w.script, func() (WorkComplete, error) { return result, err })
}

func (w *stubWorkflow) runCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// waitRuns 等待工作流累计执行到指定次数
func (w *stubWorkflow) waitRuns(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-w.runNote:
		case <-deadline:
			t.Fatalf("等待第%d次执行超时（已执行%d次）", n, w.runCount())
		}
	}
}

// stageHarness 单阶段测试环境
type stageHarness struct {
	store    *dhtstore.DhtStore
	workflow *stubWorkflow
	sender   *TriggerSender
	stop     chan struct{}
	errs     chan error
	done     chan struct{}
}

func startTestStage(t *testing.T) *stageHarness {
	t.Helper()
	logger := logimpl.Default()
	store, err := dhtstore.New(memory.New(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	workflow := newStubWorkflow("test")
	sender, receiver := NewTrigger("test", logger)
	h := &stageHarness{
		store:    store,
		workflow: workflow,
		sender:   sender,
		stop:     make(chan struct{}),
		errs:     make(chan error, 8),
		done:     make(chan struct{}),
	}

	stage := NewStage("test", workflow, receiver, sender, store, h.stop, h.errs, logger)
	go func() {
		stage.Run()
		close(h.done)
	}()
	t.Cleanup(func() {
		select {
		case <-h.done:
		default:
			close(h.stop)
			<-h.done
		}
	})
	return h
}

// TestStage_WithSingleTrigger_RunsOnePass 测试一次触发执行一轮
func TestStage_WithSingleTrigger_RunsOnePass(t *testing.T) {
	// Arrange
	h := startTestStage(t)

	// Act
	h.sender.Trigger()

	// Assert
	h.workflow.waitRuns(t, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.workflow.runCount(), "单次触发应该恰好执行一轮")
}

// TestStage_WithIncompleteResult_SelfRetriggers 测试Incomplete自触发
func TestStage_WithIncompleteResult_SelfRetriggers(t *testing.T) {
	// Arrange
	h := startTestStage(t)
	h.workflow.enqueue(WorkCompleteIncomplete, nil)
	h.workflow.enqueue(WorkCompleteIncomplete, nil)
	// 第三轮默认Complete

	// Act
	h.sender.Trigger()

	// Assert：一次外部触发带动三轮执行
	h.workflow.waitRuns(t, 3)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, h.workflow.runCount(), "Incomplete应该自触发直至排空")
}

// TestStage_WithWorkflowError_SurfacesErrorAndContinues 测试单轮失败不终止循环
func TestStage_WithWorkflowError_SurfacesErrorAndContinues(t *testing.T) {
	// Arrange
	h := startTestStage(t)
	bang := errors.New("工作流内部失败")
	h.workflow.enqueue(WorkCompleteComplete, bang)

	// Act：第一轮失败
	h.sender.Trigger()
	h.workflow.waitRuns(t, 1)

	// Assert：错误上报给监督方
	select {
	case err := <-h.errs:
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr, "错误应该包装为StageError")
		assert.Equal(t, "test", stageErr.Stage, "错误应该携带阶段名")
		assert.ErrorIs(t, err, bang, "应该保留原始错误")
	case <-time.After(time.Second):
		t.Fatal("错误应该被上报")
	}

	// 再次触发仍然正常执行
	h.sender.Trigger()
	h.workflow.waitRuns(t, 1)
	assert.Equal(t, 2, h.workflow.runCount(), "失败后阶段应该继续响应触发")
}

// TestStage_WithStopSignal_ExitsPromptly 测试停机退出
func TestStage_WithStopSignal_ExitsPromptly(t *testing.T) {
	// Arrange
	h := startTestStage(t)

	// Act
	close(h.stop)

	// Assert
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("停机后阶段应该及时退出")
	}
	assert.Equal(t, 0, h.workflow.runCount(), "未触发过的阶段不应执行工作流")
}

// TestStage_WithStopAndTriggerBothReady_PrefersStop 测试停机优先于触发
func TestStage_WithStopAndTriggerBothReady_PrefersStop(t *testing.T) {
	// Arrange：先让阶段执行一轮后处于Idle
	h := startTestStage(t)
	h.sender.Trigger()
	h.workflow.waitRuns(t, 1)

	// Act：同时就绪停机与触发
	close(h.stop)
	h.sender.Trigger()

	// Assert
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("停机后阶段应该及时退出")
	}
	// 第二次触发可能在停机裁决前后到达，但停机后不应再有新一轮执行
	final := h.workflow.runCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, final, h.workflow.runCount(), "停机后不应再执行新一轮")
}

// TestStage_WithClosedSender_TreatsAsShutdown 测试发送端关闭等价于停机
func TestStage_WithClosedSender_TreatsAsShutdown(t *testing.T) {
	// Arrange
	h := startTestStage(t)

	// Act
	h.sender.Close()

	// Assert
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("发送端关闭后阶段应该退出")
	}
	assert.Empty(t, h.errs, "通道关闭不应作为错误上报")
}

// createTestGraph 创建带内存存储的管线图
func createTestGraph(t *testing.T) *Graph {
	t.Helper()
	store, err := dhtstore.New(memory.New(), logimpl.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewGraph(store, logimpl.Default())
}

// TestGraph_StartWithMissingWorkflow_ReturnsError 测试缺少工作流时启动失败
func TestGraph_StartWithMissingWorkflow_ReturnsError(t *testing.T) {
	// Arrange
	graph := createTestGraph(t)
	workflows := map[StageName]Workflow{
		StageProduce: newStubWorkflow("produce"),
	}

	// Act
	err := graph.Start(workflows)

	// Assert
	require.Error(t, err, "缺少工作流应该启动失败")
	assert.Contains(t, err.Error(), "缺少工作流", "错误信息应该包含相关描述")
}

// TestGraph_WithInitialTriggers_RunsEveryStageOnce 测试引导后每个阶段执行一轮
func TestGraph_WithInitialTriggers_RunsEveryStageOnce(t *testing.T) {
	// Arrange
	graph := createTestGraph(t)
	workflows := make(map[StageName]Workflow)
	stubs := make(map[StageName]*stubWorkflow)
	for _, name := range constructionOrder {
		stub := newStubWorkflow(string(name))
		stubs[name] = stub
		workflows[name] = stub
	}
	require.NoError(t, graph.Start(workflows))
	defer graph.Stop()

	// Act
	graph.InitialTriggers().InitializeWorkflows()
	graph.InitialTriggers().InitializeWorkflows()

	// Assert
	for name, stub := range stubs {
		stub.waitRuns(t, 1)
		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, 1, stub.runCount(), "阶段%s应该恰好执行一轮", name)
	}
}

// TestGraph_Stop_IsIdempotentAndTerminatesStages 测试停机幂等且终止全部阶段
func TestGraph_Stop_IsIdempotentAndTerminatesStages(t *testing.T) {
	// Arrange
	graph := createTestGraph(t)
	workflows := make(map[StageName]Workflow)
	for _, name := range constructionOrder {
		workflows[name] = newStubWorkflow(string(name))
	}
	require.NoError(t, graph.Start(workflows))

	// Act & Assert
	assert.NotPanics(t, func() {
		graph.Stop()
		graph.Stop()
	}, "重复停机不应panic")

	// 停机后错误通道被关闭
	_, open := <-graph.Errors()
	assert.False(t, open, "停机后错误通道应该关闭")
}
