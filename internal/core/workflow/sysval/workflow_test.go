// Package sysval 系统验证工作流测试
package sysval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	eventimpl "github.com/hashweft/v1/internal/core/infrastructure/event"
	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
	"github.com/hashweft/v1/internal/core/infrastructure/storage/memory"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/internal/core/testutil"
	"github.com/hashweft/v1/internal/core/validation"
	"github.com/hashweft/v1/pkg/types"
)

// fakeChecker 可编程的系统校验替身
type fakeChecker struct {
	results map[types.OpHash]error
}

func (c *fakeChecker) Check(ctx context.Context, op *types.DhtOp) error {
	return c.results[op.Hash()]
}

type harness struct {
	store    *dhtstore.DhtStore
	checker  *fakeChecker
	workflow *Workflow
	appval   *pipeline.TriggerReceiver
}

func createHarness(t *testing.T) *harness {
	t.Helper()
	logger := logimpl.Default()
	store, err := dhtstore.New(memory.New(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	checker := &fakeChecker{results: make(map[types.OpHash]error)}
	sender, receiver := pipeline.NewTrigger("app_validate", logger)
	wf := New(store, checker, sender, eventimpl.New(), pipelineconfig.New(nil), logger)
	return &harness{store: store, checker: checker, workflow: wf, appval: receiver}
}

// park 将操作收入验证队列
func (h *harness) park(t *testing.T, op *types.DhtOp) {
	t.Helper()
	wtx, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	defer wtx.Discard()
	_, err = h.store.ParkOp(wtx.Txn(), op, 100)
	require.NoError(t, err)
	require.NoError(t, wtx.Commit())
}

// runOnce 执行一轮工作流并提交
func (h *harness) runOnce(t *testing.T) pipeline.WorkComplete {
	t.Helper()
	wtx, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	defer wtx.Discard()
	complete, err := h.workflow.Run(context.Background(), wtx.Txn())
	require.NoError(t, err)
	require.NoError(t, wtx.Commit())
	return complete
}

// TestRun_WithPassingOp_PromotesToJudgedAndTriggersDownstream 测试通过的操作晋升judged层
func TestRun_WithPassingOp_PromotesToJudgedAndTriggersDownstream(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpStoreElement, el)
	h.park(t, op)

	// Act
	complete := h.runOnce(t)

	// Assert
	assert.Equal(t, pipeline.WorkCompleteComplete, complete, "单个操作一轮应该排空")

	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()

	judged, err := h.store.Elements.Get(rtx, dhtstore.TierJudged, el.HeaderHash())
	assert.NoError(t, err)
	assert.NotNil(t, judged, "元素应该晋升到judged层")

	pending, err := h.store.Elements.Get(rtx, dhtstore.TierPending, el.HeaderHash())
	assert.NoError(t, err)
	assert.Nil(t, pending, "待定层副本应该被清理")

	q, err := h.store.ValidationLimbo.Get(rtx, op.Hash())
	assert.NoError(t, err)
	require.NotNil(t, q, "操作应该留在验证队列等待应用验证")
	assert.Equal(t, types.OpStatusSysValidated, q.Status, "状态应该推进到sys_validated")

	assert.NoError(t, h.appval.Listen(context.Background()), "下游应用验证阶段应该被触发")
}

// TestRun_WithRecoverableFailure_RequeuesWithAttemptCount 测试依赖未就绪时重排队
func TestRun_WithRecoverableFailure_RequeuesWithAttemptCount(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpStoreElement, el)
	h.park(t, op)
	h.checker.results[op.Hash()] = &validation.NotHoldingDepError{Kind: validation.DepHeader, Hash: "missing"}

	// Act：两轮均未就绪
	h.runOnce(t)
	h.runOnce(t)

	// Assert
	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()

	q, err := h.store.ValidationLimbo.Get(rtx, op.Hash())
	assert.NoError(t, err)
	require.NotNil(t, q, "操作应该留在验证队列")
	assert.Equal(t, types.OpStatusPending, q.Status, "状态应该保持pending")
	assert.Equal(t, 2, q.Attempts, "应该累计两次尝试")
}

// TestRun_WithTerminalFailure_RejectsAndRecordsTerminalState 测试终局失败被拒绝
func TestRun_WithTerminalFailure_RejectsAndRecordsTerminalState(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpStoreElement, el)
	h.park(t, op)
	h.checker.results[op.Hash()] = &validation.DepMissingError{Kind: validation.DepHeader, Hash: "gone"}

	// Act
	h.runOnce(t)

	// Assert
	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()

	q, err := h.store.ValidationLimbo.Get(rtx, op.Hash())
	assert.NoError(t, err)
	assert.Nil(t, q, "被拒绝的操作应该移出验证队列")

	integrated, err := h.store.IsIntegrated(rtx, op.Hash())
	assert.NoError(t, err)
	assert.True(t, integrated, "应该登记终态记录阻止重新入队")

	pending, err := h.store.Elements.Get(rtx, dhtstore.TierPending, el.HeaderHash())
	assert.NoError(t, err)
	assert.Nil(t, pending, "待定层副本应该被清理")
}

// TestRun_WithFullBatch_ReturnsIncomplete 测试满批返回Incomplete
func TestRun_WithFullBatch_ReturnsIncomplete(t *testing.T) {
	// Arrange：队列长度恰好等于批大小
	h := createHarness(t)
	batch := pipelineconfig.New(nil).GetBatchSize()
	agent := testutil.TestAgent(1)
	prev := testutil.GenesisElement(agent)
	h.park(t, testutil.OpFromElement(types.OpStoreElement, prev))
	for i := 1; i < batch; i++ {
		el := testutil.ChainElement(agent, uint64(i), prev.HeaderHash(), []byte{byte(i)})
		h.park(t, testutil.OpFromElement(types.OpStoreElement, el))
		prev = el
	}

	// Act
	complete := h.runOnce(t)

	// Assert
	assert.Equal(t, pipeline.WorkCompleteIncomplete, complete, "满批应该报告Incomplete以便自触发")
}

// TestRun_WithFullBatchOfStalledOps_CompletesWithoutSelfRetrigger 测试整批依赖未就绪不自触发
func TestRun_WithFullBatchOfStalledOps_CompletesWithoutSelfRetrigger(t *testing.T) {
	// Arrange：满批操作全部依赖未就绪
	h := createHarness(t)
	batch := pipelineconfig.New(nil).GetBatchSize()
	agent := testutil.TestAgent(1)
	prev := testutil.GenesisElement(agent)
	ops := make([]*types.DhtOp, 0, batch)
	op := testutil.OpFromElement(types.OpStoreElement, prev)
	h.park(t, op)
	ops = append(ops, op)
	for i := 1; i < batch; i++ {
		el := testutil.ChainElement(agent, uint64(i), prev.HeaderHash(), []byte{byte(i)})
		op := testutil.OpFromElement(types.OpStoreElement, el)
		h.park(t, op)
		ops = append(ops, op)
		prev = el
	}
	for _, op := range ops {
		h.checker.results[op.Hash()] = &validation.NotHoldingDepError{Kind: validation.DepHeader, Hash: "missing"}
	}

	// Act：第一轮零进展；第二轮模拟下一次外部触发
	first := h.runOnce(t)
	second := h.runOnce(t)

	// Assert：零进展轮次报告Complete，等待gossip补齐依赖，
	// 尝试次数只随外部触发累计而非自触发空转
	assert.Equal(t, pipeline.WorkCompleteComplete, first, "整批重排队应该报告Complete避免自触发空转")
	assert.Equal(t, pipeline.WorkCompleteComplete, second, "依赖仍未就绪时应该继续报告Complete")

	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()
	q, err := h.store.ValidationLimbo.Get(rtx, ops[0].Hash())
	assert.NoError(t, err)
	require.NotNil(t, q, "操作应该留在验证队列")
	assert.Equal(t, 2, q.Attempts, "尝试次数应该等于外部触发轮数")
}

// TestRun_WithFullBatchPartialProgress_ReturnsIncomplete 测试满批有进展时仍自触发
func TestRun_WithFullBatchPartialProgress_ReturnsIncomplete(t *testing.T) {
	// Arrange：满批中仅首个操作可晋升
	h := createHarness(t)
	batch := pipelineconfig.New(nil).GetBatchSize()
	agent := testutil.TestAgent(1)
	prev := testutil.GenesisElement(agent)
	h.park(t, testutil.OpFromElement(types.OpStoreElement, prev))
	for i := 1; i < batch; i++ {
		el := testutil.ChainElement(agent, uint64(i), prev.HeaderHash(), []byte{byte(i)})
		op := testutil.OpFromElement(types.OpStoreElement, el)
		h.park(t, op)
		h.checker.results[op.Hash()] = &validation.NotHoldingDepError{Kind: validation.DepHeader, Hash: "missing"}
		prev = el
	}

	// Act
	complete := h.runOnce(t)

	// Assert
	assert.Equal(t, pipeline.WorkCompleteIncomplete, complete, "满批且有进展应该自触发继续排空")
}

// TestPromote_WithActivityOp_MovesMetadataFromPendingToJudged 测试晋升时元数据随层迁移
func TestPromote_WithActivityOp_MovesMetadataFromPendingToJudged(t *testing.T) {
	// Arrange
	h := createHarness(t)
	agent := testutil.TestAgent(1)
	el := testutil.GenesisElement(agent)
	op := testutil.OpFromElement(types.OpRegisterAgentActivity, el)
	h.park(t, op)

	// Act
	h.runOnce(t)

	// Assert
	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()

	judged, err := h.store.Meta.HasActivity(rtx, dhtstore.TierJudged, agent, el.HeaderHash())
	assert.NoError(t, err)
	assert.True(t, judged, "链活动元数据应该登记到judged层")

	pending, err := h.store.Meta.HasActivity(rtx, dhtstore.TierPending, agent, el.HeaderHash())
	assert.NoError(t, err)
	assert.False(t, pending, "待定层元数据应该随元素一起清理")
}
