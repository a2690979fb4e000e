// Package cascade 入站处理测试
package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashweft/v1/internal/core/dhtstore"
	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
	"github.com/hashweft/v1/internal/core/infrastructure/storage/memory"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/internal/core/testutil"
	"github.com/hashweft/v1/pkg/types"
)

type harness struct {
	store    *dhtstore.DhtStore
	ingestor *Ingestor
	sysval   *pipeline.TriggerReceiver
}

func createHarness(t *testing.T) *harness {
	t.Helper()
	logger := logimpl.Default()
	store, err := dhtstore.New(memory.New(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sender, receiver := pipeline.NewTrigger("sys_validate", logger)
	ingestor := NewIngestor(store, sender, logger)
	return &harness{store: store, ingestor: ingestor, sysval: receiver}
}

// envelopeFor 构造一条合法的传播消息
func envelopeFor(t *testing.T, op *types.DhtOp) []byte {
	t.Helper()
	data, err := encodeOpEnvelope(op)
	require.NoError(t, err)
	return data
}

// TestHandleMessage_WithNewOp_ParksAndTriggersSysValidate 测试入站操作停靠
func TestHandleMessage_WithNewOp_ParksAndTriggersSysValidate(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpStoreElement, el)

	// Act
	err := h.ingestor.HandleMessage(context.Background(), envelopeFor(t, op))

	// Assert
	require.NoError(t, err)

	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()

	queued, err := h.store.ValidationLimbo.Get(rtx, op.Hash())
	assert.NoError(t, err)
	require.NotNil(t, queued, "操作应该进入验证队列")
	assert.Equal(t, types.OpStatusPending, queued.Status, "入站操作应该处于pending状态")

	pending, err := h.store.Elements.Get(rtx, dhtstore.TierPending, el.HeaderHash())
	assert.NoError(t, err)
	assert.NotNil(t, pending, "元素应该停靠到pending层")

	assert.NoError(t, h.sysval.Listen(context.Background()), "系统验证阶段应该被触发")
}

// TestHandleMessage_WithDuplicateOp_DoesNotRetrigger 测试重复传播幂等
func TestHandleMessage_WithDuplicateOp_DoesNotRetrigger(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpStoreElement, el)
	data := envelopeFor(t, op)
	require.NoError(t, h.ingestor.HandleMessage(context.Background(), data))
	require.NoError(t, h.sysval.Listen(context.Background()), "首次停靠应该触发")

	// Act
	err := h.ingestor.HandleMessage(context.Background(), data)

	// Assert
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.sysval.Listen(ctx), context.DeadlineExceeded, "重复停靠不应再次触发")

	rtx, rerr := h.store.NewReadTxn(context.Background())
	require.NoError(t, rerr)
	defer rtx.Discard()
	count, cerr := h.store.ValidationLimbo.Count(rtx)
	assert.NoError(t, cerr)
	assert.Equal(t, 1, count, "重复传播不应产生第二条队列记录")
}

// TestHandleMessage_WithMalformedEnvelope_ReturnsError 测试非法信封丢弃
func TestHandleMessage_WithMalformedEnvelope_ReturnsError(t *testing.T) {
	// Arrange
	h := createHarness(t)

	// Act
	err := h.ingestor.HandleMessage(context.Background(), []byte("不是JSON"))

	// Assert
	require.Error(t, err, "非法信封应该被拒绝")
	rtx, rerr := h.store.NewReadTxn(context.Background())
	require.NoError(t, rerr)
	defer rtx.Discard()
	count, cerr := h.store.ValidationLimbo.Count(rtx)
	assert.NoError(t, cerr)
	assert.Equal(t, 0, count, "非法信封不应触碰存储")
}

// TestHandleMessage_WithStructurallyInvalidOp_ReturnsError 测试结构非法操作丢弃
func TestHandleMessage_WithStructurallyInvalidOp_ReturnsError(t *testing.T) {
	// Arrange：链接添加操作但链头缺少链接字段
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpRegisterAddLink, el)

	// Act
	err := h.ingestor.HandleMessage(context.Background(), envelopeFor(t, op))

	// Assert
	assert.Error(t, err, "结构非法的操作应该被拒绝")
}

// TestHandleMessage_WithIntegratedOp_SkipsSilently 测试已集成操作跳过
func TestHandleMessage_WithIntegratedOp_SkipsSilently(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := testutil.OpFromElement(types.OpStoreElement, el)
	q := testutil.QueuedOpFromElement(types.OpStoreElement, el, types.OpStatusIntegrated)

	wtx, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.store.MarkIntegrated(wtx.Txn(), q))
	require.NoError(t, wtx.Commit())

	// Act
	err = h.ingestor.HandleMessage(context.Background(), envelopeFor(t, op))

	// Assert
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.sysval.Listen(ctx), context.DeadlineExceeded, "已集成的操作不应触发验证")
}
