// Package publish 发布工作流测试
package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineconfig "github.com/hashweft/v1/internal/config/pipeline"
	"github.com/hashweft/v1/internal/core/dhtstore"
	eventimpl "github.com/hashweft/v1/internal/core/infrastructure/event"
	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
	"github.com/hashweft/v1/internal/core/infrastructure/storage/memory"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/internal/core/testutil"
	"github.com/hashweft/v1/pkg/types"
)

// fakePublisher 可编程的公告替身
type fakePublisher struct {
	published []types.OpHash
	fail      bool
}

func (p *fakePublisher) PublishOp(ctx context.Context, op *types.DhtOp) error {
	if p.fail {
		return errors.New("网络不可达")
	}
	p.published = append(p.published, op.Hash())
	return nil
}

type harness struct {
	store     *dhtstore.DhtStore
	publisher *fakePublisher
	workflow  *Workflow
}

func createHarness(t *testing.T) *harness {
	t.Helper()
	logger := logimpl.Default()
	store, err := dhtstore.New(memory.New(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	publisher := &fakePublisher{}
	wf := New(store, publisher, eventimpl.New(), pipelineconfig.New(nil), logger)
	return &harness{store: store, publisher: publisher, workflow: wf}
}

// enqueueAuthored 写入发布账本记录
func (h *harness) enqueueAuthored(t *testing.T, el *types.Element) *types.DhtOp {
	t.Helper()
	op := testutil.OpFromElement(types.OpStoreElement, el)
	wtx, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	defer wtx.Discard()
	require.NoError(t, h.store.Authored.Put(wtx.Txn(), &types.AuthoredOp{Op: *op}))
	require.NoError(t, wtx.Commit())
	return op
}

func (h *harness) runOnce(t *testing.T) {
	t.Helper()
	wtx, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	defer wtx.Discard()
	_, err = h.workflow.Run(context.Background(), wtx.Txn())
	require.NoError(t, err)
	require.NoError(t, wtx.Commit())
}

// TestRun_WithUnpublishedOp_PublishesAndRecordsBookkeeping 测试首次发布与簿记
func TestRun_WithUnpublishedOp_PublishesAndRecordsBookkeeping(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := h.enqueueAuthored(t, el)

	// Act
	h.runOnce(t)

	// Assert
	require.Len(t, h.publisher.published, 1, "应该公告一个操作")
	assert.Equal(t, op.Hash(), h.publisher.published[0], "公告的应该是账本中的操作")

	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()
	a, err := h.store.Authored.Get(rtx, op.Hash())
	assert.NoError(t, err)
	require.NotNil(t, a, "账本记录应该保留")
	assert.Equal(t, 1, a.PublishCount, "发布计数应该为1")
	assert.Greater(t, a.LastPublishedAt, int64(0), "应该记录发布时间")
}

// TestRun_WithRecentlyPublishedOp_SkipsUntilDue 测试未到期的记录跳过
func TestRun_WithRecentlyPublishedOp_SkipsUntilDue(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	h.enqueueAuthored(t, el)
	h.runOnce(t)
	require.Len(t, h.publisher.published, 1)

	// Act：立即再跑一轮
	h.runOnce(t)

	// Assert
	assert.Len(t, h.publisher.published, 1, "未到重发间隔不应重复公告")
}

// TestRun_WithPublishFailure_LeavesRecordForNextRound 测试公告失败留待下一轮
func TestRun_WithPublishFailure_LeavesRecordForNextRound(t *testing.T) {
	// Arrange
	h := createHarness(t)
	el := testutil.GenesisElement(testutil.TestAgent(1))
	op := h.enqueueAuthored(t, el)
	h.publisher.fail = true

	// Act
	h.runOnce(t)

	// Assert：簿记未变化，下一轮网络恢复后成功
	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	a, err := h.store.Authored.Get(rtx, op.Hash())
	rtx.Discard()
	assert.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 0, a.PublishCount, "失败不应推进发布计数")

	h.publisher.fail = false
	h.runOnce(t)
	assert.Len(t, h.publisher.published, 1, "网络恢复后应该成功公告")
}

// TestRun_WithFullBatchNotDue_CompletesWithoutSelfRetrigger 测试整批未到期不自触发
func TestRun_WithFullBatchNotDue_CompletesWithoutSelfRetrigger(t *testing.T) {
	// Arrange：账本长度恰好等于批大小，全部刚刚发布过
	h := createHarness(t)
	batch := pipelineconfig.New(nil).GetBatchSize()
	agent := testutil.TestAgent(1)
	now := time.Now().UnixMilli()
	prev := testutil.GenesisElement(agent)
	els := []*types.Element{prev}
	for i := 1; i < batch; i++ {
		el := testutil.ChainElement(agent, uint64(i), prev.HeaderHash(), []byte{byte(i)})
		els = append(els, el)
		prev = el
	}
	wtx, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	for _, el := range els {
		op := testutil.OpFromElement(types.OpStoreElement, el)
		require.NoError(t, h.store.Authored.Put(wtx.Txn(), &types.AuthoredOp{
			Op:              *op,
			PublishCount:    1,
			LastPublishedAt: now,
		}))
	}
	require.NoError(t, wtx.Commit())

	// Act
	wtx2, err := h.store.NewWriteTxn(context.Background())
	require.NoError(t, err)
	defer wtx2.Discard()
	complete, err := h.workflow.Run(context.Background(), wtx2.Txn())
	require.NoError(t, err)
	require.NoError(t, wtx2.Commit())

	// Assert：零进展轮次报告Complete，由重发定时器在间隔到期后唤醒
	assert.Equal(t, pipeline.WorkCompleteComplete, complete, "整批未到期应该报告Complete避免自触发空转")
	assert.Empty(t, h.publisher.published, "未到期的记录不应被公告")
}
