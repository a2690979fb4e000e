// Package authoring 授权服务测试
package authoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashweft/v1/internal/core/dhtstore"
	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
	"github.com/hashweft/v1/internal/core/infrastructure/storage/memory"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/internal/core/testutil"
	"github.com/hashweft/v1/pkg/types"
)

// fakeSigner 固定代理的签名替身
type fakeSigner struct {
	agent types.AgentID
}

func (s *fakeSigner) Agent() types.AgentID { return s.agent }

func (s *fakeSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	return []byte("test_signature"), nil
}

type harness struct {
	store   *dhtstore.DhtStore
	agent   types.AgentID
	service *Service
	produce *pipeline.TriggerReceiver
}

func createHarness(t *testing.T) *harness {
	t.Helper()
	logger := logimpl.Default()
	store, err := dhtstore.New(memory.New(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	agent := testutil.TestAgent(1)
	sender, receiver := pipeline.NewTrigger("produce", logger)
	svc := New(store, &fakeSigner{agent: agent}, sender, logger)
	return &harness{store: store, agent: agent, service: svc, produce: receiver}
}

// headAt 读取当前链头
func (h *harness) headAt(t *testing.T) *dhtstore.ChainHead {
	t.Helper()
	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()
	head, err := h.store.Chain.Head(rtx, h.agent)
	require.NoError(t, err)
	return head
}

// TestCommitEntry_OnEmptyChain_CreatesGenesisHeader 测试空链上的首次提交
func TestCommitEntry_OnEmptyChain_CreatesGenesisHeader(t *testing.T) {
	// Arrange
	h := createHarness(t)

	// Act
	hash, err := h.service.CommitEntry(context.Background(), []byte("第一条内容"))

	// Assert
	require.NoError(t, err)
	assert.True(t, hash.IsValid(), "应该返回新链头哈希")

	head := h.headAt(t)
	require.NotNil(t, head, "链上应该出现链头")
	assert.Equal(t, uint64(0), head.Seq, "首次提交应该是创世链头")
	assert.Equal(t, hash, head.Header, "链头指针应该指向新提交")

	assert.NoError(t, h.produce.Listen(context.Background()), "产出阶段应该被触发")
}

// TestCommitEntry_CalledTwice_LinksSequentialHeaders 测试连续提交衔接序号与前驱
func TestCommitEntry_CalledTwice_LinksSequentialHeaders(t *testing.T) {
	// Arrange
	h := createHarness(t)
	first, err := h.service.CommitEntry(context.Background(), []byte("一"))
	require.NoError(t, err)

	// Act
	_, err = h.service.CommitEntry(context.Background(), []byte("二"))
	require.NoError(t, err)

	// Assert
	head := h.headAt(t)
	require.NotNil(t, head)
	assert.Equal(t, uint64(1), head.Seq, "第二次提交序号应该递增")

	rtx, rerr := h.store.NewReadTxn(context.Background())
	require.NoError(t, rerr)
	defer rtx.Discard()
	el, gerr := h.store.Elements.Get(rtx, dhtstore.TierVault, head.Header)
	require.NoError(t, gerr)
	require.NotNil(t, el)
	assert.Equal(t, first, el.SignedHeader.Header.PrevHeader, "第二个链头应该引用第一个")
	assert.Equal(t, []byte("test_signature"), el.SignedHeader.Signature, "链头应该携带签名")
}

// TestCommitEntry_StoresEntryAlongsideHeader 测试条目随链头入库
func TestCommitEntry_StoresEntryAlongsideHeader(t *testing.T) {
	// Arrange
	h := createHarness(t)
	content := []byte("内容寻址的负载")

	// Act
	hash, err := h.service.CommitEntry(context.Background(), content)
	require.NoError(t, err)

	// Assert
	rtx, err := h.store.NewReadTxn(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()
	el, err := h.store.Elements.Get(rtx, dhtstore.TierVault, hash)
	require.NoError(t, err)
	require.NotNil(t, el)
	require.True(t, el.HasEntry(), "元素应该携带条目")
	assert.Equal(t, content, el.Entry.Content, "条目内容应该原样保存")
	assert.Equal(t, el.Entry.Hash(), el.SignedHeader.Header.EntryHash, "链头应该引用条目哈希")
}

// TestCommitLink_WithValidHashes_CreatesLinkHeader 测试链接提交
func TestCommitLink_WithValidHashes_CreatesLinkHeader(t *testing.T) {
	// Arrange
	h := createHarness(t)
	_, err := h.service.CommitEntry(context.Background(), []byte("基内容"))
	require.NoError(t, err)
	base := types.NewEntryHash([]byte("基内容"))
	target := types.NewEntryHash([]byte("目标内容"))

	// Act
	hash, err := h.service.CommitLink(context.Background(), base, target)

	// Assert
	require.NoError(t, err)
	rtx, rerr := h.store.NewReadTxn(context.Background())
	require.NoError(t, rerr)
	defer rtx.Discard()
	el, gerr := h.store.Elements.Get(rtx, dhtstore.TierVault, hash)
	require.NoError(t, gerr)
	require.NotNil(t, el)
	assert.True(t, el.SignedHeader.Header.IsAddLink(), "应该生成链接添加类链头")
	assert.Equal(t, base, el.SignedHeader.Header.LinkBase, "链接基应该保留")
	assert.Equal(t, target, el.SignedHeader.Header.LinkTarget, "链接目标应该保留")
	assert.False(t, el.HasEntry(), "链接链头不携带条目")
}

// TestCommitLink_WithEmptyBase_ReturnsError 测试空哈希拒绝
func TestCommitLink_WithEmptyBase_ReturnsError(t *testing.T) {
	// Arrange
	h := createHarness(t)

	// Act
	_, err := h.service.CommitLink(context.Background(), "", types.NewEntryHash([]byte("t")))

	// Assert
	assert.Error(t, err, "空链接基应该被拒绝")
	assert.Nil(t, h.headAt(t), "失败的提交不应触碰源链")
}
