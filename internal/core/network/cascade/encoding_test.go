// Package cascade 线上编码测试
package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashweft/v1/internal/core/testutil"
	"github.com/hashweft/v1/pkg/types"
)

// TestFetchRequestValidate_WithUnknownFact_ReturnsError 测试未知事实类别拒绝
func TestFetchRequestValidate_WithUnknownFact_ReturnsError(t *testing.T) {
	// Arrange
	request := &fetchRequest{Fact: "chain", Hash: "abc"}

	// Act & Assert
	assert.Error(t, request.validate(), "未知事实类别应该被拒绝")
}

// TestFetchRequestValidate_WithEmptyHash_ReturnsError 测试空哈希拒绝
func TestFetchRequestValidate_WithEmptyHash_ReturnsError(t *testing.T) {
	// Arrange
	request := &fetchRequest{Fact: factElement}

	// Act & Assert
	assert.Error(t, request.validate(), "空哈希应该被拒绝")
}

// TestDecodeOpEnvelope_WithMissingOp_ReturnsError 测试空信封拒绝
func TestDecodeOpEnvelope_WithMissingOp_ReturnsError(t *testing.T) {
	// Act
	_, err := decodeOpEnvelope([]byte(`{}`))

	// Assert
	assert.Error(t, err, "缺少操作本体的信封应该被拒绝")
}

// TestContentCID_WithSameDigest_IsStable 测试CID构造稳定性
func TestContentCID_WithSameDigest_IsStable(t *testing.T) {
	// Arrange
	hash := types.NewHeaderHash([]byte("内容"))

	// Act
	first, err := contentCID(hash.Bytes())
	require.NoError(t, err)
	second, err := contentCID(hash.Bytes())
	require.NoError(t, err)

	// Assert
	assert.True(t, first.Equals(second), "同一内容哈希应该产生同一CID")
}

// TestContentCID_WithEmptyDigest_ReturnsError 测试空哈希拒绝构造CID
func TestContentCID_WithEmptyDigest_ReturnsError(t *testing.T) {
	// Act
	_, err := contentCID(nil)

	// Assert
	assert.Error(t, err, "空内容哈希不应构造CID")
}

// TestBasisDigest_ByOpKind_SelectsPartitionHash 测试操作基哈希选择
func TestBasisDigest_ByOpKind_SelectsPartitionHash(t *testing.T) {
	// Arrange
	agent := testutil.TestAgent(1)
	genesis := testutil.GenesisElement(agent)
	link := testutil.LinkElement(agent, 1, genesis.HeaderHash(), genesis.Entry.Hash(), types.NewEntryHash([]byte("目标")))

	// Act & Assert
	elementOp := testutil.OpFromElement(types.OpStoreElement, genesis)
	assert.Equal(t, genesis.HeaderHash().Bytes(), basisDigest(elementOp), "元素操作的基是链头哈希")

	entryOp := testutil.OpFromElement(types.OpStoreEntry, genesis)
	assert.Equal(t, genesis.Entry.Hash().Bytes(), basisDigest(entryOp), "条目操作的基是条目哈希")

	linkOp := testutil.OpFromElement(types.OpRegisterAddLink, link)
	assert.Equal(t, genesis.Entry.Hash().Bytes(), basisDigest(linkOp), "链接操作的基是链接基哈希")
}
