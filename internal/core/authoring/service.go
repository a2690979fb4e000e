// Package authoring 提供本地授权路径
//
// ✍️ **本地授权 (Local Authoring)**
//
// 应用提交数据后的链上段：构建链头（序号/前驱衔接）、签名、
// 追加到本地源链，并触发Produce阶段派生DHT操作。
package authoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/internal/core/pipeline"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	"github.com/hashweft/v1/pkg/types"
)

// Service 授权服务
type Service struct {
	store   *dhtstore.DhtStore
	signer  dht.Signer
	produce *pipeline.TriggerSender
	logger  log.Logger
}

// New 创建授权服务
// produce为产出阶段的触发发送端
func New(store *dhtstore.DhtStore, signer dht.Signer, produce *pipeline.TriggerSender, logger log.Logger) *Service {
	return &Service{
		store:   store,
		signer:  signer,
		produce: produce,
		logger:  logger.With("module", "authoring"),
	}
}

// CommitEntry 提交一个内容条目到本地源链
// 返回新链头的哈希；提交成功后触发Produce派生操作
func (s *Service) CommitEntry(ctx context.Context, content []byte) (types.HeaderHash, error) {
	entry := &types.Entry{Content: content}
	return s.commit(ctx, func(header *types.Header) {
		header.EntryHash = entry.Hash()
	}, entry)
}

// CommitLink 提交一个链接添加到本地源链
func (s *Service) CommitLink(ctx context.Context, base, target types.EntryHash) (types.HeaderHash, error) {
	if !base.IsValid() || !target.IsValid() {
		return "", fmt.Errorf("链接基与链接目标不能为空")
	}
	return s.commit(ctx, func(header *types.Header) {
		header.LinkBase = base
		header.LinkTarget = target
	}, nil)
}

// commit 构建、签名并追加一个链头
func (s *Service) commit(ctx context.Context, fill func(*types.Header), entry *types.Entry) (types.HeaderHash, error) {
	requestID := uuid.NewString()
	agent := s.signer.Agent()

	wtx, err := s.store.NewWriteTxn(ctx)
	if err != nil {
		return "", err
	}
	defer wtx.Discard()
	tx := wtx.Txn()

	head, err := s.store.Chain.Head(tx, agent)
	if err != nil {
		return "", err
	}

	header := types.Header{
		Author:    agent,
		Timestamp: time.Now().UnixMilli(),
	}
	if head != nil {
		header.Seq = head.Seq + 1
		header.PrevHeader = head.Header
	}
	fill(&header)

	canonical, err := json.Marshal(&header)
	if err != nil {
		return "", fmt.Errorf("序列化链头失败: %w", err)
	}
	signature, err := s.signer.Sign(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("链头签名失败: %w", err)
	}

	el := &types.Element{
		SignedHeader: types.SignedHeader{Header: header, Signature: signature},
		Entry:        entry,
	}
	if err := s.store.Chain.Append(tx, el); err != nil {
		return "", err
	}
	if err := wtx.Commit(); err != nil {
		return "", err
	}

	hash := el.HeaderHash()
	s.logger.Infof("源链提交完成: request=%s agent=%s seq=%d header=%s", requestID, agent, header.Seq, hash)
	s.produce.Trigger()
	return hash, nil
}
