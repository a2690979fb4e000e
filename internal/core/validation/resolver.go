package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/hashweft/v1/internal/core/dhtstore"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hashweft/v1/pkg/types"
)

// tierProbe 单层探测计划：在哪一层查找、命中时报告哪档置信
type tierProbe struct {
	tier       dhtstore.Tier
	confidence Confidence
}

// tierOrder 固定探测顺序
// vault与judged均视为权威（judged已通过验证，仅差集成簿记）；
// pending命中只能给出PendingValidation
var tierOrder = []tierProbe{
	{dhtstore.TierVault, ConfidenceProof},
	{dhtstore.TierJudged, ConfidenceProof},
	{dhtstore.TierPending, ConfidencePendingValidation},
}

// Resolver 分层依赖解析器
// 只读探测本地三层存储，必要时回退到网络级联；自身不做重试
type Resolver struct {
	store        *dhtstore.DhtStore
	cascade      dht.Cascade
	fetchTimeout time.Duration
	logger       log.Logger
}

// NewResolver 创建依赖解析器
func NewResolver(store *dhtstore.DhtStore, cascade dht.Cascade, fetchTimeout time.Duration, logger log.Logger) *Resolver {
	return &Resolver{
		store:        store,
		cascade:      cascade,
		fetchTimeout: fetchTimeout,
		logger:       logger.With("module", "validation"),
	}
}

// resolveTiered 参数化的分层解析
// 按固定顺序探测三层本地存储；命中置信低于检查级别要求时视为未持有；
// 仅在CheckLevelClaim下回退到网络级联，级联命中记为Claim，级联否认即终局
func resolveTiered[T any](
	r *Resolver,
	ctx context.Context,
	kind DepKind,
	id string,
	level CheckLevel,
	lookup func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*T, error),
	fetch func(ctx context.Context) (*T, error),
) (*Dependency[T], error) {
	tx, err := r.store.NewReadTxn(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建解析读事务失败: %w", err)
	}
	defer tx.Discard()

	for _, probe := range tierOrder {
		value, err := lookup(tx, probe.tier)
		if err != nil {
			return nil, fmt.Errorf("探测%s层失败: %w", probe.tier, err)
		}
		if value == nil {
			continue
		}
		if level == CheckLevelProof && probe.confidence < ConfidenceProof {
			// 证据存在但不够权威：按未持有处理（Scenario：pending命中 + Proof级别）
			return nil, &NotHoldingDepError{Kind: kind, Hash: id}
		}
		return NewDependency(*value, probe.confidence), nil
	}

	if level == CheckLevelProof || fetch == nil {
		return nil, &NotHoldingDepError{Kind: kind, Hash: id}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	value, err := fetch(fetchCtx)
	if err != nil {
		r.logger.Debugf("级联检索失败: kind=%s id=%s err=%v", kind, id, err)
		return nil, &DepMissingError{Kind: kind, Hash: id}
	}
	if value == nil {
		return nil, &DepMissingError{Kind: kind, Hash: id}
	}
	return NewDependency(*value, ConfidenceClaim), nil
}

//=============================================================================
// 单事实检查
//=============================================================================

// CheckHeader 检查链头事实
func (r *Resolver) CheckHeader(ctx context.Context, hash types.HeaderHash, level CheckLevel) (*Dependency[types.SignedHeader], error) {
	return resolveTiered(r, ctx, DepHeader, hash.String(), level,
		func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*types.SignedHeader, error) {
			return r.store.Elements.GetHeader(tx, tier, hash)
		},
		func(ctx context.Context) (*types.SignedHeader, error) {
			return r.cascade.RetrieveHeader(ctx, hash)
		},
	)
}

// CheckElement 检查元素事实（链头+条目）
func (r *Resolver) CheckElement(ctx context.Context, hash types.HeaderHash, level CheckLevel) (*Dependency[types.Element], error) {
	return resolveTiered(r, ctx, DepElement, hash.String(), level,
		func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*types.Element, error) {
			return r.store.GetElement(tx, tier, hash)
		},
		func(ctx context.Context) (*types.Element, error) {
			return r.cascade.RetrieveElement(ctx, hash)
		},
	)
}

// CheckEntry 检查条目事实
func (r *Resolver) CheckEntry(ctx context.Context, hash types.EntryHash, level CheckLevel) (*Dependency[types.Entry], error) {
	return resolveTiered(r, ctx, DepEntry, hash.String(), level,
		func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*types.Entry, error) {
			return r.store.Elements.GetEntry(tx, tier, hash)
		},
		func(ctx context.Context) (*types.Entry, error) {
			el, err := r.cascade.RetrieveEntry(ctx, hash)
			if err != nil || el == nil {
				return nil, err
			}
			if el.Entry == nil || el.Entry.Hash() != hash {
				// 级联返回的元素不携带目标条目，按未找到处理
				return nil, nil
			}
			return el.Entry, nil
		},
	)
}

//=============================================================================
// 元数据交叉引用检查
//
// 元数据缺失与元素缺失同等上报（NotHoldingDep），调用方统一处理
//=============================================================================

// CheckActivity 检查链头是否登记在作者的链活动之下
func (r *Resolver) CheckActivity(ctx context.Context, agent types.AgentID, hash types.HeaderHash, level CheckLevel) (*Dependency[types.HeaderHash], error) {
	return resolveTiered(r, ctx, DepActivity, hash.String(), level,
		func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*types.HeaderHash, error) {
			has, err := r.store.Meta.HasActivity(tx, tier, agent, hash)
			if err != nil || !has {
				return nil, err
			}
			h := hash
			return &h, nil
		},
		func(ctx context.Context) (*types.HeaderHash, error) {
			// 网络侧以链头本体为据：取回链头并确认作者匹配
			sh, err := r.cascade.RetrieveHeader(ctx, hash)
			if err != nil || sh == nil {
				return nil, err
			}
			if sh.Header.Author != agent {
				return nil, nil
			}
			h := hash
			return &h, nil
		},
	)
}

// CheckHeaderOnEntry 检查链头是否登记在其引用条目之下
func (r *Resolver) CheckHeaderOnEntry(ctx context.Context, entry types.EntryHash, header types.HeaderHash, level CheckLevel) (*Dependency[types.HeaderHash], error) {
	return resolveTiered(r, ctx, DepEntryRef, header.String(), level,
		func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*types.HeaderHash, error) {
			has, err := r.store.Meta.HasHeaderOnEntry(tx, tier, entry, header)
			if err != nil || !has {
				return nil, err
			}
			h := header
			return &h, nil
		},
		func(ctx context.Context) (*types.HeaderHash, error) {
			sh, err := r.cascade.RetrieveHeader(ctx, header)
			if err != nil || sh == nil {
				return nil, err
			}
			if sh.Header.EntryHash != entry {
				return nil, nil
			}
			h := header
			return &h, nil
		},
	)
}

// CheckLinkOnBase 检查链接添加链头是否登记在链接基之下
func (r *Resolver) CheckLinkOnBase(ctx context.Context, base types.EntryHash, header types.HeaderHash, level CheckLevel) (*Dependency[types.HeaderHash], error) {
	return resolveTiered(r, ctx, DepLink, header.String(), level,
		func(tx interfaces.BadgerTransaction, tier dhtstore.Tier) (*types.HeaderHash, error) {
			has, err := r.store.Meta.HasLink(tx, tier, base, header)
			if err != nil || !has {
				return nil, err
			}
			h := header
			return &h, nil
		},
		func(ctx context.Context) (*types.HeaderHash, error) {
			sh, err := r.cascade.RetrieveHeader(ctx, header)
			if err != nil || sh == nil {
				return nil, err
			}
			if !sh.Header.IsAddLink() || sh.Header.LinkBase != base {
				return nil, nil
			}
			h := header
			return &h, nil
		},
	)
}

//=============================================================================
// 复合检查
//
// 两条独立检查腿经ConfidenceMin合并，整体置信不超过最弱一环
//=============================================================================

// CheckPrevHeader 检查前驱链头
// 腿一：前驱链头本体存在；腿二：前驱已登记在作者链活动之下
func (r *Resolver) CheckPrevHeader(ctx context.Context, header *types.Header, level CheckLevel) (*Dependency[types.SignedHeader], error) {
	prev, err := r.CheckHeader(ctx, header.PrevHeader, level)
	if err != nil {
		return nil, err
	}
	activity, err := r.CheckActivity(ctx, header.Author, header.PrevHeader, level)
	if err != nil {
		return nil, err
	}
	return ConfidenceMin(prev, activity), nil
}

// CheckLinkAdd 检查链接添加操作的依赖
// 腿一：链头本体存在；腿二：链接已登记在链接基之下
func (r *Resolver) CheckLinkAdd(ctx context.Context, header *types.Header, level CheckLevel) (*Dependency[types.SignedHeader], error) {
	if !header.IsAddLink() {
		return nil, &RejectedError{Reason: "链头缺少链接字段"}
	}
	hash := header.Hash()
	self, err := r.CheckHeader(ctx, hash, level)
	if err != nil {
		return nil, err
	}
	link, err := r.CheckLinkOnBase(ctx, header.LinkBase, hash, level)
	if err != nil {
		return nil, err
	}
	return ConfidenceMin(self, link), nil
}
