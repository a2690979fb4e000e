package validation

import (
	"context"

	"github.com/hashweft/v1/pkg/interfaces/dht"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	"github.com/hashweft/v1/pkg/types"
)

// Checker 系统级校验器
// 结构校验 + 按操作类别的依赖解析；语义规则之外的部分
// （签名、时间戳等）由外部SysChecker协作方叠加
type Checker struct {
	resolver *Resolver
	logger   log.Logger
}

// 编译时校验Checker实现了接口
var _ dht.SysChecker = (*Checker)(nil)

// NewChecker 创建系统级校验器
func NewChecker(resolver *Resolver, logger log.Logger) *Checker {
	return &Checker{
		resolver: resolver,
		logger:   logger.With("module", "validation"),
	}
}

// checkLevelFor 按操作类别选择检查级别
// 链活动操作面向作者分区的权威方，只接受权威证据；
// 其余操作接受网络声称的证据作为回退
func checkLevelFor(kind types.OpKind) CheckLevel {
	if kind == types.OpRegisterAgentActivity {
		return CheckLevelProof
	}
	return CheckLevelClaim
}

// Check 对单个操作执行系统级校验
// 返回nil表示通过；NotHoldingDepError表示依赖未就绪（可恢复）；
// DepMissingError与RejectedError表示终局失败
func (c *Checker) Check(ctx context.Context, op *types.DhtOp) error {
	if err := op.Validate(); err != nil {
		return &RejectedError{Reason: err.Error()}
	}

	header := &op.Header.Header
	level := checkLevelFor(op.Kind)

	switch op.Kind {
	case types.OpStoreElement:
		if header.IsGenesis() {
			return nil
		}
		_, err := c.resolver.CheckPrevHeader(ctx, header, level)
		return err

	case types.OpStoreEntry:
		if op.Entry.Hash() != header.EntryHash {
			return &RejectedError{Reason: "条目内容与链头引用的条目哈希不一致"}
		}
		if header.IsGenesis() {
			return nil
		}
		_, err := c.resolver.CheckPrevHeader(ctx, header, level)
		return err

	case types.OpRegisterAgentActivity:
		if header.IsGenesis() {
			return nil
		}
		_, err := c.resolver.CheckHeader(ctx, header.PrevHeader, level)
		return err

	case types.OpRegisterAddLink:
		_, err := c.resolver.CheckEntry(ctx, header.LinkBase, level)
		return err

	default:
		return &RejectedError{Reason: "未知的操作类别"}
	}
}
