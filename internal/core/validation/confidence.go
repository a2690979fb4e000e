// Package validation 提供HashWeft系统的分层依赖解析器
//
// 🔎 **依赖解析 (Dependency Resolution)**
//
// 解析器回答一个问题：对操作所依赖的事实F，本节点掌握多强的证据？
// - 证据强度分三档：Proof > Claim > PendingValidation
// - 本地三层按序探测：vault⇒Proof，judged⇒Proof，pending⇒PendingValidation
// - 仅在CheckLevel为Claim时才回退到网络级联，命中记为Claim
//
// 🎯 **核心契约**
// - 解析器严格只读，不重试，不改变任何存储状态
// - 可恢复失败（NotHoldingDep）与终局失败（DepMissing）以类型区分
// - 复合检查经ConfidenceMin合并，整体可信度不超过最弱一环
package validation

// Confidence 证据强度
// 数值越大证据越强，便于取弱合并
type Confidence int

const (
	// ConfidencePendingValidation 本地持有但自身尚未通过验证
	ConfidencePendingValidation Confidence = iota

	// ConfidenceClaim 网络对等节点声称存在，本节点未验证
	ConfidenceClaim

	// ConfidenceProof 权威本地存储持有，可作为事实依据
	ConfidenceProof
)

// String 返回证据强度的字符串表示
func (c Confidence) String() string {
	switch c {
	case ConfidenceProof:
		return "proof"
	case ConfidenceClaim:
		return "claim"
	case ConfidencePendingValidation:
		return "pending_validation"
	default:
		return "unknown"
	}
}

// CheckLevel 检查级别策略
// 由调用工作流按操作类别选择，解析器自身不做选择
type CheckLevel int

const (
	// CheckLevelProof 只接受权威本地证据；本地不足即为可恢复失败
	CheckLevelProof CheckLevel = iota

	// CheckLevelClaim 接受网络声称的证据作为回退
	CheckLevelClaim
)

// String 返回检查级别的字符串表示
func (l CheckLevel) String() string {
	switch l {
	case CheckLevelProof:
		return "proof"
	case CheckLevelClaim:
		return "claim"
	default:
		return "unknown"
	}
}

// Dependency 带证据强度的事实
type Dependency[T any] struct {
	// Payload 事实载荷
	Payload T

	// Confidence 证据强度
	Confidence Confidence
}

// NewDependency 创建带证据强度的事实
func NewDependency[T any](payload T, confidence Confidence) *Dependency[T] {
	return &Dependency[T]{Payload: payload, Confidence: confidence}
}

// ConfidenceMin 取弱合并两个独立获得的事实
// 保留第一操作数的载荷，证据强度取两者中较弱的一档；
// 复合依赖的整体可信度由此不超过最弱一环
func ConfidenceMin[T, U any](a *Dependency[T], b *Dependency[U]) *Dependency[T] {
	confidence := a.Confidence
	if b.Confidence < confidence {
		confidence = b.Confidence
	}
	return &Dependency[T]{Payload: a.Payload, Confidence: confidence}
}
