// Package dhtstore 提供HashWeft系统的DHT分层存储实现
//
// 💾 **分层存储 (Tiered DHT Store)**
//
// 数据按可信层级分布在三个层之中：
// - vault：权威层，仅集成工作流写入，视为本地已证实
// - judged：已判定层，已通过系统验证但尚未集成
// - pending：待定层，刚到达尚未判定的数据
//
// 🎯 **核心契约**
// - 所有层共享同一个BadgerDB实例，以键前缀区分
// - 向管线状态的全部变更必须经由单一写事务提交
// - 元素内容寻址且不可变，读缓存无需失效逻辑
package dhtstore

import (
	"fmt"

	"github.com/hashweft/v1/pkg/types"
)

// Tier 存储层级
type Tier string

const (
	// TierVault 权威层：已集成数据，本地证实
	TierVault Tier = "vault"

	// TierJudged 已判定层：已通过系统验证的数据
	TierJudged Tier = "judged"

	// TierPending 待定层：尚未判定的数据
	TierPending Tier = "pending"
)

// 键前缀布局
//
//	el/{tier}/{headerHash}                     → Element JSON
//	entry/{tier}/{entryHash}                   → Entry JSON
//	meta/{tier}/activity/{agent}/{headerHash}  → seq（定宽十六进制）
//	meta/{tier}/headers/{entryHash}/{headerHash} → 标记
//	meta/{tier}/links/{baseHash}/{headerHash}  → 目标哈希
//	limbo/validation/{opHash}                  → QueuedOp JSON
//	limbo/integration/{opHash}                 → QueuedOp JSON
//	integrated/{opHash}                        → QueuedOp JSON（终态记录）
//	authored/{opHash}                          → AuthoredOp JSON
//	produce/cursor/{agent}                     → 下一个待派生的链序号
//	chain/seq/{agent}/{seq定宽}                 → headerHash
//	chain/head/{agent}                         → ChainHead JSON

func elementKey(tier Tier, hash types.HeaderHash) []byte {
	return []byte(fmt.Sprintf("el/%s/%s", tier, hash))
}

func elementPrefix(tier Tier) []byte {
	return []byte(fmt.Sprintf("el/%s/", tier))
}

func entryKey(tier Tier, hash types.EntryHash) []byte {
	return []byte(fmt.Sprintf("entry/%s/%s", tier, hash))
}

func activityKey(tier Tier, agent types.AgentID, header types.HeaderHash) []byte {
	return []byte(fmt.Sprintf("meta/%s/activity/%s/%s", tier, agent, header))
}

func headerOnEntryKey(tier Tier, entry types.EntryHash, header types.HeaderHash) []byte {
	return []byte(fmt.Sprintf("meta/%s/headers/%s/%s", tier, entry, header))
}

func headerOnEntryPrefix(tier Tier, entry types.EntryHash) []byte {
	return []byte(fmt.Sprintf("meta/%s/headers/%s/", tier, entry))
}

func linkKey(tier Tier, base types.EntryHash, header types.HeaderHash) []byte {
	return []byte(fmt.Sprintf("meta/%s/links/%s/%s", tier, base, header))
}

func linkPrefix(tier Tier, base types.EntryHash) []byte {
	return []byte(fmt.Sprintf("meta/%s/links/%s/", tier, base))
}

func validationLimboKey(hash types.OpHash) []byte {
	return []byte(fmt.Sprintf("limbo/validation/%s", hash))
}

func integrationLimboKey(hash types.OpHash) []byte {
	return []byte(fmt.Sprintf("limbo/integration/%s", hash))
}

var (
	validationLimboPrefix  = []byte("limbo/validation/")
	integrationLimboPrefix = []byte("limbo/integration/")
	authoredPrefix         = []byte("authored/")
)

func integratedKey(hash types.OpHash) []byte {
	return []byte(fmt.Sprintf("integrated/%s", hash))
}

func authoredKey(hash types.OpHash) []byte {
	return []byte(fmt.Sprintf("authored/%s", hash))
}

func produceCursorKey(agent types.AgentID) []byte {
	return []byte(fmt.Sprintf("produce/cursor/%s", agent))
}

func chainSeqKey(agent types.AgentID, seq uint64) []byte {
	// 定宽十六进制保证按序迭代
	return []byte(fmt.Sprintf("chain/seq/%s/%016x", agent, seq))
}

func chainHeadKey(agent types.AgentID) []byte {
	return []byte(fmt.Sprintf("chain/head/%s", agent))
}
