// Package p2p 提供libp2p网络底座
//
// 🌐 **节点身份 (Node Identity)**
//
// 节点身份同时承担两个角色：
// - libp2p主机的私钥身份（PeerID来源）
// - 本地代理的链头签名方（dht.Signer实现）
package p2p

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"

	nodeconfig "github.com/hashweft/v1/internal/config/node"
	"github.com/hashweft/v1/pkg/interfaces/dht"
	"github.com/hashweft/v1/pkg/types"
)

// Identity 节点身份
type Identity struct {
	privKey crypto.PrivKey
	agent   types.AgentID
}

// 静态断言：Identity实现链头签名接口
var _ dht.Signer = (*Identity)(nil)

// NewIdentity 创建节点身份
// 当前每次启动生成新的Ed25519密钥；配置了agent_id时沿用配置值，
// 否则由公钥派生代理标识
func NewIdentity(cfg *nodeconfig.Config) (*Identity, error) {
	privKey, pubKey, err := crypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, fmt.Errorf("生成节点密钥失败: %w", err)
	}

	agent := types.AgentID(cfg.GetAgentID())
	if !agent.IsValid() {
		raw, err := pubKey.Raw()
		if err != nil {
			return nil, fmt.Errorf("读取节点公钥失败: %w", err)
		}
		agent = types.NewAgentID(raw)
	}

	return &Identity{privKey: privKey, agent: agent}, nil
}

// PrivKey 返回libp2p私钥，供主机装配使用
func (i *Identity) PrivKey() crypto.PrivKey {
	return i.privKey
}

// Agent 返回本地代理标识
func (i *Identity) Agent() types.AgentID {
	return i.agent
}

// Sign 对链头的规范序列化内容签名
func (i *Identity) Sign(ctx context.Context, data []byte) ([]byte, error) {
	signature, err := i.privKey.Sign(data)
	if err != nil {
		return nil, fmt.Errorf("链头签名失败: %w", err)
	}
	return signature, nil
}
