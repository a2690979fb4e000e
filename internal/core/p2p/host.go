// 本文件负责装配libp2p主机与路由：传输/安全/复用沿用libp2p默认栈，
// 监听地址支持零配置回退；Kademlia DHT承担提供者记录路由，
// GossipSub承担操作传播。只做装配，不包含业务逻辑。
package p2p

import (
	"context"
	"fmt"

	libp2p "github.com/libp2p/go-libp2p"
	kaddht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	lphost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	nodeconfig "github.com/hashweft/v1/internal/config/node"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
)

// Node 网络节点
// 聚合主机、Kademlia路由与GossipSub，生命周期由fx托管
type Node struct {
	Host   lphost.Host
	DHT    *kaddht.IpfsDHT
	PubSub *pubsub.PubSub

	logger log.Logger
}

// NewNode 装配网络节点
// 装配顺序：身份 → 监听地址 → 主机 → Kademlia → GossipSub → 引导连接
func NewNode(ctx context.Context, cfg *nodeconfig.Config, identity *Identity, logger log.Logger) (*Node, error) {
	opts := []libp2p.Option{
		libp2p.Identity(identity.PrivKey()),
		libp2p.ListenAddrStrings(listenAddresses(cfg)...),
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("构建libp2p主机失败: %w", err)
	}

	kdht, err := kaddht.New(ctx, h, kaddht.Mode(kaddht.ModeAutoServer))
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("构建Kademlia路由失败: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		_ = kdht.Close()
		_ = h.Close()
		return nil, fmt.Errorf("构建GossipSub失败: %w", err)
	}

	node := &Node{
		Host:   h,
		DHT:    kdht,
		PubSub: ps,
		logger: logger.With("module", "p2p"),
	}
	node.logger.Infof("网络节点已就绪: peer=%s addrs=%v", h.ID(), h.Addrs())

	node.connectBootstrapPeers(ctx, cfg.GetBootstrapPeers())
	if err := kdht.Bootstrap(ctx); err != nil {
		node.logger.Warnf("Kademlia引导失败: %v", err)
	}
	return node, nil
}

// listenAddresses 读取监听地址，空配置回退到随机端口
func listenAddresses(cfg *nodeconfig.Config) []string {
	addrs := cfg.GetListenAddresses()
	if len(addrs) > 0 {
		return addrs
	}
	return []string{
		"/ip4/0.0.0.0/tcp/0",
		"/ip6/::/tcp/0",
	}
}

// connectBootstrapPeers 连接引导节点
// 单个引导节点失败只记录，不阻断启动
func (n *Node) connectBootstrapPeers(ctx context.Context, peers []string) {
	for _, raw := range peers {
		addr, err := ma.NewMultiaddr(raw)
		if err != nil {
			n.logger.Warnf("引导节点地址无效: %s: %v", raw, err)
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			n.logger.Warnf("引导节点地址缺少peer标识: %s: %v", raw, err)
			continue
		}
		if err := n.Host.Connect(ctx, *info); err != nil {
			n.logger.Warnf("连接引导节点失败: %s: %v", info.ID, err)
			continue
		}
		n.logger.Infof("已连接引导节点: %s", info.ID)
	}
}

// Close 关闭网络节点
func (n *Node) Close() error {
	if err := n.DHT.Close(); err != nil {
		n.logger.Warnf("关闭Kademlia路由失败: %v", err)
	}
	if err := n.Host.Close(); err != nil {
		return fmt.Errorf("关闭libp2p主机失败: %w", err)
	}
	return nil
}
