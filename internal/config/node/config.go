package node

import (
	configtypes "github.com/hashweft/v1/pkg/types"
)

// NodeOptions 节点网络配置选项
type NodeOptions struct {
	// === 监听配置 ===
	ListenAddresses []string `json:"listen_addresses"` // libp2p监听地址

	// === 发现配置 ===
	BootstrapPeers []string `json:"bootstrap_peers"` // 引导节点multiaddr列表

	// === 身份配置 ===
	AgentID string `json:"agent_id"` // 本地代理标识；为空时由节点PeerID派生
}

// Config 节点网络配置实现
type Config struct {
	options *NodeOptions
}

// New 创建节点网络配置实现
func New(userConfig *configtypes.UserNodeConfig) *Config {
	defaultOptions := createDefaultNodeOptions()

	if userConfig != nil {
		applyUserConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// createDefaultNodeOptions 创建默认节点网络配置
func createDefaultNodeOptions() *NodeOptions {
	return &NodeOptions{
		ListenAddresses: defaultListenAddresses(),
		BootstrapPeers:  nil,
		AgentID:         "",
	}
}

// applyUserConfig 应用用户配置覆盖默认值
func applyUserConfig(options *NodeOptions, userConfig *configtypes.UserNodeConfig) {
	if len(userConfig.ListenAddresses) > 0 {
		options.ListenAddresses = userConfig.ListenAddresses
	}
	if len(userConfig.BootstrapPeers) > 0 {
		options.BootstrapPeers = userConfig.BootstrapPeers
	}
	if userConfig.AgentID != nil {
		options.AgentID = *userConfig.AgentID
	}
}

// GetOptions 获取完整的节点网络配置选项
func (c *Config) GetOptions() *NodeOptions {
	return c.options
}

// GetListenAddresses 获取监听地址列表
func (c *Config) GetListenAddresses() []string {
	return c.options.ListenAddresses
}

// GetBootstrapPeers 获取引导节点列表
func (c *Config) GetBootstrapPeers() []string {
	return c.options.BootstrapPeers
}

// GetAgentID 获取本地代理标识
func (c *Config) GetAgentID() string {
	return c.options.AgentID
}
