package node

// defaultListenAddresses 零配置回退监听地址
// 与libp2p的常规零配置一致：TCP任意端口 + QUIC任意端口
func defaultListenAddresses() []string {
	return []string{
		"/ip4/0.0.0.0/tcp/0",
		"/ip6/::/tcp/0",
		"/ip4/0.0.0.0/udp/0/quic-v1",
		"/ip6/::/udp/0/quic-v1",
	}
}
