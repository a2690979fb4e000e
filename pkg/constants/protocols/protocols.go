// Package protocols 定义HashWeft系统的网络协议与主题常量
//
// 🌐 **协议命名规范**
// - 流式协议：/hashweft/{domain}/{name}/{version}
// - 订阅主题：hashweft.{domain}.{name}.{version}
package protocols

// 流式协议标识
const (
	// FetchProtocol 级联检索协议：按内容哈希请求元素/链头/条目
	FetchProtocol = "/hashweft/dht/fetch/1.0.0"
)

// 订阅主题
const (
	// OpGossipTopic DHT操作传播主题
	// 发布方：Publish工作流；订阅方：gossip入站处理器
	OpGossipTopic = "hashweft.dht.ops.v1"
)
