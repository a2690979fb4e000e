// Package types 定义HashWeft系统的核心数据类型
//
// ⚙️ **用户配置结构 (User Configuration)**
//
// 本文件定义配置文件（JSON）对应的用户配置结构。
//
// 🔧 零值陷阱处理说明：
// 为了区分"用户未设置"和"用户设置为零值"，可覆盖字段使用指针类型：
// - nil: 表示用户未在配置文件中设置该字段，将使用系统默认值
// - &value: 表示用户明确设置了该值，即使是零值也会被采用
package types

// AppConfig 应用统一配置结构
// 与配置文件的JSON顶层结构一一对应
type AppConfig struct {
	Log      *UserLogConfig      `json:"log,omitempty"`
	Storage  *UserStorageConfig  `json:"storage,omitempty"`
	Node     *UserNodeConfig     `json:"node,omitempty"`
	Pipeline *UserPipelineConfig `json:"pipeline,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level    *string `json:"level,omitempty"`     // 日志级别 (debug, info, warn, error, fatal)
	FilePath *string `json:"file_path,omitempty"` // 日志文件路径；设置后默认不再输出到控制台
}

// UserStorageConfig 用户存储配置
type UserStorageConfig struct {
	DataRoot   *string `json:"data_root,omitempty"`   // 数据根目录；BadgerDB使用 {data_root}/badger
	SyncWrites *bool   `json:"sync_writes,omitempty"` // 是否同步写入
}

// UserNodeConfig 用户节点网络配置
type UserNodeConfig struct {
	ListenAddresses []string `json:"listen_addresses,omitempty"` // libp2p监听地址
	BootstrapPeers  []string `json:"bootstrap_peers,omitempty"`  // 引导节点multiaddr列表
	AgentID         *string  `json:"agent_id,omitempty"`         // 本地代理标识（未设置则由节点身份派生）
}

// UserPipelineConfig 用户管线配置
type UserPipelineConfig struct {
	BatchSize      *int `json:"batch_size,omitempty"`       // 单轮工作流处理的最大操作数
	MaxDepAttempts *int `json:"max_dep_attempts,omitempty"` // 依赖未就绪时的最大重排队次数
	FetchTimeoutMS *int `json:"fetch_timeout_ms,omitempty"` // 级联网络检索超时（毫秒）
}
