package app

import (
	"github.com/hashweft/v1/pkg/interfaces/dht"
	"github.com/hashweft/v1/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
//
// 🔧 零值陷阱处理说明：
// 配置字段沿用types.AppConfig的指针约定，区分"用户未设置"与
// "用户设置为零值"两种情况
type options struct {
	// 配置文件路径
	configFilePath string

	// 嵌入的配置内容（优先级高于configFilePath）
	embeddedConfig []byte

	// 用户配置
	appConfig *types.AppConfig

	// 数据根目录覆盖（优先级高于配置内的 data_root）
	dataDir string

	// 应用验证策略；未设置时使用全量接受策略
	appValidator dht.AppValidator
}

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithEmbeddedConfig 设置嵌入的配置内容（优先级高于WithConfigFile）
func WithEmbeddedConfig(configBytes []byte) Option {
	return func(o *options) {
		o.embeddedConfig = configBytes
	}
}

// WithNode 设置节点网络配置选项
func WithNode(userNodeConfig *types.UserNodeConfig) Option {
	return func(o *options) {
		if o.appConfig == nil {
			o.appConfig = &types.AppConfig{}
		}
		o.appConfig.Node = userNodeConfig
	}
}

// WithDataDir 覆盖数据根目录
func WithDataDir(dataDir string) Option {
	return func(o *options) {
		o.dataDir = dataDir
	}
}

// WithAppValidator 设置应用验证策略
// 应用层经此注入自己的语义规则；未设置时所有元素均被接受
func WithAppValidator(validator dht.AppValidator) Option {
	return func(o *options) {
		o.appValidator = validator
	}
}

// newOptions 创建选项
func newOptions(opts ...Option) *options {
	options := &options{
		appConfig: &types.AppConfig{},
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
