package pipeline

import (
	"time"

	configtypes "github.com/hashweft/v1/pkg/types"
)

// PipelineOptions 管线配置选项
type PipelineOptions struct {
	// === 工作流节奏配置 ===
	BatchSize      int `json:"batch_size"`       // 单轮工作流处理的最大操作数
	MaxDepAttempts int `json:"max_dep_attempts"` // 依赖未就绪时的最大重排队次数

	// === 网络配置 ===
	FetchTimeoutMS int `json:"fetch_timeout_ms"` // 级联网络检索超时（毫秒）
}

// Config 管线配置实现
type Config struct {
	options *PipelineOptions
}

// New 创建管线配置实现
func New(userConfig *configtypes.UserPipelineConfig) *Config {
	defaultOptions := createDefaultPipelineOptions()

	if userConfig != nil {
		applyUserConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// createDefaultPipelineOptions 创建默认管线配置
func createDefaultPipelineOptions() *PipelineOptions {
	return &PipelineOptions{
		BatchSize:      defaultBatchSize,
		MaxDepAttempts: defaultMaxDepAttempts,
		FetchTimeoutMS: defaultFetchTimeoutMS,
	}
}

// applyUserConfig 应用用户配置覆盖默认值
func applyUserConfig(options *PipelineOptions, userConfig *configtypes.UserPipelineConfig) {
	if userConfig.BatchSize != nil && *userConfig.BatchSize > 0 {
		options.BatchSize = *userConfig.BatchSize
	}
	if userConfig.MaxDepAttempts != nil && *userConfig.MaxDepAttempts > 0 {
		options.MaxDepAttempts = *userConfig.MaxDepAttempts
	}
	if userConfig.FetchTimeoutMS != nil && *userConfig.FetchTimeoutMS > 0 {
		options.FetchTimeoutMS = *userConfig.FetchTimeoutMS
	}
}

// GetOptions 获取完整的管线配置选项
func (c *Config) GetOptions() *PipelineOptions {
	return c.options
}

// GetBatchSize 获取单轮处理的最大操作数
func (c *Config) GetBatchSize() int {
	return c.options.BatchSize
}

// GetMaxDepAttempts 获取最大重排队次数
func (c *Config) GetMaxDepAttempts() int {
	return c.options.MaxDepAttempts
}

// GetFetchTimeout 获取级联网络检索超时
func (c *Config) GetFetchTimeout() time.Duration {
	return time.Duration(c.options.FetchTimeoutMS) * time.Millisecond
}
