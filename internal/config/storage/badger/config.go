package badger

import (
	"path/filepath"

	configtypes "github.com/hashweft/v1/pkg/types"
	"github.com/hashweft/v1/pkg/utils"
)

// BadgerOptions BadgerDB存储配置选项
// 专注于基础设施核心功能的简化配置
type BadgerOptions struct {
	// === 基础配置 ===
	Path       string `json:"path"`        // 数据库存储路径
	SyncWrites bool   `json:"sync_writes"` // 是否同步写入（数据安全性）

	// === 基础性能配置 ===
	MemTableSize int64 `json:"mem_table_size"` // 内存表大小
}

// Config BadgerDB配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建BadgerDB配置实现
func New(userConfig *configtypes.UserStorageConfig) *Config {
	defaultOptions := createDefaultBadgerOptions()

	// 如果有用户配置，应用用户配置覆盖默认值
	if userConfig != nil {
		applyUserConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// NewFromOptions 从BadgerOptions创建配置实现
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{
		options: options,
	}
}

// createDefaultBadgerOptions 创建默认BadgerDB配置
func createDefaultBadgerOptions() *BadgerOptions {
	return &BadgerOptions{
		Path:         getDefaultPath(),
		SyncWrites:   defaultSyncWrites,
		MemTableSize: defaultMemTableSize,
	}
}

// applyUserConfig 应用用户配置覆盖默认值
//
// 路径构建规则：
// - 如果配置了 storage.data_root，使用 {data_root}/badger/
// - 如果未配置，使用默认值 ./data/badger/
func applyUserConfig(options *BadgerOptions, userConfig *configtypes.UserStorageConfig) {
	if userConfig.DataRoot != nil {
		badgerPath := filepath.Join(*userConfig.DataRoot, "badger")
		options.Path = utils.ResolveDataPath(badgerPath)
	}
	if userConfig.SyncWrites != nil {
		options.SyncWrites = *userConfig.SyncWrites
	}
}

// GetOptions 获取完整的BadgerDB配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}

// GetPath 获取数据库存储路径
func (c *Config) GetPath() string {
	return c.options.Path
}

// IsSyncWritesEnabled 检查是否启用同步写入
func (c *Config) IsSyncWritesEnabled() bool {
	return c.options.SyncWrites
}

// GetMemTableSize 获取内存表大小
func (c *Config) GetMemTableSize() int64 {
	return c.options.MemTableSize
}
