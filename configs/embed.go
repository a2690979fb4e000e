// Package configs 嵌入默认配置
package configs

import _ "embed"

// 嵌入默认配置文件（在configs目录内直接引用）
//
//go:embed default.json
var defaultConfig []byte

// GetDefaultConfig 获取内嵌的默认配置
func GetDefaultConfig() []byte {
	return defaultConfig
}
