// Package utils 提供HashWeft系统的通用工具函数
package utils

import (
	"os"
	"path/filepath"
)

// ResolveDataPath 将相对数据路径解析为绝对路径
// 相对路径以进程工作目录为基准；解析失败时原样返回
func ResolveDataPath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(wd, path)
}
