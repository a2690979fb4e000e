package dhtstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/hashweft/v1/pkg/types"
)

// 元素缓存参数
const (
	// elementCacheTTL 缓存条目存活时间
	// 元素内容寻址且不可变，TTL仅用于控制内存占用
	elementCacheTTL = 10 * time.Minute

	// elementCacheMaxMB 缓存内存上限（MB）
	elementCacheMaxMB = 64
)

// ElementCache 权威层元素读缓存
// 仅缓存vault层元素：权威层数据不可变，命中即有效，无需失效逻辑
type ElementCache struct {
	cache *bigcache.BigCache
}

// NewElementCache 创建元素读缓存
func NewElementCache() (*ElementCache, error) {
	config := bigcache.DefaultConfig(elementCacheTTL)
	config.HardMaxCacheSize = elementCacheMaxMB
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("初始化元素缓存失败: %w", err)
	}
	return &ElementCache{cache: cache}, nil
}

// Get 读取缓存的元素
func (c *ElementCache) Get(hash types.HeaderHash) (*types.Element, bool) {
	data, err := c.cache.Get(string(hash))
	if err != nil {
		return nil, false
	}
	var el types.Element
	if err := json.Unmarshal(data, &el); err != nil {
		return nil, false
	}
	return &el, true
}

// Set 写入元素到缓存
// 序列化失败时静默跳过，缓存只是读路径的加速
func (c *ElementCache) Set(hash types.HeaderHash, el *types.Element) {
	data, err := json.Marshal(el)
	if err != nil {
		return
	}
	_ = c.cache.Set(string(hash), data)
}

// Close 释放缓存资源
func (c *ElementCache) Close() error {
	return c.cache.Close()
}
