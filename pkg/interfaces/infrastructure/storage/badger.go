// Package storage 提供HashWeft系统的BadgerDB存储接口定义
//
// 💾 **BadgerDB存储服务 (BadgerDB Storage Service)**
//
// 本文件定义了HashWeft系统的BadgerDB存储接口，专注于：
// - 高性能存储：BadgerDB的原生高性能键值存储服务
// - 事务支持：快照一致的读事务与原子提交的写事务
// - 作用域句柄：显式创建、显式提交/丢弃的事务句柄
//
// 🎯 **核心契约**
// - Get 对不存在的键返回 (nil, nil)，调用方以 nil 值判断缺失
// - 读事务可并发使用，各自持有一致性快照
// - 写事务为单次使用句柄：Commit 或 Discard 后即失效
//
// 🏧 **设计原则**
// - 性能优先：充分利用BadgerDB的性能优势
// - 数据安全：事务保证所有操作要么全部成功，要么全部失败
// - 易用性：简洁的接口设计和错误处理
package storage

import "context"

//=============================================================================
// BadgerStore 接口定义
//=============================================================================

// BadgerStore 定义了键值存储的应用接口
// 提供简单易用的键值存储操作与显式事务句柄
type BadgerStore interface {
	//-------------------------------------------------------------------------
	// 生命周期管理
	//-------------------------------------------------------------------------

	// Close 关闭BadgerDB数据库连接
	// 确保所有待处理的事务被提交，数据被正确写入磁盘
	// 应用关闭时必须调用此方法以避免数据损坏
	Close() error

	//-------------------------------------------------------------------------
	// 基本键值操作
	//-------------------------------------------------------------------------

	// Get 获取指定键的值
	// 如果键不存在，返回nil值和nil错误
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 设置键值对
	// 如果键已存在，将覆盖原有值
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除指定键的值
	// 如果键不存在，不会返回错误
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	//-------------------------------------------------------------------------
	// 扫描操作
	//-------------------------------------------------------------------------

	// PrefixScan 按前缀扫描键值对
	// 返回所有键以指定前缀开头的键值对，map的键为键的字符串表示
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)

	//-------------------------------------------------------------------------
	// 事务操作
	//-------------------------------------------------------------------------

	// RunInTransaction 在写事务中执行操作
	// fn函数在事务上下文中执行，可以执行多个原子操作
	// 如果fn返回错误，事务将被回滚；否则事务将被提交
	RunInTransaction(ctx context.Context, fn func(tx BadgerTransaction) error) error

	// NewTransaction 创建显式事务句柄
	// update为true时创建写事务，否则创建只读快照事务
	// 调用方必须保证在所有退出路径上调用 Commit 或 Discard
	NewTransaction(ctx context.Context, update bool) (BadgerTransaction, error)
}

//=============================================================================
// BadgerTransaction 接口定义
//=============================================================================

// BadgerTransaction 定义了键值存储事务操作接口
// 提供在单个事务中执行多个操作的能力
// 事务保证所有操作要么全部成功，要么全部失败
type BadgerTransaction interface {
	// Get 获取指定键的值
	// 如果键不存在，返回nil值和nil错误
	Get(key []byte) ([]byte, error)

	// Set 设置键值对
	// 只读事务调用时返回错误
	Set(key, value []byte) error

	// Delete 删除指定键的值
	// 如果键不存在，不会返回错误
	Delete(key []byte) error

	// Exists 检查键是否存在
	Exists(key []byte) (bool, error)

	// IteratePrefix 按前缀迭代键值对
	// fn返回false时提前终止迭代；fn返回错误时迭代中止并透传该错误
	IteratePrefix(prefix []byte, fn func(key, value []byte) (bool, error)) error

	// Commit 提交事务
	// 只读事务的Commit等价于释放快照
	Commit() error

	// Discard 丢弃事务
	// 在Commit之后调用是安全的空操作；必须保证每个事务最终被释放
	Discard()
}
