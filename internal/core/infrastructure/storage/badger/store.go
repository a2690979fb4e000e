// Package badger 提供基于BadgerDB的存储实现
package badger

import (
	"context"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v3"
	badgerconfig "github.com/hashweft/v1/internal/config/storage/badger"
	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
)

// Store 实现BadgerStore接口
type Store struct {
	db     *badgerdb.DB
	config *badgerconfig.Config
	logger log.Logger
}

// 编译时校验Store实现了接口
var _ interfaces.BadgerStore = (*Store)(nil)

// New 创建新的BadgerStore实例
// 初始化数据库并确保数据目录存在
func New(config *badgerconfig.Config, logger log.Logger) (*Store, error) {
	dataDir := config.GetPath()
	if dataDir == "" {
		return nil, fmt.Errorf("BadgerDB数据目录路径未配置")
	}

	logger.Infof("初始化BadgerDB存储，数据目录: %s", dataDir)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("无法创建BadgerDB数据目录: %w", err)
	}

	opts := badgerdb.DefaultOptions(dataDir)
	opts.SyncWrites = config.IsSyncWritesEnabled()
	opts.MemTableSize = config.GetMemTableSize()
	// 降低 ValueLogFileSize 减少 mmap 虚拟地址占用
	opts.ValueLogFileSize = 512 << 20
	// BadgerDB自带logger会打印到stderr，统一路由到系统日志
	opts.Logger = newBadgerLogger(logger)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开BadgerDB失败: %w", err)
	}

	return &Store{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	s.logger.Info("关闭BadgerDB存储")
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭BadgerDB失败: %w", err)
	}
	return nil
}

// Get 获取指定键的值
// 键不存在时返回nil值和nil错误
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return nil
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("读取键值失败: %w", err)
	}
	return value, nil
}

// Set 设置键值对
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("写入键值失败: %w", err)
	}
	return nil
}

// Delete 删除指定键的值
func (s *Store) Delete(ctx context.Context, key []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("删除键值失败: %w", err)
	}
	return nil
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key []byte) (bool, error) {
	exists := false
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return nil
			}
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("检查键是否存在失败: %w", err)
	}
	return exists, nil
}

// PrefixScan 按前缀扫描键值对
func (s *Store) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("前缀扫描失败: %w", err)
	}
	return result, nil
}

// RunInTransaction 在写事务中执行操作
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx interfaces.BadgerTransaction) error) error {
	tx, err := s.NewTransaction(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// NewTransaction 创建显式事务句柄
func (s *Store) NewTransaction(ctx context.Context, update bool) (interfaces.BadgerTransaction, error) {
	txn := s.db.NewTransaction(update)
	return newTransaction(txn, update), nil
}

// badgerLogger 将BadgerDB内部日志路由到系统日志
type badgerLogger struct {
	logger log.Logger
}

func newBadgerLogger(logger log.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.With("module", "storage")}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
