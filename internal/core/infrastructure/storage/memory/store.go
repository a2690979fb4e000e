// Package memory 提供内存版的键值存储实现
// 与BadgerDB实现遵守同一接口契约（缺失键返回nil值），
// 用于测试和无持久化需求的场景
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
)

// Store 内存键值存储
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// 编译时校验Store实现了接口
var _ interfaces.BadgerStore = (*Store)(nil)

// New 创建内存存储实例
func New() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Close 关闭存储（空操作）
func (s *Store) Close() error {
	return nil
}

// Get 获取指定键的值
// 键不存在时返回nil值和nil错误
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

// Set 设置键值对
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Delete 删除指定键的值
func (s *Store) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[string(key)]
	return ok, nil
}

// PrefixScan 按前缀扫描键值对
func (s *Store) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string][]byte)
	for key, value := range s.data {
		if bytes.HasPrefix([]byte(key), prefix) {
			result[key] = append([]byte(nil), value...)
		}
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
// 读事务持有创建时刻的快照；写事务缓冲写入，提交时整体应用
func (s *Store) NewTransaction(ctx context.Context, update bool) (interfaces.BadgerTransaction, error) {
	s.mu.RLock()
	snapshot := make(map[string][]byte, len(s.data))
	for key, value := range s.data {
		snapshot[key] = value
	}
	s.mu.RUnlock()

	return &Transaction{
		store:    s,
		snapshot: snapshot,
		update:   update,
		pending:  make(map[string][]byte),
		deleted:  make(map[string]bool),
	}, nil
}

// Transaction 内存事务句柄
type Transaction struct {
	store    *Store
	snapshot map[string][]byte
	update   bool

	mu      sync.Mutex
	pending map[string][]byte
	deleted map[string]bool
	done    bool
}

// 编译时校验Transaction实现了接口
var _ interfaces.BadgerTransaction = (*Transaction)(nil)

func (t *Transaction) checkActive() error {
	if t.done {
		return fmt.Errorf("事务已结束，不可再操作")
	}
	return nil
}

// Get 在事务视图中读取键值
func (t *Transaction) Get(key []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	k := string(key)
	if t.deleted[k] {
		return nil, nil
	}
	if value, ok := t.pending[k]; ok {
		return append([]byte(nil), value...), nil
	}
	if value, ok := t.snapshot[k]; ok {
		return append([]byte(nil), value...), nil
	}
	return nil, nil
}

// Set 在事务中缓冲写入
func (t *Transaction) Set(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if !t.update {
		return fmt.Errorf("只读事务不允许写入")
	}
	k := string(key)
	delete(t.deleted, k)
	t.pending[k] = append([]byte(nil), value...)
	return nil
}

// Delete 在事务中缓冲删除
func (t *Transaction) Delete(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if !t.update {
		return fmt.Errorf("只读事务不允许删除")
	}
	k := string(key)
	delete(t.pending, k)
	t.deleted[k] = true
	return nil
}

// Exists 在事务视图中检查键是否存在
func (t *Transaction) Exists(key []byte) (bool, error) {
	value, err := t.Get(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// IteratePrefix 在事务视图中按键序迭代前缀
func (t *Transaction) IteratePrefix(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	t.mu.Lock()
	if err := t.checkActive(); err != nil {
		t.mu.Unlock()
		return err
	}

	merged := make(map[string][]byte)
	for key, value := range t.snapshot {
		if bytes.HasPrefix([]byte(key), prefix) && !t.deleted[key] {
			merged[key] = value
		}
	}
	for key, value := range t.pending {
		if bytes.HasPrefix([]byte(key), prefix) {
			merged[key] = value
		}
	}
	t.mu.Unlock()

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cont, err := fn([]byte(key), append([]byte(nil), merged[key]...))
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Commit 提交事务，将缓冲的变更整体应用到存储
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return fmt.Errorf("事务已结束，不可重复提交")
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for key := range t.deleted {
		delete(t.store.data, key)
	}
	for key, value := range t.pending {
		t.store.data[key] = value
	}
	return nil
}

// Discard 丢弃事务
// 幂等：已提交或已丢弃时为空操作
func (t *Transaction) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}
