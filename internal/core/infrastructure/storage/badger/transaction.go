package badger

import (
	"fmt"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
)

// 事务状态
const (
	txnStateActive int32 = iota
	txnStateCommitted
	txnStateDiscarded
)

// Transaction 实现BadgerTransaction接口
// 单次使用：Commit或Discard之后任何操作都会返回错误
type Transaction struct {
	txn    *badgerdb.Txn
	update bool
	state  int32
}

// 编译时校验Transaction实现了接口
var _ interfaces.BadgerTransaction = (*Transaction)(nil)

func newTransaction(txn *badgerdb.Txn, update bool) *Transaction {
	return &Transaction{
		txn:    txn,
		update: update,
		state:  txnStateActive,
	}
}

// checkActive 校验事务仍处于活跃状态
func (t *Transaction) checkActive() error {
	switch atomic.LoadInt32(&t.state) {
	case txnStateCommitted:
		return fmt.Errorf("事务已提交，不可再操作")
	case txnStateDiscarded:
		return fmt.Errorf("事务已丢弃，不可再操作")
	}
	return nil
}

// Get 在事务中读取键值
// 键不存在时返回nil值和nil错误
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	item, err := t.txn.Get(key)
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("事务读取键值失败: %w", err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("事务复制值失败: %w", err)
	}
	return value, nil
}

// Set 在事务中写入键值
func (t *Transaction) Set(key, value []byte) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if !t.update {
		return fmt.Errorf("只读事务不允许写入")
	}
	if err := t.txn.Set(key, value); err != nil {
		return fmt.Errorf("事务写入键值失败: %w", err)
	}
	return nil
}

// Delete 在事务中删除键值
func (t *Transaction) Delete(key []byte) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if !t.update {
		return fmt.Errorf("只读事务不允许删除")
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("事务删除键值失败: %w", err)
	}
	return nil
}

// Exists 在事务中检查键是否存在
func (t *Transaction) Exists(key []byte) (bool, error) {
	if err := t.checkActive(); err != nil {
		return false, err
	}
	_, err := t.txn.Get(key)
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return false, nil
		}
		return false, fmt.Errorf("事务检查键失败: %w", err)
	}
	return true, nil
}

// IteratePrefix 在事务中按前缀迭代
// 回调返回false时提前终止迭代
func (t *Transaction) IteratePrefix(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	it := t.txn.NewIterator(badgerdb.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("事务迭代复制值失败: %w", err)
		}
		cont, err := fn(item.KeyCopy(nil), value)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Commit 提交事务
// 只允许提交一次；提交后事务进入终态
func (t *Transaction) Commit() error {
	if !atomic.CompareAndSwapInt32(&t.state, txnStateActive, txnStateCommitted) {
		return fmt.Errorf("事务已结束，不可重复提交")
	}
	if err := t.txn.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// Discard 丢弃事务
// 幂等：已提交或已丢弃时为空操作
func (t *Transaction) Discard() {
	if atomic.CompareAndSwapInt32(&t.state, txnStateActive, txnStateDiscarded) {
		t.txn.Discard()
	}
}
