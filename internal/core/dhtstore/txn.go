package dhtstore

import (
	"context"
	"fmt"
	"sync"

	log "github.com/hashweft/v1/pkg/interfaces/infrastructure/log"
	interfaces "github.com/hashweft/v1/pkg/interfaces/infrastructure/storage"
)

// TxnManager 事务管理器
// 串行化全部写事务：同一时刻最多一个写事务存活，
// 写者互斥锁在Commit或Discard时释放；读事务不受限制
type TxnManager struct {
	store  interfaces.BadgerStore
	logger log.Logger

	// writerMu 写者互斥锁，保证管线状态变更全局串行
	writerMu sync.Mutex
}

// NewTxnManager 创建事务管理器
func NewTxnManager(store interfaces.BadgerStore, logger log.Logger) *TxnManager {
	return &TxnManager{
		store:  store,
		logger: logger.With("module", "dhtstore"),
	}
}

// NewWriteTxn 创建单次使用的写事务
// 阻塞直到取得写者互斥锁或上下文取消
func (m *TxnManager) NewWriteTxn(ctx context.Context) (*WriteTxn, error) {
	acquired := make(chan struct{})
	go func() {
		m.writerMu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// 后台goroutine最终会取得锁，立即归还避免泄漏
		go func() {
			<-acquired
			m.writerMu.Unlock()
		}()
		return nil, fmt.Errorf("等待写事务被取消: %w", ctx.Err())
	}

	tx, err := m.store.NewTransaction(ctx, true)
	if err != nil {
		m.writerMu.Unlock()
		return nil, err
	}
	return &WriteTxn{tx: tx, release: m.writerMu.Unlock}, nil
}

// NewReadTxn 创建只读快照事务
func (m *TxnManager) NewReadTxn(ctx context.Context) (interfaces.BadgerTransaction, error) {
	return m.store.NewTransaction(ctx, false)
}

// WriteTxn 单次使用的写事务
// Commit或Discard之后句柄失效并释放写者互斥锁
type WriteTxn struct {
	tx      interfaces.BadgerTransaction
	release func()
	mu      sync.Mutex
	done    bool
}

// Txn 返回底层事务句柄
func (w *WriteTxn) Txn() interfaces.BadgerTransaction {
	return w.tx
}

// Commit 提交事务并释放写者互斥锁
func (w *WriteTxn) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return fmt.Errorf("写事务已结束，不可重复提交")
	}
	w.done = true
	defer w.release()
	return w.tx.Commit()
}

// Discard 丢弃事务并释放写者互斥锁
// 幂等：Commit之后调用为空操作
func (w *WriteTxn) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	w.done = true
	w.tx.Discard()
	w.release()
}
