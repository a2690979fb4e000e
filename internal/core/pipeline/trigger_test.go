// Package pipeline 触发通道测试
package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logimpl "github.com/hashweft/v1/internal/core/infrastructure/log"
)

// TestListen_WithManyTriggers_CoalescesToOneWakeup 测试N次触发合并为一次唤醒
func TestListen_WithManyTriggers_CoalescesToOneWakeup(t *testing.T) {
	// Arrange
	sender, receiver := NewTrigger("test", logimpl.Default())
	for i := 0; i < 100; i++ {
		sender.Trigger()
	}

	// Act
	err := receiver.Listen(context.Background())

	// Assert
	assert.NoError(t, err, "第一次Listen应该成功唤醒")

	// 再次Listen应该阻塞：全部信号已被排空
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = receiver.Listen(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "信号已合并排空，第二次Listen应该超时")
}

// TestTrigger_WithFullChannel_SucceedsSilently 测试队列已满时静默成功
func TestTrigger_WithFullChannel_SucceedsSilently(t *testing.T) {
	// Arrange
	sender, receiver := NewTrigger("test", logimpl.Default())

	// Act：远超容量的触发不应阻塞也不应panic
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			sender.Trigger()
		}
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("触发不应阻塞")
	}
	assert.NoError(t, receiver.Listen(context.Background()), "排队的信号应该可以唤醒")
}

// TestListen_AfterSenderClosed_ReturnsClosedError 测试发送端关闭后Listen上报关闭
func TestListen_AfterSenderClosed_ReturnsClosedError(t *testing.T) {
	// Arrange
	sender, receiver := NewTrigger("test", logimpl.Default())
	sender.Close()

	// Act
	err := receiver.Listen(context.Background())

	// Assert
	assert.ErrorIs(t, err, ErrTriggerClosed, "关闭后的Listen应该返回ErrTriggerClosed")
}

// TestListen_WithPendingListenWhenClosed_ResolvesClosed 测试挂起中的Listen观察到关闭
func TestListen_WithPendingListenWhenClosed_ResolvesClosed(t *testing.T) {
	// Arrange
	sender, receiver := NewTrigger("test", logimpl.Default())
	result := make(chan error, 1)
	go func() {
		result <- receiver.Listen(context.Background())
	}()
	// 等待Listen进入挂起
	time.Sleep(20 * time.Millisecond)

	// Act
	sender.Close()

	// Assert
	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrTriggerClosed, "挂起的Listen应该以关闭错误返回")
	case <-time.After(time.Second):
		t.Fatal("挂起的Listen应该被关闭唤醒")
	}
}

// TestTrigger_AfterClose_DropsSilently 测试关闭后触发被静默丢弃
func TestTrigger_AfterClose_DropsSilently(t *testing.T) {
	// Arrange
	sender, _ := NewTrigger("test", logimpl.Default())
	sender.Close()

	// Act & Assert：不应panic
	assert.NotPanics(t, func() {
		sender.Trigger()
		sender.Trigger()
	}, "关闭后的触发不应panic")
}

// TestClose_CalledTwice_IsIdempotent 测试重复关闭幂等
func TestClose_CalledTwice_IsIdempotent(t *testing.T) {
	// Arrange
	sender, _ := NewTrigger("test", logimpl.Default())

	// Act & Assert
	assert.NotPanics(t, func() {
		sender.Close()
		sender.Close()
	}, "重复关闭不应panic")
}

// TestTrigger_WithConcurrentProducers_NeverLosesWakeup 测试并发触发不丢失唤醒
func TestTrigger_WithConcurrentProducers_NeverLosesWakeup(t *testing.T) {
	// Arrange
	sender, receiver := NewTrigger("test", logimpl.Default())

	// Act：并发触发与消费交替进行
	rounds := 50
	var wg sync.WaitGroup
	for round := 0; round < rounds; round++ {
		wg.Add(4)
		for p := 0; p < 4; p++ {
			go func() {
				defer wg.Done()
				sender.Trigger()
			}()
		}
		wg.Wait()

		// Assert：每轮触发后Listen必然成功
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := receiver.Listen(ctx)
		cancel()
		require.NoError(t, err, "有信号排队时Listen不应超时")
	}
}

// TestInitializeWorkflows_CalledConcurrently_FiresEachTriggerOnce 测试引导幂等（并发）
func TestInitializeWorkflows_CalledConcurrently_FiresEachTriggerOnce(t *testing.T) {
	// Arrange
	logger := logimpl.Default()
	var senders []*TriggerSender
	var receivers []*TriggerReceiver
	for i := 0; i < 5; i++ {
		s, r := NewTrigger("stage", logger)
		senders = append(senders, s)
		receivers = append(receivers, r)
	}
	initial := newInitialTriggers(senders, logger)

	// Act：并发调用k次
	var wg sync.WaitGroup
	for k := 0; k < 16; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			initial.InitializeWorkflows()
		}()
	}
	wg.Wait()

	// Assert：每个通道恰好唤醒一次
	for i, receiver := range receivers {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := receiver.Listen(ctx)
		cancel()
		assert.NoError(t, err, "阶段%d应该收到首次触发", i)

		ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
		err = receiver.Listen(ctx2)
		cancel2()
		assert.ErrorIs(t, err, context.DeadlineExceeded, "阶段%d不应收到第二次触发", i)
	}
}
