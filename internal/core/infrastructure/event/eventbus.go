// Package event 提供基于EventBus的进程内事件总线实现
package event

import (
	evbus "github.com/asaskevich/EventBus"
	eventInterface "github.com/hashweft/v1/pkg/interfaces/infrastructure/event"
	"github.com/hashweft/v1/pkg/types"
)

// Bus 事件总线实现，封装asaskevich/EventBus
type Bus struct {
	bus evbus.Bus
}

// 编译时校验Bus实现了接口
var _ eventInterface.EventBus = (*Bus)(nil)

// New 创建新的事件总线实例
func New() *Bus {
	return &Bus{
		bus: evbus.New(),
	}
}

// Subscribe 订阅事件（同步回调）
func (b *Bus) Subscribe(topic types.EventType, fn interface{}) error {
	return b.bus.Subscribe(string(topic), fn)
}

// SubscribeAsync 订阅事件（异步回调）
// transactional为true时同一订阅者的回调串行执行
func (b *Bus) SubscribeAsync(topic types.EventType, fn interface{}, transactional bool) error {
	return b.bus.SubscribeAsync(string(topic), fn, transactional)
}

// SubscribeOnce 订阅事件（只触发一次）
func (b *Bus) SubscribeOnce(topic types.EventType, fn interface{}) error {
	return b.bus.SubscribeOnce(string(topic), fn)
}

// Publish 发布事件
func (b *Bus) Publish(topic types.EventType, args ...interface{}) {
	b.bus.Publish(string(topic), args...)
}

// Unsubscribe 取消订阅
func (b *Bus) Unsubscribe(topic types.EventType, fn interface{}) error {
	return b.bus.Unsubscribe(string(topic), fn)
}

// WaitAsync 等待所有异步回调完成
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

// HasCallback 检查主题是否有订阅者
func (b *Bus) HasCallback(topic types.EventType) bool {
	return b.bus.HasCallback(string(topic))
}
