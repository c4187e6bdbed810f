package event

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stockhold-next/internal/logger"

	"gorm.io/gorm"
)

// Event 预占领域事件
type Event struct {
	Name        string    `json:"name"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      uint      `json:"user_id,omitempty"`
	OrderID     uint      `json:"order_id,omitempty"`
	CartItemID  uint      `json:"cart_item_id,omitempty"`
	ProductID   uint      `json:"product_id"`
	Unit        string    `json:"unit"`
	WarehouseID uint      `json:"warehouse_id,omitempty"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason,omitempty"`
}

// Listener 事务内同步监听器，返回错误会回滚发布方事务
type Listener interface {
	Handle(ctx context.Context, tx *gorm.DB, evt Event) error
}

// ListenerFunc 函数式监听器
type ListenerFunc func(ctx context.Context, tx *gorm.DB, evt Event) error

// Handle 实现 Listener
func (f ListenerFunc) Handle(ctx context.Context, tx *gorm.DB, evt Event) error {
	return f(ctx, tx, evt)
}

// Sink 事务提交后的投递目标，失败只记录日志
type Sink interface {
	Deliver(ctx context.Context, events []Event) error
}

// Dispatcher 进程内事件分发器
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	sinks     []Sink
}

// NewDispatcher 创建事件分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]Listener)}
}

// Subscribe 订阅事件，name 为空表示订阅全部事件
func (d *Dispatcher) Subscribe(name string, listener Listener) {
	if d == nil || listener == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.TrimSpace(name)
	d.listeners[key] = append(d.listeners[key], listener)
}

// AddSink 注册提交后投递目标
func (d *Dispatcher) AddSink(sink Sink) {
	if d == nil || sink == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// Publish 在调用方事务内按订阅顺序同步通知监听器
func (d *Dispatcher) Publish(ctx context.Context, tx *gorm.DB, evt Event) error {
	if d == nil {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	d.mu.RLock()
	listeners := make([]Listener, 0, len(d.listeners[evt.Name])+len(d.listeners[""]))
	listeners = append(listeners, d.listeners[evt.Name]...)
	listeners = append(listeners, d.listeners[""]...)
	d.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.Handle(ctx, tx, evt); err != nil {
			return fmt.Errorf("event %s listener failed: %w", evt.Name, err)
		}
	}
	return nil
}

// Deliver 事务提交后投递到外部目标
func (d *Dispatcher) Deliver(ctx context.Context, events []Event) {
	if d == nil || len(events) == 0 {
		return
	}
	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Deliver(ctx, events); err != nil {
			logger.Warnw("event_sink_deliver_failed",
				"event_count", len(events),
				"first_event", events[0].Name,
				"error", err,
			)
		}
	}
}

// Recorder 收集一次业务操作中发布的事件，提交成功后统一投递
type Recorder struct {
	dispatcher *Dispatcher
	events     []Event
}

// NewRecorder 创建事件收集器
func (d *Dispatcher) NewRecorder() *Recorder {
	return &Recorder{dispatcher: d}
}

// Publish 同步通知监听器并记录事件
func (r *Recorder) Publish(ctx context.Context, tx *gorm.DB, evt Event) error {
	if r == nil {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	if err := r.dispatcher.Publish(ctx, tx, evt); err != nil {
		return err
	}
	r.events = append(r.events, evt)
	return nil
}

// Reset 丢弃已记录事件（事务回滚后调用）
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.events = nil
}

// Flush 投递已记录事件并清空
func (r *Recorder) Flush(ctx context.Context) {
	if r == nil || len(r.events) == 0 {
		return
	}
	events := r.events
	r.events = nil
	r.dispatcher.Deliver(ctx, events)
}

// Events 返回已记录事件
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	return append([]Event(nil), r.events...)
}
