package queue

import (
	"encoding/json"
	"testing"

	"github.com/stockhold-next/internal/config"
)

func TestNewOrderStockTaskRejectsUnknownType(t *testing.T) {
	if _, err := NewOrderStockTask("order:unknown", OrderStockPayload{OrderID: 1}); err == nil {
		t.Fatalf("expected error for unsupported task type")
	}
	task, err := NewOrderStockTask(TaskOrderStockFailed, OrderStockPayload{OrderID: 7})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskOrderStockFailed {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload OrderStockPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.OrderID != 7 {
		t.Fatalf("unexpected payload: %+v err=%v", payload, err)
	}
}

func TestOrderStockTaskIDDistinguishesOutcome(t *testing.T) {
	completed := orderStockTaskID(TaskOrderStockCompleted, 9)
	failed := orderStockTaskID(TaskOrderStockFailed, 9)
	if completed == failed {
		t.Fatalf("task ids must differ by outcome, got %s", completed)
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueReservationSweep(ReservationSweepPayload{DryRun: true}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
	if err := client.EnqueueOrderStock(TaskOrderStockCompleted, OrderStockPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] <= cfg.Queues[DefaultQueue] {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
