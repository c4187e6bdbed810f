package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stockhold-next/internal/constants"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type recordingSink struct {
	batches [][]Event
}

func (s *recordingSink) Deliver(_ context.Context, events []Event) error {
	s.batches = append(s.batches, events)
	return nil
}

func TestDispatcherPublishOrderAndWildcard(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	d.Subscribe(constants.EventCartItemRemoved, ListenerFunc(func(_ context.Context, _ *gorm.DB, evt Event) error {
		calls = append(calls, "first:"+evt.Name)
		return nil
	}))
	d.Subscribe(constants.EventCartItemRemoved, ListenerFunc(func(_ context.Context, _ *gorm.DB, evt Event) error {
		calls = append(calls, "second:"+evt.Name)
		return nil
	}))
	d.Subscribe("", ListenerFunc(func(_ context.Context, _ *gorm.DB, evt Event) error {
		calls = append(calls, "all:"+evt.Name)
		return nil
	}))

	if err := d.Publish(context.Background(), nil, Event{Name: constants.EventCartItemRemoved}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := d.Publish(context.Background(), nil, Event{Name: constants.EventOrderFailed}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	want := []string{
		"first:" + constants.EventCartItemRemoved,
		"second:" + constants.EventCartItemRemoved,
		"all:" + constants.EventCartItemRemoved,
		"all:" + constants.EventOrderFailed,
	}
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d want %s got %s", i, want[i], calls[i])
		}
	}
}

func TestDispatcherListenerErrorPropagates(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	d.Subscribe(constants.EventOrderCompleted, ListenerFunc(func(context.Context, *gorm.DB, Event) error {
		return boom
	}))
	err := d.Publish(context.Background(), nil, Event{Name: constants.EventOrderCompleted})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped listener error, got %v", err)
	}
}

func TestRecorderFlushDeliversOnce(t *testing.T) {
	d := NewDispatcher()
	sink := &recordingSink{}
	d.AddSink(sink)
	rec := d.NewRecorder()

	if err := rec.Publish(context.Background(), nil, Event{Name: constants.EventCartItemRemoved, ProductID: 1}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("sink must not receive events before flush")
	}
	rec.Flush(context.Background())
	rec.Flush(context.Background())
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected one batch with one event, got %+v", sink.batches)
	}
	if sink.batches[0][0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be stamped")
	}

	if err := rec.Publish(context.Background(), nil, Event{Name: constants.EventCartItemRemoved}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	rec.Reset()
	rec.Flush(context.Background())
	if len(sink.batches) != 1 {
		t.Fatalf("reset events must not be delivered")
	}
}

func TestAuditListenerWritesWithinTransaction(t *testing.T) {
	dsn := fmt.Sprintf("file:event_audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ReservationAuditLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := repository.NewReservationAuditLogRepository(db)
	d := NewDispatcher()
	d.Subscribe("", NewAuditListener(repo))

	evt := Event{
		Name:        constants.EventCartItemRemoved,
		UserID:      3,
		CartItemID:  9,
		ProductID:   5,
		Unit:        "kg",
		WarehouseID: 2,
		Quantity:    4,
		Reason:      constants.CartRemoveReasonUser,
	}
	rollback := errors.New("rollback")
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := d.Publish(context.Background(), tx, evt); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("expected rollback, got %v", err)
	}
	rows, total, err := repo.List(repository.ReservationAuditLogListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Fatalf("rolled back audit log must not persist, got %d", total)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return d.Publish(context.Background(), tx, evt)
	}); err != nil {
		t.Fatalf("publish in tx failed: %v", err)
	}
	rows, total, err = repo.List(repository.ReservationAuditLogListFilter{Event: constants.EventCartItemRemoved})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || rows[0].Quantity != 4 || rows[0].Reason != constants.CartRemoveReasonUser {
		t.Fatalf("unexpected audit rows: %+v", rows)
	}
	if v, ok := rows[0].Detail["cart_item_id"]; !ok || v.(float64) != 9 {
		t.Fatalf("expected cart_item_id in detail, got %+v", rows[0].Detail)
	}
}

func TestKafkaSinkDeliver(t *testing.T) {
	writer := &fakeWriter{}
	sink := newKafkaSinkWithWriter(writer, "stock.reservation.events")
	events := []Event{
		{Name: constants.EventCartItemRemoved, ProductID: 42, Unit: "kg", Quantity: 2},
		{Name: constants.EventOrderCompleted, ProductID: 43, OrderID: 7, Quantity: 1},
	}
	if err := sink.Deliver(context.Background(), events); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(writer.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(writer.msgs))
	}
	if string(writer.msgs[0].Key) != "42" {
		t.Fatalf("expected product id key, got %s", writer.msgs[0].Key)
	}
	var decoded Event
	if err := json.Unmarshal(writer.msgs[1].Value, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.OrderID != 7 || decoded.Name != constants.EventOrderCompleted {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}

	writer.err = errors.New("broker down")
	if err := sink.Deliver(context.Background(), events); err == nil {
		t.Fatalf("expected writer error")
	}
}

func TestNewKafkaSinkDisabled(t *testing.T) {
	if NewKafkaSink(nil) != nil {
		t.Fatalf("expected nil sink for nil config")
	}
}
