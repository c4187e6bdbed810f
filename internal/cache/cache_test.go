package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stockhold-next/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("expected cache disabled")
	}
	ctx := context.Background()

	state, hit, err := GetStockAvailability(ctx, 1, "kg")
	if err != nil || hit || state != nil {
		t.Fatalf("expected miss, got state=%v hit=%v err=%v", state, hit, err)
	}
	if err := SetStockAvailability(ctx, &StockAvailability{ProductID: 1, Unit: "kg", Available: 3}); err != nil {
		t.Fatalf("set should be noop, got %v", err)
	}
	if err := DelStockAvailability(ctx, 1, "kg"); err != nil {
		t.Fatalf("del should be noop, got %v", err)
	}

	lock, err := TryLock(ctx, "sweep", time.Minute)
	if err != nil || lock == nil {
		t.Fatalf("expected local lock, got lock=%v err=%v", lock, err)
	}
	if err := lock.Unlock(ctx); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
}

func TestStockAvailabilityKeyNormalizesUnit(t *testing.T) {
	if got := stockAvailabilityKey(7, " KG "); got != "stock:available:7:kg" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	old := redisPrefix
	redisPrefix = "sh"
	defer func() { redisPrefix = old }()
	if got := buildKey("lock:sweep"); got != "sh:lock:sweep" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey(" "); got != "sh" {
		t.Fatalf("unexpected empty key: %s", got)
	}
}
