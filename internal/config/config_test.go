package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestNormalizeExpireMinutes(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: 1440},
		{in: -5, want: 1440},
		{in: 1, want: 1},
		{in: 30, want: 30},
		{in: 10080, want: 10080},
		{in: 20000, want: 10080},
	}
	for _, tc := range cases {
		if got := NormalizeExpireMinutes(tc.in); got != tc.want {
			t.Fatalf("NormalizeExpireMinutes(%d) want %d got %d", tc.in, tc.want, got)
		}
	}
}

func TestDecodeAppliesReservationBounds(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("reservation.expire_minutes", 99999)
	v.Set("stock_sync.batch_size", 0)

	cfg, err := decode(v)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Reservation.ExpireMinutes != 10080 {
		t.Fatalf("expire minutes should be clamped to 10080, got %d", cfg.Reservation.ExpireMinutes)
	}
	if cfg.StockSync.BatchSize != 500 {
		t.Fatalf("batch size should fall back to 500, got %d", cfg.StockSync.BatchSize)
	}
	if cfg.Reservation.SweepCron != "@every 5m" {
		t.Fatalf("unexpected sweep cron default: %s", cfg.Reservation.SweepCron)
	}
	if cfg.Queue.Queues["critical"] != 5 {
		t.Fatalf("unexpected queue weights: %+v", cfg.Queue.Queues)
	}
}
