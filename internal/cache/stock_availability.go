package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const stockAvailabilityCacheTTL = 30 * time.Second

// StockAvailability 商品某单位的跨仓可用库存快照
// 仅用于展示，预占判断始终以加锁后的台账为准
type StockAvailability struct {
	ProductID uint   `json:"product_id"`
	Unit      string `json:"unit"`
	Available int    `json:"available"`
	UpdatedAt int64  `json:"updated_at"`
}

func stockAvailabilityKey(productID uint, unit string) string {
	return fmt.Sprintf("stock:available:%d:%s", productID, strings.ToLower(strings.TrimSpace(unit)))
}

// GetStockAvailability 获取可用库存快照
func GetStockAvailability(ctx context.Context, productID uint, unit string) (*StockAvailability, bool, error) {
	if productID == 0 {
		return nil, false, nil
	}
	var state StockAvailability
	hit, err := GetJSON(ctx, stockAvailabilityKey(productID, unit), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetStockAvailability 写入可用库存快照
func SetStockAvailability(ctx context.Context, state *StockAvailability) error {
	if state == nil || state.ProductID == 0 {
		return nil
	}
	if state.UpdatedAt == 0 {
		state.UpdatedAt = time.Now().Unix()
	}
	return SetJSON(ctx, stockAvailabilityKey(state.ProductID, state.Unit), state, stockAvailabilityCacheTTL)
}

// DelStockAvailability 台账变化后删除快照
func DelStockAvailability(ctx context.Context, productID uint, unit string) error {
	if productID == 0 {
		return nil
	}
	return Del(ctx, stockAvailabilityKey(productID, unit))
}
