package shared

import (
	"errors"

	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 按规则表输出错误，未命中时使用兜底码并记录原始错误。
// 库存不足时额外返回请求量与跨仓可用量。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	var insufficient *service.InsufficientStockError
	if errors.As(err, &insufficient) {
		RespondErrorWithData(c, response.CodeConflict, "error.insufficient_stock", gin.H{
			"product_id": insufficient.ProductID,
			"unit":       insufficient.Unit,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedErrors 合并多组映射规则。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// StockErrorRules 台账与预占相关的通用映射。
var StockErrorRules = []MappedError{
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.invalid_quantity"},
	{Target: service.ErrInvalidStockKey, Code: response.CodeBadRequest, Key: "error.invalid_stock_key"},
	{Target: service.ErrInsufficientStock, Code: response.CodeConflict, Key: "error.insufficient_stock"},
}

// OrderErrorRules 订单结算相关的映射。
var OrderErrorRules = []MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeConflict, Key: "error.order_status_invalid"},
	{Target: service.ErrLedgerReduceShortfall, Code: response.CodeConflict, Key: "error.order_reduce_shortfall"},
}
