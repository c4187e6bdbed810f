package admin

import (
	"strings"
	"time"

	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
)

var warehouseErrorRules = []handlershared.MappedError{
	{Target: service.ErrWarehouseNotFound, Code: response.CodeNotFound, Key: "error.warehouse_not_found"},
	{Target: service.ErrWarehouseInvalid, Code: response.CodeBadRequest, Key: "error.warehouse_invalid"},
	{Target: service.ErrWarehouseCodeExists, Code: response.CodeConflict, Key: "error.warehouse_code_exists"},
	{Target: service.ErrWarehouseInUse, Code: response.CodeConflict, Key: "error.warehouse_in_use"},
}

var stockErrorRules = handlershared.ConcatMappedErrors(handlershared.StockErrorRules, []handlershared.MappedError{
	{Target: service.ErrWarehouseNotFound, Code: response.CodeNotFound, Key: "error.warehouse_not_found"},
	{Target: service.ErrStockSyncInvalid, Code: response.CodeBadRequest, Key: "error.stock_sync_invalid"},
})

var sweepErrorRules = []handlershared.MappedError{
	{Target: service.ErrSweepInProgress, Code: response.CodeConflict, Key: "error.sweep_in_progress"},
}

func respondWarehouseError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, warehouseErrorRules, response.CodeInternal, "error.warehouse_save_failed")
}

func respondStockError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, stockErrorRules, response.CodeInternal, "error.stock_save_failed")
}

func respondOrderSettleError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, handlershared.OrderErrorRules, response.CodeInternal, "error.order_settle_failed")
}

func respondSweepError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, sweepErrorRules, response.CodeInternal, "error.sweep_failed")
}

func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
