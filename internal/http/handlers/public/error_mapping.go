package public

import (
	handlershared "github.com/stockhold-next/internal/http/handlers/shared"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
)

var cartWriteErrorRules = handlershared.ConcatMappedErrors(handlershared.StockErrorRules, []handlershared.MappedError{
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound, Key: "error.cart_item_not_found"},
})

var checkoutErrorRules = handlershared.ConcatMappedErrors(handlershared.StockErrorRules, []handlershared.MappedError{
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrReservationMissing, Code: response.CodeConflict, Key: "error.reservation_missing"},
})

func respondCartWriteError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, cartWriteErrorRules, response.CodeInternal, "error.cart_update_failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.checkout_failed")
}
