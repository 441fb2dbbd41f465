package public

import (
	"errors"

	handlershared "github.com/assem2023-habib/shehrezad/internal/http/handlers/shared"
	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartMutationErrorRules = []mappedHandlerError{
	{target: service.ErrCartNotFound, code: response.CodeNotFound, msg: "cart not found"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrCartItemLocked, code: response.CodeBadRequest, msg: "cart item is locked"},
	{target: service.ErrCartLimitExceeded, code: response.CodeBadRequest, msg: "cart item limit exceeded"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "quantity is invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductInactive, code: response.CodeBadRequest, msg: "product is not available"},
	{target: service.ErrSizeNotFound, code: response.CodeNotFound, msg: "product size not found"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCartNotFound, code: response.CodeNotFound, msg: "cart not found"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrCouponNotFound, code: response.CodeNotFound, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon is inactive"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, msg: "coupon is not active yet"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon has expired"},
	{target: service.ErrCouponUsageLimit, code: response.CodeBadRequest, msg: "coupon usage limit reached"},
	{target: service.ErrCouponMinAmount, code: response.CodeBadRequest, msg: "cart does not meet coupon minimum amount"},
	{target: service.ErrCouponNotEligible, code: response.CodeForbidden, msg: "coupon is not eligible for this user or product"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "coupon is invalid"},
}

func respondCartMutationError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartMutationErrorRules, response.CodeInternal, "cart operation failed")
}

func respondCouponError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponErrorRules, response.CodeInternal, "coupon operation failed")
}
