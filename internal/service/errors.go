package service

import "errors"

// 购物车相关错误
var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrCartItemLocked    = errors.New("cart item is locked")
	ErrCartLimitExceeded = errors.New("cart item limit exceeded")
	ErrQuantityInvalid   = errors.New("invalid quantity")
)

// 商品相关错误
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not available")
	ErrSizeNotFound      = errors.New("product size not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// 优惠券相关错误
var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is inactive")
	ErrCouponNotStarted  = errors.New("coupon is not started")
	ErrCouponExpired     = errors.New("coupon is expired")
	ErrCouponUsageLimit  = errors.New("coupon usage limit reached")
	ErrCouponMinAmount   = errors.New("coupon minimum purchase not met")
	ErrCouponNotEligible = errors.New("coupon is not eligible")
	ErrCouponInvalid     = errors.New("coupon is invalid")
)

// 债务与结算相关错误
var (
	ErrDebtNotFound         = errors.New("debt not found")
	ErrPaymentInvalid       = errors.New("invalid payment amount")
	ErrPaymentExceedsDebt   = errors.New("payment exceeds remaining debt")
	ErrCurrencyInvalid      = errors.New("invalid currency")
	ErrUserNotFound         = errors.New("user not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
