package public

import (
	"github.com/assem2023-habib/shehrezad/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ApplyCouponRequest 应用优惠券请求
type ApplyCouponRequest struct {
	Code   string `json:"code" binding:"required"`
	ItemID *uint  `json:"item_id"`
}

// ApplyCoupon 在购物车或单项上应用优惠券
func (h *Handler) ApplyCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.CouponService.Apply(uid, req.Code, req.ItemID)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, gin.H{
		"applied":   result.Applied,
		"duplicate": result.Duplicate,
		"coupon": gin.H{
			"id":   result.Coupon.ID,
			"code": result.Coupon.Code,
			"type": result.Coupon.DiscountType,
		},
	})
}

// ListAppliedCoupons 查询当前购物车上已应用的优惠券
func (h *Handler) ListAppliedCoupons(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	applied, err := h.CouponService.ListApplied(uid)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, gin.H{"applied": applied})
}

// RemoveAppliedCoupon 移除已应用的优惠券
func (h *Handler) RemoveAppliedCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	appliedID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.CouponService.RemoveApplied(uid, appliedID); err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": true})
}
