package admin

import (
	"errors"
	"strings"

	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfirmCart 按购物车编号结算
func (h *Handler) ConfirmCart(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	var req service.ConfirmCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.CheckoutService.ConfirmCartByCode(staffID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			respondError(c, response.CodeNotFound, "cart not found", nil)
		case errors.Is(err, service.ErrCartEmpty):
			respondError(c, response.CodeBadRequest, "cart is empty", nil)
		case errors.Is(err, service.ErrCurrencyInvalid):
			respondError(c, response.CodeBadRequest, "currency is invalid", nil)
		case errors.Is(err, service.ErrPaymentInvalid):
			respondError(c, response.CodeBadRequest, "paid amount is invalid", nil)
		default:
			respondError(c, response.CodeInternal, "settlement failed", err)
		}
		return
	}
	response.Success(c, result)
}

// GetCartByCode 按编号查询购物车
func (h *Handler) GetCartByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "cart code is required", nil)
		return
	}

	view, err := h.CartService.GetCartByCode(code)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			respondError(c, response.CodeNotFound, "cart not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to get cart", err)
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 强制删除购物车项（已扣库存的项会回补库存）
func (h *Handler) RemoveCartItem(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.CartService.RemoveItemByStaff(staffID, itemID); err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			respondError(c, response.CodeNotFound, "cart item not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to remove cart item", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
