package admin

import (
	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrder 查询订单详情（含订单项与发票）
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderRepo.GetByID(orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to get order", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, service.ErrOrderNotFound.Error(), service.ErrOrderNotFound)
		return
	}
	response.Success(c, order)
}
