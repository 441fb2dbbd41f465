package public

import (
	"strconv"

	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateCartItemRequest 更新购物车项请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// BeneficiariesRequest 受益人名单请求
type BeneficiariesRequest struct {
	Names []string `json:"names"`
}

// GetCart 获取当前购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	view, err := h.CartService.GetCart(uid)
	if err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, view)
}

// AddCartItem 添加购物车项
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	item, err := h.CartService.AddItem(uid, req)
	if err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"item": item})
}

// UpdateCartItem 更新购物车项数量（数量为 0 等同删除）
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if err := h.CartService.UpdateItem(uid, itemID, req.Quantity); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.CartService.RemoveItem(uid, itemID); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart 清空购物车中未锁定的项
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.CartService.ClearCart(uid); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// SetCartItemBeneficiaries 设置购物车项受益人名单
func (h *Handler) SetCartItemBeneficiaries(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BeneficiariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	names, err := h.CartService.SetItemBeneficiaries(uid, itemID, req.Names)
	if err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, gin.H{"names": names})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}
