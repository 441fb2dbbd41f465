package public

import (
	"strings"

	"github.com/assem2023-habib/shehrezad/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListMyDebts 查询自己的欠款记录
func (h *Handler) ListMyDebts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	debts, err := h.DebtService.ListDebts(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list debts", err)
		return
	}
	response.Success(c, gin.H{"debts": debts})
}

// ListMyDebtPayments 查询自己的还款历史
func (h *Handler) ListMyDebtPayments(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	payments, err := h.DebtService.ListPayments(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list debt payments", err)
		return
	}
	response.Success(c, gin.H{"payments": payments})
}

// GetMyBalance 查询自己的未结余额
func (h *Handler) GetMyBalance(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	currency := strings.TrimSpace(c.Query("currency"))
	if currency == "" {
		currency = h.SettingService.GetReferenceCurrency()
	}

	balance, err := h.DebtService.GetBalance(uid, currency)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to get balance", err)
		return
	}
	response.Success(c, gin.H{
		"balance":  balance,
		"currency": currency,
	})
}
