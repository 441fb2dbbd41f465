package admin

import (
	"errors"
	"strings"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordPaymentRequest 单笔还款请求
type RecordPaymentRequest struct {
	Amount models.Money `json:"amount" binding:"required"`
}

// AllocatePaymentRequest 按余额冲抵请求
type AllocatePaymentRequest struct {
	Amount   models.Money `json:"amount" binding:"required"`
	Currency string       `json:"currency"`
}

// RecordDebtPayment 在指定债务上登记还款
func (h *Handler) RecordDebtPayment(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	debtID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	payment, err := h.DebtService.RecordPayment(debtID, req.Amount, staffID, constants.DebtPaymentSourceDirect)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDebtNotFound):
			respondError(c, response.CodeNotFound, "debt not found", nil)
		case errors.Is(err, service.ErrPaymentInvalid):
			respondError(c, response.CodeBadRequest, "payment amount is invalid", nil)
		case errors.Is(err, service.ErrPaymentExceedsDebt):
			respondError(c, response.CodeBadRequest, "payment exceeds remaining debt", nil)
		default:
			respondError(c, response.CodeInternal, "failed to record payment", err)
		}
		return
	}
	response.Success(c, payment)
}

// ListUserDebts 查询指定顾客的债务记录
func (h *Handler) ListUserDebts(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	debts, err := h.DebtService.ListDebts(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list debts", err)
		return
	}
	response.Success(c, gin.H{"debts": debts})
}

// AllocateUserPayment 收款按先进先出冲抵顾客未结债务
func (h *Handler) AllocateUserPayment(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AllocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = h.SettingService.GetReferenceCurrency()
	}

	result, err := h.DebtService.AllocatePayment(userID, req.Amount, currency, staffID, constants.DebtPaymentSourceDirect)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentInvalid):
			respondError(c, response.CodeBadRequest, "payment amount is invalid", nil)
		case errors.Is(err, service.ErrCurrencyInvalid):
			respondError(c, response.CodeBadRequest, "currency is invalid", nil)
		default:
			respondError(c, response.CodeInternal, "failed to allocate payment", err)
		}
		return
	}
	response.Success(c, result)
}

// GetUserBalance 查询指定顾客的未结余额
func (h *Handler) GetUserBalance(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	currency := strings.TrimSpace(c.Query("currency"))
	if currency == "" {
		currency = h.SettingService.GetReferenceCurrency()
	}

	balance, err := h.DebtService.GetBalance(userID, currency)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to get balance", err)
		return
	}
	response.Success(c, gin.H{
		"balance":  balance,
		"currency": currency,
	})
}
