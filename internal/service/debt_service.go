package service

import (
	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DebtService 客户债务台账服务
// 债务行只通过还款路径变更，单笔还款在行锁事务内重读再写，分摊按创建时间先进先出。
type DebtService struct {
	debtRepo repository.DebtRepository
}

// NewDebtService 创建债务服务
func NewDebtService(debtRepo repository.DebtRepository) *DebtService {
	return &DebtService{debtRepo: debtRepo}
}

// DebtPaymentView 单笔还款结果
type DebtPaymentView struct {
	DebtID     uint         `json:"debt_id"`
	Amount     models.Money `json:"amount"`
	PaidAmount models.Money `json:"paid_amount"`
	Remaining  models.Money `json:"remaining"`
	Status     string       `json:"status"`
}

// AllocationResult 付款分摊结果
type AllocationResult struct {
	AmountPaid   models.Money      `json:"amount_paid"`
	ExcessAmount models.Money      `json:"excess_amount"`
	NewBalance   models.Money      `json:"new_balance"`
	Payments     []DebtPaymentView `json:"payments"`
}

// GetBalance 查询未结清余额，currency 为空时跨币种汇总
func (s *DebtService) GetBalance(userID uint, currency string) (models.Money, error) {
	return s.balance(s.debtRepo, userID, currency)
}

// ListDebts 查询债务历史
func (s *DebtService) ListDebts(userID uint) ([]models.CustomerDebt, error) {
	return s.debtRepo.ListByUser(userID)
}

// ListPayments 查询还款历史
func (s *DebtService) ListPayments(userID uint) ([]models.DebtPayment, error) {
	return s.debtRepo.ListPaymentsByUser(userID)
}

// AddDebt 新增债务（remaining = amount）
func (s *DebtService) AddDebt(userID uint, orderID *uint, amount models.Money, description, currency string) (*models.CustomerDebt, error) {
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}
	debt := &models.CustomerDebt{
		UserID:      userID,
		OrderID:     orderID,
		Amount:      amount,
		PaidAmount:  models.NewMoneyFromInt(0),
		Remaining:   amount,
		Status:      constants.DebtStatusPending,
		Currency:    currency,
		Description: description,
	}
	if err := s.debtRepo.Create(debt); err != nil {
		return nil, err
	}
	return debt, nil
}

// AddDebtTx 在外部事务内新增债务（结算路径使用）
func (s *DebtService) AddDebtTx(tx *gorm.DB, userID uint, orderID *uint, amount models.Money, description, currency string) (*models.CustomerDebt, error) {
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}
	debt := &models.CustomerDebt{
		UserID:      userID,
		OrderID:     orderID,
		Amount:      amount,
		PaidAmount:  models.NewMoneyFromInt(0),
		Remaining:   amount,
		Status:      constants.DebtStatusPending,
		Currency:    currency,
		Description: description,
	}
	if err := s.debtRepo.WithTx(tx).Create(debt); err != nil {
		return nil, err
	}
	return debt, nil
}

// RecordPayment 对指定债务记录还款
// 超过 remaining 的金额直接拒绝，状态在余额归零时翻转为 paid。
func (s *DebtService) RecordPayment(debtID uint, amount models.Money, staffID uint, source string) (*DebtPaymentView, error) {
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}

	var view *DebtPaymentView
	err := s.debtRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.debtRepo.WithTx(tx)
		debt, err := repo.GetByIDForUpdate(debtID)
		if err != nil {
			return err
		}
		if debt == nil {
			return ErrDebtNotFound
		}
		if amount.Decimal.GreaterThan(debt.Remaining.Decimal) {
			return ErrPaymentExceedsDebt
		}
		view, err = applyDebtPayment(repo, debt, amount, staffID, source)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AllocatePayment 按先进先出分摊付款
func (s *DebtService) AllocatePayment(userID uint, amount models.Money, currency string, staffID uint, source string) (*AllocationResult, error) {
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}

	var result *AllocationResult
	err := s.debtRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.AllocatePaymentTx(tx, userID, amount, currency, staffID, source)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AllocatePaymentTx 在外部事务内按先进先出分摊付款
// 逐笔应用 min(剩余付款, 债务剩余)，资金或债务先耗尽即止，多余部分仅上报不落库。
func (s *DebtService) AllocatePaymentTx(tx *gorm.DB, userID uint, amount models.Money, currency string, staffID uint, source string) (*AllocationResult, error) {
	repo := s.debtRepo.WithTx(tx)
	debts, err := repo.ListOpenByUserForUpdate(userID)
	if err != nil {
		return nil, err
	}

	remaining := amount.Decimal
	result := &AllocationResult{Payments: make([]DebtPaymentView, 0, len(debts))}

	for i := range debts {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		debt := &debts[i]
		if currency != "" && debt.Currency != currency {
			continue
		}
		portion := remaining
		if portion.GreaterThan(debt.Remaining.Decimal) {
			portion = debt.Remaining.Decimal
		}
		view, err := applyDebtPayment(repo, debt, models.NewMoneyFromDecimal(portion), staffID, source)
		if err != nil {
			return nil, err
		}
		result.Payments = append(result.Payments, *view)
		remaining = remaining.Sub(portion)
	}

	result.AmountPaid = models.NewMoneyFromDecimal(amount.Decimal.Sub(remaining))
	result.ExcessAmount = models.NewMoneyFromDecimal(remaining)

	balance, err := s.balance(repo, userID, currency)
	if err != nil {
		return nil, err
	}
	result.NewBalance = balance

	logger.Infow("debt payment allocated",
		"user_id", userID,
		"amount", amount.String(),
		"amount_paid", result.AmountPaid.String(),
		"excess_amount", result.ExcessAmount.String(),
		"payments", len(result.Payments))
	return result, nil
}

// balance 汇总未结清余额
func (s *DebtService) balance(repo repository.DebtRepository, userID uint, currency string) (models.Money, error) {
	if currency == "" {
		return repo.SumRemaining(userID)
	}
	debts, err := repo.ListOpenByUser(userID)
	if err != nil {
		return models.Money{}, err
	}
	total := decimal.Zero
	for _, debt := range debts {
		if currency != "" && debt.Currency != currency {
			continue
		}
		total = total.Add(debt.Remaining.Decimal)
	}
	return models.NewMoneyFromDecimal(total), nil
}

// applyDebtPayment 应用单笔还款并落流水
// 调用方负责债务行已持有行锁且 amount <= remaining。
func applyDebtPayment(repo repository.DebtRepository, debt *models.CustomerDebt, amount models.Money, staffID uint, source string) (*DebtPaymentView, error) {
	debt.PaidAmount = models.NewMoneyFromDecimal(debt.PaidAmount.Decimal.Add(amount.Decimal))
	debt.Remaining = models.NewMoneyFromDecimal(debt.Amount.Decimal.Sub(debt.PaidAmount.Decimal))
	if debt.Remaining.Decimal.IsZero() {
		debt.Status = constants.DebtStatusPaid
	} else {
		debt.Status = constants.DebtStatusPartial
	}
	if err := repo.Update(debt); err != nil {
		return nil, err
	}

	payment := &models.DebtPayment{
		DebtID:  debt.ID,
		UserID:  debt.UserID,
		Amount:  amount,
		Source:  source,
		StaffID: staffID,
	}
	if err := repo.CreatePayment(payment); err != nil {
		return nil, err
	}

	return &DebtPaymentView{
		DebtID:     debt.ID,
		Amount:     amount,
		PaidAmount: debt.PaidAmount,
		Remaining:  debt.Remaining,
		Status:     debt.Status,
	}, nil
}
