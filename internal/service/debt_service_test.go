package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDebtServiceTest(t *testing.T) (*DebtService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:debt_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.CustomerDebt{},
		&models.DebtPayment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewDebtService(repository.NewDebtRepository(db)), db
}

func createTestDebt(t *testing.T, db *gorm.DB, userID uint, amount int64, currency string) *models.CustomerDebt {
	t.Helper()
	debt := &models.CustomerDebt{
		UserID:     userID,
		Amount:     models.NewMoneyFromInt(amount),
		PaidAmount: models.NewMoneyFromInt(0),
		Remaining:  models.NewMoneyFromInt(amount),
		Status:     constants.DebtStatusPending,
		Currency:   currency,
	}
	if err := db.Create(debt).Error; err != nil {
		t.Fatalf("create debt failed: %v", err)
	}
	return debt
}

func TestRecordPaymentPartialThenPaid(t *testing.T) {
	svc, db := setupDebtServiceTest(t)
	debt := createTestDebt(t, db, 1, 100, constants.CurrencyTRY)

	view, err := svc.RecordPayment(debt.ID, models.NewMoneyFromInt(40), 9, constants.DebtPaymentSourceDirect)
	if err != nil {
		t.Fatalf("record payment failed: %v", err)
	}
	if !view.PaidAmount.Decimal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected paid 40, got %s", view.PaidAmount)
	}
	if !view.Remaining.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected remaining 60, got %s", view.Remaining)
	}
	if view.Status != constants.DebtStatusPartial {
		t.Fatalf("expected status partial, got %s", view.Status)
	}

	view, err = svc.RecordPayment(debt.ID, models.NewMoneyFromInt(60), 9, constants.DebtPaymentSourceDirect)
	if err != nil {
		t.Fatalf("record payment failed: %v", err)
	}
	if !view.Remaining.Decimal.IsZero() {
		t.Fatalf("expected remaining 0, got %s", view.Remaining)
	}
	if view.Status != constants.DebtStatusPaid {
		t.Fatalf("expected status paid, got %s", view.Status)
	}

	var stored models.CustomerDebt
	if err := db.First(&stored, debt.ID).Error; err != nil {
		t.Fatalf("reload debt failed: %v", err)
	}
	if !stored.Remaining.Decimal.Equal(stored.Amount.Decimal.Sub(stored.PaidAmount.Decimal)) {
		t.Fatalf("remaining %s != amount %s - paid %s", stored.Remaining, stored.Amount, stored.PaidAmount)
	}

	var payments []models.DebtPayment
	if err := db.Where("debt_id = ?", debt.ID).Find(&payments).Error; err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payment rows, got %d", len(payments))
	}
}

func TestRecordPaymentRejectsOverpayAndNonPositive(t *testing.T) {
	svc, db := setupDebtServiceTest(t)
	debt := createTestDebt(t, db, 1, 100, constants.CurrencyTRY)

	if _, err := svc.RecordPayment(debt.ID, models.NewMoneyFromInt(150), 9, constants.DebtPaymentSourceDirect); !errors.Is(err, ErrPaymentExceedsDebt) {
		t.Fatalf("expected ErrPaymentExceedsDebt, got %v", err)
	}
	if _, err := svc.RecordPayment(debt.ID, models.NewMoneyFromInt(0), 9, constants.DebtPaymentSourceDirect); !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid, got %v", err)
	}
	if _, err := svc.RecordPayment(9999, models.NewMoneyFromInt(10), 9, constants.DebtPaymentSourceDirect); !errors.Is(err, ErrDebtNotFound) {
		t.Fatalf("expected ErrDebtNotFound, got %v", err)
	}

	var stored models.CustomerDebt
	if err := db.First(&stored, debt.ID).Error; err != nil {
		t.Fatalf("reload debt failed: %v", err)
	}
	if !stored.Remaining.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("debt should be untouched, remaining %s", stored.Remaining)
	}
}

func TestAllocatePaymentFIFO(t *testing.T) {
	svc, db := setupDebtServiceTest(t)
	older := createTestDebt(t, db, 1, 100, constants.CurrencyTRY)
	newer := createTestDebt(t, db, 1, 50, constants.CurrencyTRY)

	result, err := svc.AllocatePayment(1, models.NewMoneyFromInt(120), constants.CurrencyTRY, 9, constants.DebtPaymentSourceDirect)
	if err != nil {
		t.Fatalf("allocate payment failed: %v", err)
	}
	if !result.AmountPaid.Decimal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected amount paid 120, got %s", result.AmountPaid)
	}
	if !result.ExcessAmount.Decimal.IsZero() {
		t.Fatalf("expected excess 0, got %s", result.ExcessAmount)
	}
	if !result.NewBalance.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected balance 30, got %s", result.NewBalance)
	}
	if len(result.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(result.Payments))
	}
	if result.Payments[0].DebtID != older.ID || result.Payments[1].DebtID != newer.ID {
		t.Fatalf("payments not applied oldest first: %+v", result.Payments)
	}

	var first, second models.CustomerDebt
	if err := db.First(&first, older.ID).Error; err != nil {
		t.Fatalf("reload older debt failed: %v", err)
	}
	if err := db.First(&second, newer.ID).Error; err != nil {
		t.Fatalf("reload newer debt failed: %v", err)
	}
	if first.Status != constants.DebtStatusPaid || !first.Remaining.Decimal.IsZero() {
		t.Fatalf("older debt should be paid, got %s remaining %s", first.Status, first.Remaining)
	}
	if second.Status != constants.DebtStatusPartial || !second.Remaining.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("newer debt should have 30 remaining, got %s remaining %s", second.Status, second.Remaining)
	}
}

func TestAllocatePaymentReportsExcess(t *testing.T) {
	svc, db := setupDebtServiceTest(t)
	createTestDebt(t, db, 1, 50, constants.CurrencyTRY)

	result, err := svc.AllocatePayment(1, models.NewMoneyFromInt(80), constants.CurrencyTRY, 9, constants.DebtPaymentSourceDirect)
	if err != nil {
		t.Fatalf("allocate payment failed: %v", err)
	}
	if !result.AmountPaid.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected amount paid 50, got %s", result.AmountPaid)
	}
	if !result.ExcessAmount.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected excess 30, got %s", result.ExcessAmount)
	}
	if !result.NewBalance.Decimal.IsZero() {
		t.Fatalf("expected balance 0, got %s", result.NewBalance)
	}

	var payments []models.DebtPayment
	if err := db.Where("user_id = ?", 1).Find(&payments).Error; err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(payments) != 1 || !payments[0].Amount.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected single payment of 50, got %+v", payments)
	}
}

func TestAllocatePaymentRespectsCurrency(t *testing.T) {
	svc, db := setupDebtServiceTest(t)
	try := createTestDebt(t, db, 1, 100, constants.CurrencyTRY)
	usd := createTestDebt(t, db, 1, 40, constants.CurrencyUSD)

	result, err := svc.AllocatePayment(1, models.NewMoneyFromInt(100), constants.CurrencyTRY, 9, constants.DebtPaymentSourceDirect)
	if err != nil {
		t.Fatalf("allocate payment failed: %v", err)
	}
	if len(result.Payments) != 1 || result.Payments[0].DebtID != try.ID {
		t.Fatalf("only the TRY debt should be touched: %+v", result.Payments)
	}

	var other models.CustomerDebt
	if err := db.First(&other, usd.ID).Error; err != nil {
		t.Fatalf("reload usd debt failed: %v", err)
	}
	if !other.Remaining.Decimal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("usd debt should be untouched, remaining %s", other.Remaining)
	}

	balance, err := svc.GetBalance(1, constants.CurrencyUSD)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected usd balance 40, got %s", balance)
	}
	total, err := svc.GetBalance(1, "")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !total.Decimal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected total balance 40, got %s", total)
	}
}

func TestAddDebtInitialState(t *testing.T) {
	svc, _ := setupDebtServiceTest(t)

	orderID := uint(7)
	debt, err := svc.AddDebt(1, &orderID, models.NewMoneyFromInt(200), "settlement shortfall", constants.CurrencyTRY)
	if err != nil {
		t.Fatalf("add debt failed: %v", err)
	}
	if debt.Status != constants.DebtStatusPending {
		t.Fatalf("expected pending, got %s", debt.Status)
	}
	if !debt.Remaining.Decimal.Equal(debt.Amount.Decimal) {
		t.Fatalf("remaining %s should equal amount %s", debt.Remaining, debt.Amount)
	}
	if debt.OrderID == nil || *debt.OrderID != orderID {
		t.Fatalf("order id not recorded: %v", debt.OrderID)
	}

	if _, err := svc.AddDebt(1, nil, models.NewMoneyFromInt(-5), "", constants.CurrencyTRY); !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid, got %v", err)
	}
}
