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

func setupCheckoutServiceTest(t *testing.T) (*CheckoutService, *DebtService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductColor{},
		&models.ProductSize{},
		&models.Cart{},
		&models.CartItem{},
		&models.CartItemBeneficiary{},
		&models.Coupon{},
		&models.CouponUser{},
		&models.CouponProduct{},
		&models.AppliedCoupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.Invoice{},
		&models.CustomerDebt{},
		&models.DebtPayment{},
		&models.Notification{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	debtSvc := NewDebtService(repository.NewDebtRepository(db))
	settings := NewSettingService(repository.NewSettingRepository(db), nil)
	couponSvc := NewCouponService(couponRepo, cartRepo, settings)
	notifySvc := NewNotificationService(repository.NewNotificationRepository(db), nil)

	svc := NewCheckoutService(cartRepo, orderRepo, couponRepo, debtSvc, couponSvc, settings, notifySvc)
	return svc, debtSvc, db
}

func createCheckoutUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		CustomerCode: fmt.Sprintf("CUS-20250101-%05d", id),
		Name:         fmt.Sprintf("Customer %d", id),
		Email:        fmt.Sprintf("checkout_user_%d@example.com", id),
		PasswordHash: "hash",
		Role:         constants.RoleCustomer,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createCheckoutSize(t *testing.T, db *gorm.DB, priceTRY int64, stock int) *models.ProductSize {
	t.Helper()
	product := &models.Product{
		ProductCode: fmt.Sprintf("PRD-%d", time.Now().UnixNano()),
		Name:        "Classic Abaya",
		IsActive:    true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	color := &models.ProductColor{ProductID: product.ID, Name: "Black"}
	if err := db.Create(color).Error; err != nil {
		t.Fatalf("create color failed: %v", err)
	}
	size := &models.ProductSize{
		ProductID: product.ID,
		ColorID:   color.ID,
		Name:      "M",
		Quantity:  stock,
		PriceUSD:  models.NewMoneyFromInt(priceTRY / 30),
		PriceTRY:  models.NewMoneyFromInt(priceTRY),
		PriceSYP:  models.NewMoneyFromInt(priceTRY * 300),
	}
	if err := db.Create(size).Error; err != nil {
		t.Fatalf("create size failed: %v", err)
	}
	return size
}

func createCheckoutCart(t *testing.T, db *gorm.DB, userID uint, code string) *models.Cart {
	t.Helper()
	cart := &models.Cart{UserID: userID, CartCode: code, Status: constants.CartStatusActive}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	return cart
}

func addCheckoutItem(t *testing.T, db *gorm.DB, cart *models.Cart, size *models.ProductSize, quantity int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: size.ProductID,
		ColorID:   size.ColorID,
		SizeID:    size.ID,
		Quantity:  quantity,
		AddedAt:   time.Now().Add(-time.Hour),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	return item
}

func TestConfirmCartExactPaymentLeavesOldDebt(t *testing.T) {
	svc, debtSvc, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00001")
	addCheckoutItem(t, db, cart, size, 2)
	createTestDebt(t, db, user.ID, 80, constants.CurrencyTRY)

	result, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   cart.CartCode,
		PaidAmount: models.NewMoneyFromInt(500),
	})
	if err != nil {
		t.Fatalf("confirm cart failed: %v", err)
	}
	if !result.FinalTotal.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected total 500, got %s", result.FinalTotal)
	}
	if result.NewDebt != nil || result.DebtAllocation != nil {
		t.Fatalf("exact payment should not touch the ledger: %+v", result)
	}
	if !result.ExcessPayment.Decimal.IsZero() {
		t.Fatalf("expected no excess, got %s", result.ExcessPayment)
	}
	if !result.PostBalance.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("old debt must stay untouched, balance %s", result.PostBalance)
	}
	if result.Order.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", result.Order.Status)
	}
	if result.Order.Currency != constants.CurrencyTRY {
		t.Fatalf("expected reference currency TRY, got %s", result.Order.Currency)
	}

	wantInvoice := fmt.Sprintf("INV-%s-%05d", time.Now().Format("20060102"), result.Order.ID)
	if result.Invoice.InvoiceNumber != wantInvoice {
		t.Fatalf("expected invoice %s, got %s", wantInvoice, result.Invoice.InvoiceNumber)
	}

	var reloaded models.Cart
	if err := db.First(&reloaded, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloaded.Status != constants.CartStatusCompleted {
		t.Fatalf("cart should be completed, got %s", reloaded.Status)
	}
	var itemCount int64
	db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&itemCount)
	if itemCount != 0 {
		t.Fatalf("cart items should be cleared, got %d", itemCount)
	}

	balance, err := debtSvc.GetBalance(user.ID, constants.CurrencyTRY)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected balance 80, got %s", balance)
	}
}

func TestConfirmCartOverpaymentClearsOldDebtFIFO(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00002")
	addCheckoutItem(t, db, cart, size, 2)
	old := createTestDebt(t, db, user.ID, 80, constants.CurrencyTRY)

	result, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   cart.CartCode,
		PaidAmount: models.NewMoneyFromInt(600),
	})
	if err != nil {
		t.Fatalf("confirm cart failed: %v", err)
	}
	if result.DebtAllocation == nil {
		t.Fatalf("surplus should be allocated to old debt")
	}
	if !result.DebtAllocation.AmountPaid.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected 80 applied to old debt, got %s", result.DebtAllocation.AmountPaid)
	}
	if !result.ExcessPayment.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected excess 20, got %s", result.ExcessPayment)
	}
	if !result.PostBalance.Decimal.IsZero() {
		t.Fatalf("expected zero balance, got %s", result.PostBalance)
	}
	if !result.Order.PaidAmount.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("order paid amount capped at total, got %s", result.Order.PaidAmount)
	}

	// amount_paid + excess = submitted
	sum := result.Order.PaidAmount.Decimal.
		Add(result.DebtAllocation.AmountPaid.Decimal).
		Add(result.ExcessPayment.Decimal)
	if !sum.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("payment must be fully accounted for, got %s", sum)
	}

	var payment models.DebtPayment
	if err := db.Where("debt_id = ?", old.ID).First(&payment).Error; err != nil {
		t.Fatalf("load debt payment failed: %v", err)
	}
	if payment.Source != constants.DebtPaymentSourceCheckout {
		t.Fatalf("expected checkout_excess source, got %s", payment.Source)
	}
}

func TestConfirmCartUnderpaymentCreatesDebt(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00003")
	addCheckoutItem(t, db, cart, size, 2)
	old := createTestDebt(t, db, user.ID, 80, constants.CurrencyTRY)

	result, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   cart.CartCode,
		PaidAmount: models.NewMoneyFromInt(300),
	})
	if err != nil {
		t.Fatalf("confirm cart failed: %v", err)
	}
	if result.NewDebt == nil {
		t.Fatalf("shortfall should create a debt")
	}
	if !result.NewDebt.Amount.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected debt 200, got %s", result.NewDebt.Amount)
	}
	if result.NewDebt.OrderID == nil || *result.NewDebt.OrderID != result.Order.ID {
		t.Fatalf("debt should be tied to the order")
	}
	if result.Order.Status != constants.OrderStatusPartial {
		t.Fatalf("expected partial order, got %s", result.Order.Status)
	}
	if !result.PostBalance.Decimal.Equal(decimal.NewFromInt(280)) {
		t.Fatalf("expected balance 280, got %s", result.PostBalance)
	}

	var stored models.CustomerDebt
	if err := db.First(&stored, old.ID).Error; err != nil {
		t.Fatalf("reload old debt failed: %v", err)
	}
	if !stored.Remaining.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("old debt must stay untouched on underpayment, got %s", stored.Remaining)
	}
}

func TestConfirmCartAppliesCoupons(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00004")
	item := addCheckoutItem(t, db, cart, size, 2)

	percent := &models.Coupon{
		Code:          "TEN",
		DiscountType:  constants.CouponTypePercentage,
		DiscountValue: models.NewMoneyFromInt(10),
		Status:        constants.CouponStatusActive,
	}
	fixed := &models.Coupon{
		Code:          "FLAT30",
		DiscountType:  constants.CouponTypeFixed,
		DiscountValue: models.NewMoneyFromInt(30),
		Status:        constants.CouponStatusActive,
	}
	if err := db.Create(percent).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Create(fixed).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	itemID := item.ID
	applied := []models.AppliedCoupon{
		{CartID: cart.ID, ItemID: &itemID, CouponID: percent.ID, UserID: user.ID, AppliedAt: time.Now()},
		{CartID: cart.ID, CouponID: fixed.ID, UserID: user.ID, AppliedAt: time.Now()},
	}
	if err := db.Create(&applied).Error; err != nil {
		t.Fatalf("create applied coupons failed: %v", err)
	}

	// unit 250 - 10% = 225, x2 = 450, cart-level fixed 30 -> 420
	result, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   cart.CartCode,
		PaidAmount: models.NewMoneyFromInt(420),
	})
	if err != nil {
		t.Fatalf("confirm cart failed: %v", err)
	}
	if !result.ComputedTotal.Decimal.Equal(decimal.NewFromInt(420)) {
		t.Fatalf("expected discounted total 420, got %s", result.ComputedTotal)
	}
	if result.Order.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", result.Order.Status)
	}

	var orderItems []models.OrderItem
	if err := db.Where("order_id = ?", result.Order.ID).Find(&orderItems).Error; err != nil {
		t.Fatalf("list order items failed: %v", err)
	}
	if len(orderItems) != 1 || !orderItems[0].PriceAtPurchase.Decimal.Equal(decimal.NewFromInt(225)) {
		t.Fatalf("expected snapshot unit price 225, got %+v", orderItems)
	}

	var appliedCount int64
	db.Model(&models.AppliedCoupon{}).Where("cart_id = ?", cart.ID).Count(&appliedCount)
	if appliedCount != 0 {
		t.Fatalf("applied coupons should be removed after settlement, got %d", appliedCount)
	}
}

func TestConfirmCartManualOverride(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00005")
	addCheckoutItem(t, db, cart, size, 2)

	override := models.NewMoneyFromInt(450)
	result, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:           cart.CartCode,
		PaidAmount:         models.NewMoneyFromInt(450),
		GrandTotalOverride: &override,
		ManualOverride:     true,
	})
	if err != nil {
		t.Fatalf("confirm cart failed: %v", err)
	}
	if !result.ComputedTotal.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("computed total should stay 500, got %s", result.ComputedTotal)
	}
	if !result.FinalTotal.Decimal.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("expected override total 450, got %s", result.FinalTotal)
	}
	if !result.Order.ManualOverride {
		t.Fatalf("order should record the manual override")
	}
	if result.Order.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid order against the override, got %s", result.Order.Status)
	}
}

func TestCreateReminderOrder(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00007")
	addCheckoutItem(t, db, cart, size, 2)

	if err := svc.CreateReminderOrder(cart.ID); err != nil {
		t.Fatalf("create reminder order failed: %v", err)
	}

	var order models.Order
	if err := db.Where("cart_id = ?", cart.ID).First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.OrderStatusUnpaid {
		t.Fatalf("reminder order must start unpaid, got %s", order.Status)
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected list-price total 500, got %s", order.TotalAmount)
	}

	var invoice models.Invoice
	if err := db.Where("order_id = ?", order.ID).First(&invoice).Error; err != nil {
		t.Fatalf("load invoice failed: %v", err)
	}
	want := fmt.Sprintf("INV-%s-%05d", time.Now().Format("20060102"), order.ID)
	if invoice.InvoiceNumber != want {
		t.Fatalf("expected invoice %s, got %s", want, invoice.InvoiceNumber)
	}

	var reloaded models.Cart
	if err := db.First(&reloaded, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloaded.Status != constants.CartStatusCompleted || !reloaded.ReminderSent {
		t.Fatalf("cart should be completed with reminder_sent, got %+v", reloaded)
	}

	// 已结单的购物车再次触发是安全的空操作
	if err := svc.CreateReminderOrder(cart.ID); err != nil {
		t.Fatalf("second call should be a no-op, got %v", err)
	}
	var orderCount int64
	db.Model(&models.Order{}).Where("cart_id = ?", cart.ID).Count(&orderCount)
	if orderCount != 1 {
		t.Fatalf("expected a single order, got %d", orderCount)
	}
}

func TestCreateReminderOrderSkipsEmptyCart(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00008")

	if err := svc.CreateReminderOrder(cart.ID); err != nil {
		t.Fatalf("empty cart should be skipped, got %v", err)
	}

	var reloaded models.Cart
	if err := db.First(&reloaded, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloaded.ReminderSent || reloaded.Status != constants.CartStatusActive {
		t.Fatalf("empty cart must stay active and unmarked, got %+v", reloaded)
	}
}

func TestConfirmCartValidation(t *testing.T) {
	svc, _, db := setupCheckoutServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	empty := createCheckoutCart(t, db, user.ID, "CRT-20250101-00006")

	if _, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   "CRT-19990101-00001",
		PaidAmount: models.NewMoneyFromInt(10),
	}); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
	if _, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   empty.CartCode,
		PaidAmount: models.NewMoneyFromInt(10),
	}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	if _, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   empty.CartCode,
		Currency:   "EUR",
		PaidAmount: models.NewMoneyFromInt(10),
	}); !errors.Is(err, ErrCurrencyInvalid) {
		t.Fatalf("expected ErrCurrencyInvalid, got %v", err)
	}
	if _, err := svc.ConfirmCartByCode(9, ConfirmCartRequest{
		CartCode:   empty.CartCode,
		PaidAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(-1)),
	}); !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid, got %v", err)
	}
}
