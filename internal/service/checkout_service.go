package service

import (
	"fmt"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService 结算引擎
// 整个结算序列（订单、订单项、发票、债务读写、清车、状态翻转）在一个事务内执行，
// 任一步失败整体回滚。
type CheckoutService struct {
	cartRepo   repository.CartRepository
	orderRepo  repository.OrderRepository
	couponRepo repository.CouponRepository
	debtSvc    *DebtService
	couponSvc  *CouponService
	settings   *SettingService
	notifySvc  *NotificationService
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	debtSvc *DebtService,
	couponSvc *CouponService,
	settings *SettingService,
	notifySvc *NotificationService,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:   cartRepo,
		orderRepo:  orderRepo,
		couponRepo: couponRepo,
		debtSvc:    debtSvc,
		couponSvc:  couponSvc,
		settings:   settings,
		notifySvc:  notifySvc,
	}
}

// ConfirmCartRequest 结算请求
// GrandTotalOverride 仅在 ManualOverride 明确置位时生效，否则以服务端重算为准。
type ConfirmCartRequest struct {
	CartCode           string        `json:"cart_code" binding:"required"`
	Currency           string        `json:"currency"`
	PaidAmount         models.Money  `json:"paid_amount"`
	GrandTotalOverride *models.Money `json:"grand_total_override"`
	ManualOverride     bool          `json:"manual_override"`
	ShippingInfo       models.JSON   `json:"shipping_info"`
	PaymentInfo        models.JSON   `json:"payment_info"`
}

// SettlementResult 结算结果
type SettlementResult struct {
	Order          *models.Order        `json:"order"`
	Invoice        *models.Invoice      `json:"invoice"`
	ComputedTotal  models.Money         `json:"computed_total"`
	FinalTotal     models.Money         `json:"final_total"`
	SubmittedPaid  models.Money         `json:"submitted_paid"`
	NewDebt        *models.CustomerDebt `json:"new_debt,omitempty"`
	DebtAllocation *AllocationResult    `json:"debt_allocation,omitempty"`
	ExcessPayment  models.Money         `json:"excess_payment"`
	PostBalance    models.Money         `json:"post_balance"`
	ManualOverride bool                 `json:"manual_override"`
}

// ConfirmCartByCode 按购物车编号结算
// 付款分两支：足额或超付时清掉本单、余款按先进先出冲抵旧债；
// 欠付时差额只记成挂在本单上的新债，旧债一律不动。
func (s *CheckoutService) ConfirmCartByCode(staffID uint, req ConfirmCartRequest) (*SettlementResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.settings.GetReferenceCurrency()
	}
	switch currency {
	case constants.CurrencyUSD, constants.CurrencyTRY, constants.CurrencySYP:
	default:
		return nil, ErrCurrencyInvalid
	}
	if req.PaidAmount.Decimal.LessThan(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}

	cart, err := s.cartRepo.GetActiveByCode(req.CartCode)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	items, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	applied, err := s.couponRepo.ListApplied(cart.ID)
	if err != nil {
		return nil, err
	}

	computedTotal, unitPrices := s.computeTotal(items, applied, currency)

	finalTotal := computedTotal
	if req.ManualOverride && req.GrandTotalOverride != nil {
		finalTotal = *req.GrandTotalOverride
		logger.Warnw("settlement total manually overridden",
			"cart_code", cart.CartCode,
			"staff_id", staffID,
			"computed_total", computedTotal.String(),
			"override_total", finalTotal.String(),
			"currency", currency)
	}

	result := &SettlementResult{
		ComputedTotal:  computedTotal,
		FinalTotal:     finalTotal,
		SubmittedPaid:  req.PaidAmount,
		ExcessPayment:  models.NewMoneyFromInt(0),
		ManualOverride: req.ManualOverride && req.GrandTotalOverride != nil,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)
		couponRepo := s.couponRepo.WithTx(tx)

		now := time.Now()
		orderPaid := req.PaidAmount.Decimal
		if orderPaid.GreaterThan(finalTotal.Decimal) {
			orderPaid = finalTotal.Decimal
		}
		status := constants.OrderStatusUnpaid
		if orderPaid.GreaterThanOrEqual(finalTotal.Decimal) {
			status = constants.OrderStatusPaid
		} else if orderPaid.GreaterThan(decimal.Zero) {
			status = constants.OrderStatusPartial
		}

		order := &models.Order{
			UserID:         cart.UserID,
			CartID:         &cart.ID,
			Status:         status,
			Currency:       currency,
			TotalAmount:    finalTotal,
			PaidAmount:     models.NewMoneyFromDecimal(orderPaid),
			ManualOverride: result.ManualOverride,
			ShippingInfo:   req.ShippingInfo,
			PaymentInfo:    req.PaymentInfo,
			StaffID:        staffID,
			Items:          buildOrderItems(items, unitPrices, currency),
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}

		invoice := &models.Invoice{
			OrderID:       order.ID,
			InvoiceNumber: formatInvoiceNumber(constants.CodePrefixInvoice, now, order.ID),
			TotalAmount:   finalTotal,
			Currency:      currency,
			IssuedAt:      now,
		}
		if err := orderRepo.CreateInvoice(invoice); err != nil {
			return err
		}

		if req.PaidAmount.Decimal.GreaterThanOrEqual(finalTotal.Decimal) {
			surplus := req.PaidAmount.Decimal.Sub(finalTotal.Decimal)
			if surplus.GreaterThan(decimal.Zero) {
				allocation, err := s.debtSvc.AllocatePaymentTx(tx, cart.UserID,
					models.NewMoneyFromDecimal(surplus), currency, staffID,
					constants.DebtPaymentSourceCheckout)
				if err != nil {
					return err
				}
				result.DebtAllocation = allocation
				result.ExcessPayment = allocation.ExcessAmount
			}
		} else {
			shortfall := finalTotal.Decimal.Sub(req.PaidAmount.Decimal)
			debt, err := s.debtSvc.AddDebtTx(tx, cart.UserID, &order.ID,
				models.NewMoneyFromDecimal(shortfall),
				fmt.Sprintf("settlement shortfall for invoice %s", invoice.InvoiceNumber),
				currency)
			if err != nil {
				return err
			}
			result.NewDebt = debt
		}

		if err := couponRepo.DeleteAppliedByCart(cart.ID); err != nil {
			return err
		}
		if err := cartRepo.DeleteItemsByCart(cart.ID); err != nil {
			return err
		}
		if err := cartRepo.UpdateStatus(cart.ID, constants.CartStatusCompleted, nil); err != nil {
			return err
		}

		balance, err := s.debtSvc.balance(s.debtSvc.debtRepo.WithTx(tx), cart.UserID, currency)
		if err != nil {
			return err
		}
		result.PostBalance = balance
		result.Order = order
		result.Invoice = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("cart settled",
		"cart_code", cart.CartCode,
		"order_id", result.Order.ID,
		"invoice_number", result.Invoice.InvoiceNumber,
		"currency", currency,
		"final_total", finalTotal.String(),
		"submitted_paid", req.PaidAmount.String(),
		"post_balance", result.PostBalance.String())

	s.notifySvc.SendToUsers(NotificationMessage{
		Title: "Order confirmed",
		Body:  fmt.Sprintf("Your cart %s has been settled, invoice %s", cart.CartCode, result.Invoice.InvoiceNumber),
		Type:  constants.NotificationTypeCartSettled,
		Data: models.JSON{
			"order_id":       result.Order.ID,
			"invoice_number": result.Invoice.InvoiceNumber,
		},
	}, []uint{cart.UserID})

	return result, nil
}

// CreateReminderOrder 提醒窗口到期的购物车按清单价结单
// 生成 unpaid 订单与发票快照，通知顾客，购物车翻转为 completed 且 reminder_sent=1。
// 空车直接跳过且不标记，待下次扫描再看。
func (s *CheckoutService) CreateReminderOrder(cartID uint) error {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return err
	}
	if cart == nil || cart.Status != constants.CartStatusActive || cart.ReminderSent {
		return nil
	}

	items, err := s.cartRepo.ListItems(cartID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	currency := s.settings.GetReferenceCurrency()
	total := decimal.Zero
	unitPrices := make(map[uint]models.Money, len(items))
	for _, item := range items {
		if item.Size == nil {
			continue
		}
		price := item.Size.PriceFor(currency)
		unitPrices[item.ID] = price
		total = total.Add(price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	listTotal := models.NewMoneyFromDecimal(total)

	var invoiceNumber string
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		now := time.Now()
		order := &models.Order{
			UserID:      cart.UserID,
			CartID:      &cart.ID,
			Status:      constants.OrderStatusUnpaid,
			Currency:    currency,
			TotalAmount: listTotal,
			PaidAmount:  models.NewMoneyFromInt(0),
			Items:       buildOrderItems(items, unitPrices, currency),
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}

		invoice := &models.Invoice{
			OrderID:       order.ID,
			InvoiceNumber: formatInvoiceNumber(constants.CodePrefixInvoice, now, order.ID),
			TotalAmount:   listTotal,
			Currency:      currency,
			IssuedAt:      now,
		}
		if err := orderRepo.CreateInvoice(invoice); err != nil {
			return err
		}
		invoiceNumber = invoice.InvoiceNumber

		return cartRepo.UpdateStatus(cart.ID, constants.CartStatusCompleted, map[string]interface{}{
			"reminder_sent": true,
		})
	})
	if err != nil {
		return err
	}

	logger.Infow("reminder order created",
		"cart_code", cart.CartCode,
		"user_id", cart.UserID,
		"invoice_number", invoiceNumber,
		"total", listTotal.String(),
		"currency", currency)

	s.notifySvc.SendToUsers(NotificationMessage{
		Title: "Your cart was converted to an order",
		Body:  fmt.Sprintf("Cart %s was open too long and has been invoiced as %s", cart.CartCode, invoiceNumber),
		Type:  constants.NotificationTypeCartReminder,
		Data: models.JSON{
			"cart_code":      cart.CartCode,
			"invoice_number": invoiceNumber,
		},
	}, []uint{cart.UserID})
	return nil
}

// computeTotal 服务端重算结算总额
// 单价先套该项的项级优惠券，整车券再按折后小计套一次，全部在同一币种内进行。
func (s *CheckoutService) computeTotal(items []models.CartItem, applied []models.AppliedCoupon, currency string) (models.Money, map[uint]models.Money) {
	itemCoupons := make(map[uint][]*models.Coupon)
	var cartCoupons []*models.Coupon
	for _, row := range applied {
		if row.Coupon == nil {
			continue
		}
		if row.ItemID == nil {
			cartCoupons = append(cartCoupons, row.Coupon)
			continue
		}
		itemCoupons[*row.ItemID] = append(itemCoupons[*row.ItemID], row.Coupon)
	}

	subtotal := decimal.Zero
	unitPrices := make(map[uint]models.Money, len(items))
	for _, item := range items {
		if item.Size == nil {
			continue
		}
		unit := item.Size.PriceFor(currency).Decimal
		for _, coupon := range itemCoupons[item.ID] {
			discount := s.couponSvc.ComputeDiscount(models.NewMoneyFromDecimal(unit), coupon)
			unit = unit.Sub(discount.Decimal)
			if unit.LessThan(decimal.Zero) {
				unit = decimal.Zero
			}
		}
		unitPrices[item.ID] = models.NewMoneyFromDecimal(unit)
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	total := subtotal
	for _, coupon := range cartCoupons {
		discount := s.couponSvc.ComputeDiscount(models.NewMoneyFromDecimal(total), coupon)
		total = total.Sub(discount.Decimal)
		if total.LessThan(decimal.Zero) {
			total = decimal.Zero
		}
	}
	return models.NewMoneyFromDecimal(total), unitPrices
}

// buildOrderItems 由购物车项构建订单项快照
func buildOrderItems(items []models.CartItem, unitPrices map[uint]models.Money, currency string) []models.OrderItem {
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		names := make(models.StringArray, 0, len(item.Beneficiaries))
		for _, b := range item.Beneficiaries {
			names = append(names, b.Name)
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:       item.ProductID,
			ColorID:         item.ColorID,
			SizeID:          item.SizeID,
			Quantity:        item.Quantity,
			PriceAtPurchase: unitPrices[item.ID],
			Currency:        currency,
			Beneficiaries:   names,
		})
	}
	return orderItems
}
