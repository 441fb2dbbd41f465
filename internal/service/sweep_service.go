package service

import (
	"fmt"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/queue"
	"github.com/assem2023-habib/shehrezad/internal/repository"
)

// SweepService 购物车定时扫描服务（锁定过期项、触发提醒订单）
type SweepService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	settings    *SettingService
	notifySvc   *NotificationService
	queueClient *queue.Client
}

// NewSweepService 创建定时扫描服务
func NewSweepService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	settings *SettingService,
	notifySvc *NotificationService,
	queueClient *queue.Client,
) *SweepService {
	return &SweepService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		settings:    settings,
		notifySvc:   notifySvc,
		queueClient: queueClient,
	}
}

// LockExpiredItems 锁定编辑窗口已过的购物车项并扣减库存
func (s *SweepService) LockExpiredItems(now time.Time) error {
	window := time.Duration(s.settings.GetLockWindowMinutes()) * time.Minute
	cutoff := now.Add(-window)
	items, err := s.cartRepo.ListExpiredUnlocked(cutoff)
	if err != nil {
		return err
	}
	carts := make(map[uint]*models.Cart)
	for i := range items {
		if err := s.lockItem(&items[i], carts); err != nil {
			logger.Warnw("sweep_lock_item_failed", "item_id", items[i].ID, "cart_id", items[i].CartID, "error", err)
		}
	}
	return nil
}

func (s *SweepService) lockItem(item *models.CartItem, carts map[uint]*models.Cart) error {
	rows, err := s.cartRepo.MarkItemLocked(item.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	deducted, err := s.productRepo.DeductSizeStock(item.SizeID, item.Quantity)
	if err != nil {
		return err
	}
	if deducted == 0 {
		logger.Warnw("sweep_stock_insufficient", "item_id", item.ID, "size_id", item.SizeID, "quantity", item.Quantity)
	} else {
		if err := s.cartRepo.MarkItemStockDeducted(item.ID); err != nil {
			return err
		}
	}

	cart, ok := carts[item.CartID]
	if !ok {
		cart, err = s.cartRepo.GetByID(item.CartID)
		if err != nil {
			return err
		}
		carts[item.CartID] = cart
	}
	customerName := ""
	cartCode := ""
	if cart != nil {
		cartCode = cart.CartCode
		if user, err := s.userRepo.GetByID(cart.UserID); err == nil && user != nil {
			customerName = user.Name
		}
	}
	logger.Infow("cart item locked",
		"item_id", item.ID,
		"cart_id", item.CartID,
		"cart_code", cartCode,
		"size_id", item.SizeID,
		"quantity", item.Quantity,
		"stock_deducted", deducted > 0,
	)
	if s.notifySvc != nil {
		s.notifySvc.SendToAdmin(NotificationMessage{
			Title: "Cart item locked",
			Body:  fmt.Sprintf("Item in cart %s for %s is now locked for settlement", cartCode, customerName),
			Type:  constants.NotificationTypeItemLocked,
			Data: models.JSON{
				"cart_id":   item.CartID,
				"cart_code": cartCode,
				"item_id":   item.ID,
				"quantity":  item.Quantity,
			},
		})
	}
	return nil
}

// EnqueueDueReminders 为超过提醒窗口的购物车投递提醒任务
func (s *SweepService) EnqueueDueReminders(now time.Time) error {
	days := s.settings.GetReminderWindowDays()
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	carts, err := s.cartRepo.ListRemindersDue(cutoff)
	if err != nil {
		return err
	}
	for i := range carts {
		cart := &carts[i]
		if s.queueClient == nil || !s.queueClient.Enabled() {
			logger.Debugw("sweep_reminder_skip_queue_disabled", "cart_id", cart.ID)
			continue
		}
		if err := s.queueClient.EnqueueCartReminder(queue.CartReminderPayload{CartID: cart.ID}); err != nil {
			logger.Warnw("sweep_reminder_enqueue_failed", "cart_id", cart.ID, "error", err)
			continue
		}
		logger.Debugw("sweep_reminder_enqueued", "cart_id", cart.ID, "cart_code", cart.CartCode)
	}
	return nil
}
