package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/provider"
	"github.com/assem2023-habib/shehrezad/internal/queue"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDeliver, c.handleNotificationDeliver)
	mux.HandleFunc(queue.TaskCartReminder, c.handleCartReminder)
}

func (c *Consumer) handleNotificationDeliver(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_deliver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_deliver_unmarshal_failed", "error", err)
		return err
	}
	if payload.NotificationID == 0 {
		logger.Debugw("worker_notification_deliver_skip_invalid_payload", "notification_id", payload.NotificationID)
		return nil
	}
	notification, err := c.NotificationRepo.GetByID(payload.NotificationID)
	if err != nil {
		logger.Warnw("worker_notification_deliver_fetch_failed", "notification_id", payload.NotificationID, "error", err)
		return err
	}
	if notification == nil {
		logger.Debugw("worker_notification_deliver_skip_not_found", "notification_id", payload.NotificationID)
		return nil
	}
	logger.Infow("notification delivered",
		"notification_id", notification.ID,
		"audience", notification.Audience,
		"user_id", notification.UserID,
		"type", notification.Type,
	)
	return nil
}

func (c *Consumer) handleCartReminder(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_reminder_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_reminder_unmarshal_failed", "error", err)
		return err
	}
	if payload.CartID == 0 {
		logger.Debugw("worker_cart_reminder_skip_invalid_payload", "cart_id", payload.CartID)
		return nil
	}
	if c.CheckoutService == nil {
		logger.Warnw("worker_cart_reminder_skip_checkout_service_nil", "cart_id", payload.CartID)
		return nil
	}
	if err := c.CheckoutService.CreateReminderOrder(payload.CartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debugw("worker_cart_reminder_skip_cart_not_found", "cart_id", payload.CartID)
			return nil
		}
		logger.Warnw("worker_cart_reminder_failed", "cart_id", payload.CartID, "error", err)
		return err
	}
	return nil
}
