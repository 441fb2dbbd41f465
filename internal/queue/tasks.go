package queue

import (
	"encoding/json"

	"github.com/assem2023-habib/shehrezad/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDeliver 通知投递任务
	TaskNotificationDeliver = constants.TaskNotificationDeliver
	// TaskCartReminder 购物车提醒结单任务
	TaskCartReminder = constants.TaskCartReminder
)

// NotificationDeliverPayload 通知投递任务载荷
type NotificationDeliverPayload struct {
	NotificationID uint `json:"notification_id"`
}

// CartReminderPayload 购物车提醒结单任务载荷
type CartReminderPayload struct {
	CartID uint `json:"cart_id"`
}

// NewNotificationDeliverTask 创建通知投递任务
func NewNotificationDeliverTask(payload NotificationDeliverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDeliver, body), nil
}

// NewCartReminderTask 创建购物车提醒结单任务
func NewCartReminderTask(payload CartReminderPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartReminder, body), nil
}
