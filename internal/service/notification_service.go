package service

import (
	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/queue"
	"github.com/assem2023-habib/shehrezad/internal/repository"
)

// NotificationMessage 通知内容
type NotificationMessage struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Type  string      `json:"type"`
	Data  models.JSON `json:"data"`
}

// NotificationService 通知服务
// 先落库再走队列异步投递，投递失败只记日志，绝不阻塞调用方。
type NotificationService struct {
	repo        repository.NotificationRepository
	queueClient *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{repo: repo, queueClient: queueClient}
}

// SendToAdmin 发送管理端通知
func (s *NotificationService) SendToAdmin(msg NotificationMessage) {
	notification := &models.Notification{
		Audience: constants.NotificationAudienceAdmin,
		Title:    msg.Title,
		Body:     msg.Body,
		Type:     msg.Type,
		DataJSON: msg.Data,
	}
	s.persistAndEnqueue(notification)
}

// SendToUsers 发送用户通知
func (s *NotificationService) SendToUsers(msg NotificationMessage, userIDs []uint) {
	for _, userID := range userIDs {
		notification := &models.Notification{
			Audience: constants.NotificationAudienceUser,
			UserID:   userID,
			Title:    msg.Title,
			Body:     msg.Body,
			Type:     msg.Type,
			DataJSON: msg.Data,
		}
		s.persistAndEnqueue(notification)
	}
}

// ListForUser 查询用户通知
func (s *NotificationService) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	return s.repo.ListByUser(userID, limit)
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(userID uint, notificationID uint) error {
	notification, err := s.repo.GetByID(notificationID)
	if err != nil {
		return err
	}
	if notification == nil || notification.UserID != userID {
		return ErrNotificationNotFound
	}
	return s.repo.MarkRead(notificationID)
}

func (s *NotificationService) persistAndEnqueue(notification *models.Notification) {
	if err := s.repo.Create(notification); err != nil {
		logger.Errorw("notification persist failed",
			"audience", notification.Audience,
			"type", notification.Type,
			"error", err)
		return
	}
	err := s.queueClient.EnqueueNotificationDeliver(queue.NotificationDeliverPayload{
		NotificationID: notification.ID,
	})
	if err != nil {
		logger.Warnw("notification enqueue failed",
			"notification_id", notification.ID,
			"error", err)
	}
}
