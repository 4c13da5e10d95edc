// Package services содержит публикацию уведомлений в RabbitMQ.
// Публикация не должна блокировать или ронять основную операцию:
// вызывающий код логирует ошибку и продолжает работу.
package services

import (
	"fmt"

	"github.com/streadway/amqp"

	librabbitmq "github.com/magabrotheeeer/subscription-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/rabbitmq"
)

// NotifyService публикует события уведомлений в обменник notifications.
type NotifyService struct {
	ch *amqp.Channel
}

// NewNotifyService создает новый экземпляр NotifyService.
func NewNotifyService(ch *amqp.Channel) *NotifyService {
	return &NotifyService{ch: ch}
}

// PublishWelcome публикует событие приветственного письма.
func (s *NotifyService) PublishWelcome(email, firstName string) error {
	const op = "notify.PublishWelcome"
	message := models.NotificationMessage{Email: email, FirstName: firstName}
	if err := librabbitmq.PublishMessage(s.ch, rabbitmq.Exchange, rabbitmq.RoutingKeyWelcome, message); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublishInvite публикует событие письма-приглашения.
func (s *NotifyService) PublishInvite(email, firstName string) error {
	const op = "notify.PublishInvite"
	message := models.NotificationMessage{Email: email, FirstName: firstName}
	if err := librabbitmq.PublishMessage(s.ch, rabbitmq.Exchange, rabbitmq.RoutingKeyInvite, message); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
