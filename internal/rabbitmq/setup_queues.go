package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации уведомлений.
const (
	// RoutingKeyWelcome — приветственное письмо после регистрации.
	RoutingKeyWelcome = "welcome"
	// RoutingKeyInvite — приглашение для нового пользователя из профиля.
	RoutingKeyInvite = "invite"
)

// Очереди уведомлений.
const (
	QueueWelcome = "notifications.welcome"
	QueueInvite  = "notifications.invite"
)

// GetNotificationQueues возвращает очереди уведомлений сервиса.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueWelcome, RoutingKey: RoutingKeyWelcome},
		{QueueName: QueueInvite, RoutingKey: RoutingKeyInvite},
	}
}
