package models

// NotificationMessage описывает сообщение для воркера отправки писем.
// Публикуется в RabbitMQ сервисами регистрации и профилей.
type NotificationMessage struct {
	Email     string `json:"email"`      // Адрес получателя
	FirstName string `json:"first_name"` // Имя получателя
}
