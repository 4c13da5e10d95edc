// Package smtp оборачивает net/smtp в интерфейсы, чтобы сервис
// отправки писем можно было тестировать без реального SMTP-сервера.
package smtp

import "io"

// Client повторяет минимальный набор методов smtp.Client,
// необходимый для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface устанавливает соединение с SMTP-сервером
// и знает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
