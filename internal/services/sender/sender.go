// Package services отправляет письма по событиям из очереди
// уведомлений: приветствие после регистрации и приглашение в команду.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// SenderService отправляет email-уведомления через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendWelcome отправляет приветственное письмо новому пользователю.
func (s *SenderService) SendWelcome(body []byte) error {
	var message models.NotificationMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Добро пожаловать в Subscription-backend"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаша учётная запись создана.\n\nЧтобы открыть все возможности сервиса, завершите настройку и выберите подходящий план.",
		message.FirstName)

	return s.sendEmail(to, subject, bodyText)
}

// SendInvite отправляет письмо-приглашение в команду. Приглашённый
// пользователь должен установить пароль, прежде чем сможет войти.
func (s *SenderService) SendInvite(body []byte) error {
	var message models.NotificationMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Вас пригласили в команду на Subscription-backend"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВас добавили в команду.\n\nЧтобы принять приглашение, установите пароль для своей учётной записи и войдите в сервис.",
		message.FirstName)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
