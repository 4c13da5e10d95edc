package models

import "time"

// Типы записей оплаченного контента.
const (
	// TypeSignature — регулярная подписка.
	TypeSignature = "SIG"
	// TypeOneTimeOnly — разовая покупка.
	TypeOneTimeOnly = "OTO"
)

// PaidContent представляет запись о купленном контенте клиента:
// подписку или разовую покупку. Запись создаётся только через
// регистрацию покупки и после создания не изменяется. Истечение
// вычисляется по ExpirationDate, отдельного поля статуса нет.
type PaidContent struct {
	ID             int        `json:"id"`                        // Идентификатор записи
	CustomerID     int        `json:"customer_id"`               // Клиент-владелец
	ContentType    string     `json:"content_type"`              // Тип: SIG или OTO
	StripeID       string     `json:"stripe_id"`                 // Ключ плана в каталоге
	Value          float64    `json:"value"`                     // Оплаченная сумма
	StartDate      time.Time  `json:"start_date"`                // Начало действия
	ExpirationDate *time.Time `json:"expiration_date,omitempty"` // Дата истечения, nil — бессрочно
	IsExclusive    bool       `json:"is_exclusive"`              // Взаимоисключающая подписка
}

// HasExpired сообщает, истекла ли запись. Запись без даты истечения
// не истекает никогда.
func (p *PaidContent) HasExpired() bool {
	if p.ExpirationDate == nil {
		return false
	}
	return p.ExpirationDate.Before(time.Now())
}
