// Package models содержит доменную модель системы: пользователей,
// клиентов (организации-арендаторы), профили с ролями и записи
// оплаченного контента. Структуры используются в бизнес-логике
// и при работе с хранилищем.
package models

import "time"

// User представляет учётную запись системы. Email используется как
// логин, username отсутствует. PasswordHash пустой строкой означает
// «непригодный пароль» — такие пользователи создаются приглашением
// и активируются через восстановление пароля.
type User struct {
	UID          string    `json:"uid"`          // Уникальный идентификатор пользователя
	Email        string    `json:"email"`        // Электронная почта (уникальная, логин)
	PasswordHash string    `json:"-"`            // Хэш пароля, "" для приглашённых
	FirstName    string    `json:"first_name"`   // Имя
	LastName     string    `json:"last_name"`    // Фамилия
	IsActive     bool      `json:"is_active"`    // Активна ли учётная запись
	IsStaff      bool      `json:"is_staff"`     // Служебный доступ
	IsSuperuser  bool      `json:"is_superuser"` // Суперпользователь
	CreatedAt    time.Time `json:"created_at"`   // Дата создания
}

// HasUsablePassword сообщает, можно ли входить по паролю.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}
