// Package password реализует функции для безопасного хеширования,
// проверки и валидации паролей.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// CompareHash сравнивает исходный bcrypt-хеш с введённым паролем.
// Validate проверяет пароль на соответствие минимальным требованиям.
package password

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength — минимальная длина пароля.
const MinLength = 8

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
//
// Используется для безопасного хранения паролей в базе данных.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Validate проверяет стойкость пароля и возвращает список нарушений.
// Пустой список означает, что пароль пригоден.
func Validate(password string) []string {
	var violations []string
	if len(password) < MinLength {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters long", MinLength))
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		violations = append(violations, "password must contain at least one letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one digit")
	}
	return violations
}
