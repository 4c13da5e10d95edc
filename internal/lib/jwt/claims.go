// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
//
// Maker определяет интерфейс для создания и проверки пары токенов
// (доступ + refresh) с email и UID пользователя.
// MakerImpl — конкретная реализация с использованием секретного ключа.
package jwt

import (
	"time"
)

// Типы выпускаемых токенов.
const (
	// TokenTypeAccess — короткоживущий токен доступа.
	TokenTypeAccess = "access"
	// TokenTypeRefresh — токен для обновления пары.
	TokenTypeRefresh = "refresh"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
//
// Методы позволяют создавать пару токенов с email и UID пользователя,
// а также разбирать токен и извлекать из него кастомные данные.
type Maker interface {
	// GenerateToken создаёт токен доступа для пользователя
	GenerateToken(email, userUID string) (string, error)
	// GenerateRefreshToken создаёт refresh-токен для пользователя
	GenerateRefreshToken(email, userUID string) (string, error)
	// ParseToken возвращает *CustomClaims с email и UID
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токенов.
type MakerImpl struct {
	secretKey  string        // Секретный ключ для подписи токенов.
	tokenTTL   time.Duration // Время жизни токена доступа.
	refreshTTL time.Duration // Время жизни refresh-токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		tokenTTL:   ttl,
		refreshTTL: refreshTTL,
	}
}
