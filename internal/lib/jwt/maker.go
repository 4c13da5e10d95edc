package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Email                string `json:"email"`      // Email пользователя (логин)
	UserUID              string `json:"user_uid"`   // UID пользователя
	TokenType            string `json:"token_type"` // Тип токена: access или refresh
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// GenerateToken создает токен доступа с заданными email и UID,
// подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(email, userUID string) (string, error) {
	return j.generate(email, userUID, TokenTypeAccess, j.tokenTTL)
}

// GenerateRefreshToken создает refresh-токен с временем жизни refreshTTL.
func (j *MakerImpl) GenerateRefreshToken(email, userUID string) (string, error) {
	return j.generate(email, userUID, TokenTypeRefresh, j.refreshTTL)
}

func (j *MakerImpl) generate(email, userUID, tokenType string, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		Email:     email,
		UserUID:   userUID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
