package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// accessClaims — клиентская проекция claims access-токена.
// Подпись здесь не проверяется: верификация — задача сервера, клиенту из
// токена нужны только uid и срок годности.
type accessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

var errNoExpiry = errors.New("token has no expiry")

// tokenExpiry извлекает срок годности access-токена.
func tokenExpiry(token string) (time.Time, error) {
	const op = "session.tokenExpiry"

	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, errNoExpiry)
	}

	return claims.ExpiresAt.Time.UTC(), nil
}

// TokenUserID извлекает идентификатор пользователя из access-токена.
func TokenUserID(token string) (uuid.UUID, error) {
	const op = "session.TokenUserID"

	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return uid, nil
}

// userFromPersisted восстанавливает пользователя из персистентной записи.
func userFromPersisted(p persistedSession) (models.User, time.Time, error) {
	const op = "session.userFromPersisted"

	uid, err := uuid.Parse(p.UserID)
	if err != nil {
		return models.User{}, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:        uid,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
	}

	return user, time.Unix(p.ExpiresAt, 0).UTC(), nil
}
