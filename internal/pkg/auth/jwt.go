package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken возвращается при любой невалидности токена:
// истёк, подпись не сошлась, payload не разобрался.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind выбирает секрет: access и refresh подписываются разными ключами.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// TokenManager выпускает и проверяет пары access/refresh токенов.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// GenerateAccessToken выпускает короткоживущий access-токен.
func (m *TokenManager) GenerateAccessToken(userID uint, email string) (string, error) {
	return m.generate(userID, email, m.accessSecret, m.accessTTL)
}

// GenerateRefreshToken выпускает долгоживущий refresh-токен.
func (m *TokenManager) GenerateRefreshToken(userID uint, email string) (string, error) {
	return m.generate(userID, email, m.refreshSecret, m.refreshTTL)
}

func (m *TokenManager) generate(userID uint, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

// Validate проверяет токен секретом указанного вида.
func (m *TokenManager) Validate(tokenStr string, kind TokenKind) (*Claims, error) {
	secret := m.accessSecret
	if kind == RefreshToken {
		secret = m.refreshSecret
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})

	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// HashRefreshToken возвращает односторонний хеш refresh-токена для хранения.
// bcrypt не принимает вход длиннее 72 байт, поэтому токен сначала
// сворачивается в sha256.
func HashRefreshToken(raw string) (string, error) {
	sum := sha256.Sum256([]byte(raw))
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(sum[:])), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareRefreshToken сверяет сырой refresh-токен с хранимым хешем.
func CompareRefreshToken(raw, hash string) bool {
	sum := sha256.Sum256([]byte(raw))
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(hex.EncodeToString(sum[:]))) == nil
}
