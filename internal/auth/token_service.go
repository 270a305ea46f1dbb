package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService 签发与解析访问令牌
// 过期是唯一的失效手段，没有刷新也没有吊销列表
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

// NewTokenService 创建令牌服务
func NewTokenService(secret string, expiresIn time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not configured")
	}
	if expiresIn <= 0 {
		return nil, fmt.Errorf("invalid JWT expiration: %v", expiresIn)
	}
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}, nil
}

// Generate 签发携带 user_id 的 HS256 令牌，exp = now + 有效期
func (s *TokenService) Generate(userID uint) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.expiresIn)

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiry, nil
}

// Parse 解析并校验令牌，返回 user_id 声明
// 签名、过期校验失败都返回错误
func (s *TokenService) Parse(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}

	userIDValue, ok := claims["user_id"]
	if !ok {
		return 0, errors.New("user_id not found in token claims")
	}
	userID, ok := userIDValue.(float64)
	if !ok || userID <= 0 {
		return 0, errors.New("user_id in token is not a valid number")
	}

	return uint(userID), nil
}

// ExpiresIn 返回配置的令牌有效期
func (s *TokenService) ExpiresIn() time.Duration {
	return s.expiresIn
}
