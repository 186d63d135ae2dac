package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

// Claims 定义访问令牌载荷，UserID 对应活动日志中的用户编号。
type Claims struct {
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IssueAccessToken 为指定用户与角色签发访问令牌。
func IssueAccessToken(secret string, ttl time.Duration, userID int64, role string) (string, error) {
	return GenerateToken(secret, ttl, Claims{UserID: userID, Role: role, TokenType: accessTokenType})
}

// GenerateToken 生成 JWT 字符串。
func GenerateToken(secret string, ttl time.Duration, claims Claims) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret missing")
	}
	now := time.Now()
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 验证并解析 JWT，只接受访问令牌。
func ParseToken(tokenStr string, secret string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("token empty")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	if claims.TokenType != accessTokenType {
		return nil, errors.New("token type mismatch")
	}
	return claims, nil
}
