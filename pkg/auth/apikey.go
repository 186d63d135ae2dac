package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const apiKeyPrefix = "cc_"

// GenerateAPIKey 生成带前缀的随机 API Key 明文。
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// APIKeyPrefix 返回明文开头的非机密部分，写入配置 auth.apiKeys[].prefix。
func APIKeyPrefix(plain string) string {
	const visible = len(apiKeyPrefix) + 8
	plain = strings.TrimSpace(plain)
	if len(plain) <= visible {
		return ""
	}
	return plain[:visible]
}

// HashAPIKey 使用 bcrypt 生成 API Key 哈希，写入配置 auth.apiKeys[].hash。
func HashAPIKey(plain string) (string, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return "", errors.New("api key empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey 对比明文 API Key 与哈希是否匹配。
func VerifyAPIKey(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
