package settings

import (
	"strings"

	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
)

// SecretVisibleChars 为掩码后保留的前缀长度。
const SecretVisibleChars = 4

// MaskSecret 保留前 visible 个字符，其余替换为 •。
func MaskSecret(secret string, visible int) string {
	runes := []rune(secret)
	if len(runes) <= visible {
		return secret
	}
	return string(runes[:visible]) + strings.Repeat("•", len(runes)-visible)
}

// Masked 返回密钥已掩码的配置副本。
func Masked(s domain.Settings) domain.Settings {
	s.APISecret = MaskSecret(s.APISecret, SecretVisibleChars)
	return s
}
