package middleware

import (
	"crypto/sha256"
	"strings"
	"sync"

	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	authutil "github.com/mohammadsarwary/content-craft-ai/pkg/auth"
)

// apiKeyVerifier 校验 API Key。配置了 Prefix 的条目只与前缀相符的明文比对；
// 校验成功的明文按摘要缓存，后续请求不再执行 bcrypt。
type apiKeyVerifier struct {
	keys []config.APIKeyConfig

	mu       sync.RWMutex
	verified map[[sha256.Size]byte]int
}

func newAPIKeyVerifier(keys []config.APIKeyConfig) *apiKeyVerifier {
	return &apiKeyVerifier{
		keys:     keys,
		verified: make(map[[sha256.Size]byte]int, len(keys)),
	}
}

func (v *apiKeyVerifier) match(plain string) (config.APIKeyConfig, bool) {
	digest := sha256.Sum256([]byte(plain))

	v.mu.RLock()
	idx, ok := v.verified[digest]
	v.mu.RUnlock()
	if ok {
		return v.keys[idx], true
	}

	for i, key := range v.keys {
		if prefix := strings.TrimSpace(key.Prefix); prefix != "" && !strings.HasPrefix(plain, prefix) {
			continue
		}
		if authutil.VerifyAPIKey(key.Hash, plain) {
			v.mu.Lock()
			v.verified[digest] = i
			v.mu.Unlock()
			return key, true
		}
	}
	return config.APIKeyConfig{}, false
}
