package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func TestIssueAndParseAccessToken(t *testing.T) {
	token, err := IssueAccessToken(testSecret, time.Hour, 7, "editor")
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "editor", claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueAccessToken(testSecret, time.Hour, 7, "editor")
	require.NoError(t, err)

	_, err = ParseToken(token, strings.Repeat("x", 32))
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := IssueAccessToken(testSecret, -time.Minute, 7, "editor")
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	require.Error(t, err)
}

func TestParseTokenRejectsOtherTokenType(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour, Claims{UserID: 1, Role: "administrator", TokenType: "refresh"})
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	require.Error(t, err)
}

func TestAPIKeyHashAndVerify(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "cc_"))

	hash, err := HashAPIKey(key)
	require.NoError(t, err)
	require.True(t, VerifyAPIKey(hash, key))
	require.False(t, VerifyAPIKey(hash, key+"x"))

	_, err = HashAPIKey("   ")
	require.Error(t, err)
}

func TestAPIKeyPrefix(t *testing.T) {
	plain, err := GenerateAPIKey()
	require.NoError(t, err)

	prefix := APIKeyPrefix(plain)
	require.Len(t, prefix, 11)
	require.True(t, strings.HasPrefix(plain, prefix))
	require.Empty(t, APIKeyPrefix("cc_short"))
}
