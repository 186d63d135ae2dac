package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/activity"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	authutil "github.com/mohammadsarwary/content-craft-ai/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func guardedRouter(t *testing.T, keys []config.APIKeyConfig, capability string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthGuard(testSecret, keys))
	handlers := []gin.HandlerFunc{}
	if capability != "" {
		handlers = append(handlers, RequireCapability(capability))
	}
	handlers = append(handlers, func(ctx *gin.Context) {
		// 请求 context 中的用户编号供活动日志使用
		ctx.String(http.StatusOK, strconv.FormatInt(activity.UserID(ctx.Request.Context()), 10)+":"+CurrentRole(ctx))
	})
	router.GET("/protected", handlers...)
	return router
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	token, err := authutil.IssueAccessToken(testSecret, time.Minute, userID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + token
}

func TestAuthGuard_Unauthorized(t *testing.T) {
	router := guardedRouter(t, nil, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthGuard_BearerSuccess(t *testing.T) {
	router := guardedRouter(t, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearer(t, 7, "Editor"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Body.String() != "7:editor" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAuthGuard_RejectsWrongSecret(t *testing.T) {
	router := guardedRouter(t, nil, "")
	token, err := authutil.IssueAccessToken("another-secret-another-secret-xx", time.Minute, 1, RoleAdmin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthGuard_APIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cc_plain"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	keys := []config.APIKeyConfig{{Name: "importer", Hash: string(hash), Role: RoleAuthor, UserID: 42}}
	router := guardedRouter(t, keys, "")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(APIKeyHeader, "cc_plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "42:author" {
		t.Fatalf("expected api key auth, got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(APIKeyHeader, "cc_wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key got %d", rec.Code)
	}
}

func TestAPIKeyVerifier_PrefixAndCache(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cc_beta_secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	verifier := newAPIKeyVerifier([]config.APIKeyConfig{
		{Name: "alpha", Prefix: "cc_alpha", Hash: string(hash), Role: RoleAuthor, UserID: 1},
		{Name: "beta", Prefix: "cc_beta", Hash: string(hash), Role: RoleEditor, UserID: 2},
	})

	// 前缀不符的条目不参与比对
	matched, ok := verifier.match("cc_beta_secret")
	if !ok || matched.Name != "beta" {
		t.Fatalf("expected beta key, got %+v ok=%v", matched, ok)
	}

	// 已校验的明文直接命中缓存
	verifier.keys[1].Hash = "$2a$10$invalid"
	if matched, ok = verifier.match("cc_beta_secret"); !ok || matched.UserID != 2 {
		t.Fatalf("expected cached verification, got %+v ok=%v", matched, ok)
	}
	if _, ok = verifier.match("cc_beta_other"); ok {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestRequireCapability(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{RoleAdmin, http.StatusOK},
		{RoleEditor, http.StatusForbidden},
		{RoleAuthor, http.StatusForbidden},
		{"subscriber", http.StatusForbidden},
	}
	router := guardedRouter(t, nil, CapManageOptions)

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", bearer(t, 1, tc.role))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("role %s: expected %d got %d", tc.role, tc.want, rec.Code)
		}
	}
}

func TestHasCapability(t *testing.T) {
	if !HasCapability("author", CapUploadFiles) {
		t.Fatalf("author should upload files")
	}
	if HasCapability("author", CapEditProducts) {
		t.Fatalf("author should not edit products")
	}
	if !HasCapability(" EDITOR ", CapEditProducts) {
		t.Fatalf("role matching should ignore case and spaces")
	}
	if HasCapability("", CapEditPosts) {
		t.Fatalf("empty role has no capabilities")
	}
}
