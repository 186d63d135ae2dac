package backend

import (
	"testing"

	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
)

func TestLogTypeForEndpoint(t *testing.T) {
	cases := map[string]domain.LogType{
		"/api/content/generate": domain.LogTypeContent,
		"/api/product/generate": domain.LogTypeProduct,
		"/api/image/analyze":    domain.LogTypeImage,
		"/api/seo/optimize":     domain.LogTypeSEO,
		"/api/brand/train":      domain.LogTypeBrand,
		"/api/health":           domain.LogTypeOther,
		"":                      domain.LogTypeOther,
	}
	for endpoint, want := range cases {
		if got := LogTypeForEndpoint(endpoint); got != want {
			t.Fatalf("endpoint %q: expected %s got %s", endpoint, want, got)
		}
	}
}

func TestJoinURL(t *testing.T) {
	cases := []struct{ base, endpoint, want string }{
		{"http://localhost:8000", "/api/health", "http://localhost:8000/api/health"},
		{"http://localhost:8000/", "/api/health", "http://localhost:8000/api/health"},
		{"http://localhost:8000//", "api/health", "http://localhost:8000/api/health"},
		{"http://host/prefix", "//api/health", "http://host/prefix/api/health"},
	}
	for _, tc := range cases {
		if got := JoinURL(tc.base, tc.endpoint); got != tc.want {
			t.Fatalf("join %q %q: expected %s got %s", tc.base, tc.endpoint, tc.want, got)
		}
	}
}

func TestMessageForCode(t *testing.T) {
	if got := MessageForCode("TIMEOUT"); got != "Request timeout. Try with shorter content." {
		t.Fatalf("unexpected timeout message %s", got)
	}
	if got := MessageForCode("SOMETHING_NEW"); got != "An unknown error occurred." {
		t.Fatalf("unexpected fallback %s", got)
	}
}
