package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database/databasetest"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *event.Bus) {
	t.Helper()
	db, dialect := databasetest.Open(t)
	repos := repository.NewSQLRepositories(db, dialect)
	bus := event.NewBus(zap.NewNop())
	return NewStore(repos.Settings, bus, zap.NewNop()), bus
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestLoadReturnsDefaultsWhenEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	current, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), current)
	assert.False(t, current.Configured())

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateMergesAndPublishes(t *testing.T) {
	store, bus := newTestStore(t)
	ctx := context.Background()
	var saved []domain.Settings
	bus.Subscribe(event.SettingsSaved, func(evt event.Event) {
		saved = append(saved, evt.Payload.(domain.Settings))
	})

	next, err := store.Update(ctx, Patch{
		APIBaseURL:  strPtr("https://backend.example.com"),
		APISecret:   strPtr("sk-live-123456"),
		DefaultTone: strPtr("casual"),
		CacheTTL:    intPtr(0),
	})
	require.NoError(t, err)
	assert.True(t, next.Configured())
	assert.Equal(t, "casual", next.DefaultTone)
	assert.Equal(t, 0, next.CacheTTL)
	assert.Equal(t, "en", next.DefaultLanguage)

	require.Len(t, saved, 1)
	assert.Equal(t, "sk-l••••••••••", saved[0].APISecret)

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://backend.example.com", creds.BaseURL)
	assert.Equal(t, "sk-live-123456", creds.Secret)
}

func TestUpdateKeepsSecretWhenMaskedValueSubmitted(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, Patch{APISecret: strPtr("sk-live-123456")})
	require.NoError(t, err)

	masked := MaskSecret("sk-live-123456", SecretVisibleChars)
	next, err := store.Update(ctx, Patch{APISecret: &masked, ModelName: strPtr("gpt-4o")})
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123456", next.APISecret)
	assert.Equal(t, "gpt-4o", next.ModelName)
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	cases := []Patch{
		{Provider: strPtr("skynet")},
		{DefaultTone: strPtr("angry")},
		{DefaultLanguage: strPtr("xx")},
		{APIBaseURL: strPtr("ftp://example.com")},
		{RateLimit: intPtr(-1)},
		{CacheTTL: intPtr(-5)},
	}
	for _, patch := range cases {
		_, err := store.Update(ctx, patch)
		assert.True(t, errors.Is(err, ErrInvalidSetting), "patch %+v", patch)
	}

	current, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), current)
}

func TestBrandProfileReplaceAndDisable(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	trained := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.ReplaceBrandProfile(ctx, domain.BrandProfile{
		Enabled:       true,
		Tone:          "warm",
		CommonPhrases: []string{"let's dive in"},
		TrainedAt:     &trained,
	}))
	profile, err := store.BrandProfile(ctx)
	require.NoError(t, err)
	assert.True(t, profile.Enabled)
	assert.Equal(t, "warm", profile.Tone)
	require.NotNil(t, profile.TrainedAt)
	assert.True(t, trained.Equal(*profile.TrainedAt))

	require.NoError(t, store.DisableBrandProfile(ctx))
	profile, err = store.BrandProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BrandProfile{}, profile)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("", 4))
	assert.Equal(t, "abcd", MaskSecret("abcd", 4))
	assert.Equal(t, "abcd••", MaskSecret("abcdef", 4))
}
