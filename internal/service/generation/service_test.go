package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database/databasetest"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/repository"
	"github.com/mohammadsarwary/content-craft-ai/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type postCall struct {
	endpoint string
	body     map[string]any
}

type fakeBackend struct {
	calls    []postCall
	response map[string]any
	err      error
}

func (f *fakeBackend) Post(_ context.Context, endpoint string, body map[string]any, _ ...backend.CallOption) (*backend.Response, error) {
	f.calls = append(f.calls, postCall{endpoint: endpoint, body: body})
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Response{Body: f.response}, nil
}

type memoryCache struct {
	entries map[string]map[string]any
	ttls    map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]map[string]any{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Enabled() bool { return true }

func (c *memoryCache) Get(_ context.Context, key string) (map[string]any, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value map[string]any, ttl time.Duration) error {
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

type fixture struct {
	service *Service
	backend *fakeBackend
	store   *settings.Store
	bus     *event.Bus
	cache   *memoryCache
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	db, dialect := databasetest.Open(t)
	repos := repository.NewSQLRepositories(db, dialect)
	bus := event.NewBus(zap.NewNop())
	store := settings.NewStore(repos.Settings, bus, zap.NewNop())
	fb := &fakeBackend{response: map[string]any{"success": true, "data": map[string]any{}}}

	f := &fixture{backend: fb, store: store, bus: bus}
	var rc ResponseCache
	if withCache {
		f.cache = newMemoryCache()
		rc = f.cache
	}
	f.service = NewService(fb, store, rc, bus, zap.NewNop(), Options{})
	return f
}

func TestGenerateContentAppliesDefaults(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.GenerateContent(context.Background(), ContentInput{Topic: "  Go generics  ", Keywords: []string{"go", " "}})
	require.NoError(t, err)
	require.Len(t, f.backend.calls, 1)

	call := f.backend.calls[0]
	assert.Equal(t, backend.EndpointContentGenerate, call.endpoint)
	assert.Equal(t, "Go generics", call.body["topic"])
	assert.Equal(t, []string{"go"}, call.body["keywords"])
	assert.Equal(t, "professional", call.body["tone"])
	assert.Equal(t, "medium", call.body["length"])
	assert.Equal(t, "en", call.body["language"])
	assert.Equal(t, []string{"title", "excerpt", "body", "meta"}, call.body["sections"])
	assert.NotContains(t, call.body, "audience")
	assert.NotContains(t, call.body, "brand_profile")
}

func TestGenerateContentRequiresTopic(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.GenerateContent(context.Background(), ContentInput{Topic: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.backend.calls)
}

func TestGenerateContentMergesEnabledBrandProfile(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.store.ReplaceBrandProfile(ctx, domain.BrandProfile{Enabled: true, Tone: "witty"}))

	_, err := f.service.GenerateContent(ctx, ContentInput{Topic: "launch", Tone: "casual", Language: "de"})
	require.NoError(t, err)

	body := f.backend.calls[0].body
	assert.Equal(t, "casual", body["tone"])
	assert.Equal(t, "de", body["language"])
	profile, ok := body["brand_profile"].(domain.BrandProfile)
	require.True(t, ok)
	assert.Equal(t, "witty", profile.Tone)
}

func TestGenerateProductBody(t *testing.T) {
	f := newFixture(t, false)
	price := 19.5

	_, err := f.service.GenerateProduct(context.Background(), ProductInput{ProductID: 7, Name: "Mug", Price: &price})
	require.NoError(t, err)

	body := f.backend.calls[0].body
	assert.Equal(t, backend.EndpointProductGenerate, f.backend.calls[0].endpoint)
	assert.Equal(t, int64(7), body["product_id"])
	assert.Equal(t, 19.5, body["price"])
	assert.Equal(t, map[string]any{}, body["attributes"])
	assert.Equal(t, []string{}, body["features"])
	assert.Equal(t, []string{}, body["usp"])
	assert.NotContains(t, body, "category")

	_, err = f.service.GenerateProduct(context.Background(), ProductInput{ProductID: 7})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeImagePublishesAltText(t *testing.T) {
	f := newFixture(t, false)
	f.backend.response = map[string]any{"success": true, "data": map[string]any{"alt_text": " A red mug "}}
	var got []event.AltTextPayload
	f.bus.Subscribe(event.AltTextGenerated, func(evt event.Event) {
		got = append(got, evt.Payload.(event.AltTextPayload))
	})

	_, err := f.service.AnalyzeImage(context.Background(), ImageInput{AttachmentID: 12})
	require.NoError(t, err)
	assert.Equal(t, "product", f.backend.calls[0].body["context"])
	assert.NotContains(t, f.backend.calls[0].body, "image_url")
	require.Len(t, got, 1)
	assert.Equal(t, event.AltTextPayload{AttachmentID: 12, AltText: "A red mug"}, got[0])

	_, err = f.service.AnalyzeImage(context.Background(), ImageInput{ImageURL: "https://cdn.example.com/a.png"})
	require.NoError(t, err)
	assert.Len(t, got, 1, "no attachment, no alt text event")

	_, err = f.service.AnalyzeImage(context.Background(), ImageInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimizeSEODefaults(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.OptimizeSEO(context.Background(), SEOInput{ContentHTML: "<p>hi</p>", CurrentTitle: "Hi"})
	require.NoError(t, err)
	body := f.backend.calls[0].body
	assert.Equal(t, "post", body["post_type"])
	assert.Equal(t, "Hi", body["current_title"])
	assert.Equal(t, []string{}, body["keywords"])

	_, err = f.service.OptimizeSEO(context.Background(), SEOInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBackendErrorPassesThrough(t *testing.T) {
	f := newFixture(t, false)
	failure := &backend.Failure{Kind: backend.KindAPIError, Message: "Rate limit exceeded.", Status: 429}
	f.backend.err = failure

	_, err := f.service.GenerateContent(context.Background(), ContentInput{Topic: "x"})
	var got *backend.Failure
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "Rate limit exceeded.", got.Message)
}

func TestCacheHitSkipsBackend(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.service.GenerateContent(ctx, ContentInput{Topic: "cache me"})
	require.NoError(t, err)
	second, err := f.service.GenerateContent(ctx, ContentInput{Topic: "cache me"})
	require.NoError(t, err)

	assert.Len(t, f.backend.calls, 1)
	assert.Equal(t, first.Body, second.Body)
	for _, ttl := range f.cache.ttls {
		assert.Equal(t, 600*time.Second, ttl)
	}
}

func TestCacheSkippedWhenTTLZero(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	zero := 0
	_, err := f.store.Update(ctx, settings.Patch{CacheTTL: &zero})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.service.GenerateContent(ctx, ContentInput{Topic: "fresh"})
		require.NoError(t, err)
	}
	assert.Len(t, f.backend.calls, 2)
	assert.Empty(t, f.cache.entries)
}

func TestTrainBrandPersistsProfile(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.service.WithClock(func() time.Time { return fixed })
	f.backend.response = map[string]any{
		"success": true,
		"data": map[string]any{
			"brand_profile": map[string]any{
				"tone":           "friendly",
				"common_phrases": []any{"let's dive in"},
			},
			"prompt_template": "Write like us.",
		},
	}
	var trained int
	f.bus.Subscribe(event.BrandTrained, func(event.Event) { trained++ })

	_, err := f.service.TrainBrand(ctx, BrandTrainInput{Samples: []BrandSample{{Title: "t", Body: "b"}, {}}})
	require.NoError(t, err)

	call := f.backend.calls[0]
	assert.Equal(t, backend.EndpointBrandTrain, call.endpoint)
	assert.Len(t, call.body["samples"], 1)
	assert.Equal(t, "en", call.body["language"])
	assert.Empty(t, f.cache.entries, "brand training is never cached")

	profile, err := f.store.BrandProfile(ctx)
	require.NoError(t, err)
	assert.True(t, profile.Enabled)
	assert.Equal(t, "friendly", profile.Tone)
	assert.Equal(t, []string{"let's dive in"}, profile.CommonPhrases)
	assert.Equal(t, "Write like us.", profile.PromptTemplate)
	require.NotNil(t, profile.TrainedAt)
	assert.True(t, fixed.Equal(*profile.TrainedAt))
	assert.Equal(t, 1, trained)
}

func TestTrainBrandWithoutProfileKeepsExisting(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.store.ReplaceBrandProfile(ctx, domain.BrandProfile{Enabled: true, Tone: "calm"}))

	_, err := f.service.TrainBrand(ctx, BrandTrainInput{Samples: []BrandSample{{Title: "t", Body: "b"}}})
	require.NoError(t, err)

	profile, err := f.store.BrandProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "calm", profile.Tone)

	_, err = f.service.TrainBrand(ctx, BrandTrainInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
}
