package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"godsendjoseph.dev/cdn-client/cdn"
	"godsendjoseph.dev/cdn-client/internal/models"
	"godsendjoseph.dev/cdn-client/internal/store"
	"godsendjoseph.dev/cdn-client/internal/store/cache"
)

// countingAssets counts database reads so cache hits can be observed.
type countingAssets struct {
	*store.MemoryAssetStore
	reads int
}

func (c *countingAssets) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	c.reads++
	return c.MemoryAssetStore.GetByID(ctx, id)
}

// fakeCDN answers uploads with a fresh token per call and deletes with the
// configured delete body.
type fakeCDN struct {
	mu         sync.Mutex
	uploads    int
	deleted    []string
	deleteBody string
}

func (f *fakeCDN) serve(t *testing.T) *cdn.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		_, _ = io.Copy(io.Discard, request.Body)

		switch request.URL.Path {
		case "/delete-file":
			f.deleted = append(f.deleted, request.URL.Query().Get("file_token"))
			_, _ = io.WriteString(writer, f.deleteBody)
		case "/push-remote", "/push-pdf", "/push-image", "/push-video", "/push-file":
			f.uploads++
			token := string(rune('A' + f.uploads - 1))
			_, _ = io.WriteString(writer, `{"data":{"token":"`+token+`","edit_key":"key-`+token+`","name":"stored"}}`)
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return cdn.NewClient(server.URL, "tok")
}

const confirmed = `{"data":{"message":"The file was deleted successfully"}}`

func newTestService(t *testing.T, fake *fakeCDN, withCache bool) (*Service, *countingAssets) {
	t.Helper()

	assets := &countingAssets{MemoryAssetStore: store.NewMemoryAssetStore()}
	storage := store.Storage{Assets: assets}

	var cacheStorage *cache.Storage
	if withCache {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		redisStorage := cache.NewRedisStorage(rdb)
		cacheStorage = &redisStorage
	}

	service := NewService(fake.serve(t), storage, cacheStorage, nil, zap.NewNop().Sugar())
	return service, assets
}

func TestService_UploadRecordsAsset(t *testing.T) {
	service, assets := newTestService(t, &fakeCDN{deleteBody: confirmed}, false)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	asset, err := service.Upload(context.Background(), models.KindImage, []byte("png"), "cat.png", time.Hour)
	require.NoError(t, err)

	assert.NotEmpty(t, asset.ID)
	assert.Equal(t, "image", asset.Kind)
	assert.Equal(t, "cat.png", asset.Source)
	assert.Equal(t, "A", asset.FileToken)
	assert.Equal(t, "key-A", asset.EditKey)
	require.NotNil(t, asset.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour), *asset.ExpiresAt)

	stored, err := assets.GetByID(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.FileToken)
}

func TestService_UploadRecordFailureKeepsEditKeyOutOfLog(t *testing.T) {
	service, assets := newTestService(t, &fakeCDN{}, false)

	core, logs := observer.New(zap.InfoLevel)
	service.logger = zap.New(core).Sugar()

	// the fake CDN hands out token A first, which is already recorded
	require.NoError(t, assets.Create(context.Background(), &models.Asset{ID: "existing", FileToken: "A"}))

	_, err := service.Upload(context.Background(), models.KindFile, []byte("x"), "a.txt", 0)
	require.ErrorIs(t, err, store.ErrConflict)

	entries := logs.FilterMessage("failed to record uploaded asset").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "A", fields["fileToken"])
	assert.Equal(t, "stored", fields["fileName"])
	for key, value := range fields {
		assert.NotEqual(t, "editKey", key)
		assert.NotContains(t, fmt.Sprint(value), "key-A")
	}
}

func TestService_UploadRejectsUnknownKind(t *testing.T) {
	fake := &fakeCDN{}
	service, _ := newTestService(t, fake, false)

	_, err := service.Upload(context.Background(), "spreadsheet", []byte("x"), "a.xls", 0)
	require.Error(t, err)
	assert.Zero(t, fake.uploads)
}

func TestService_UploadRemote(t *testing.T) {
	service, _ := newTestService(t, &fakeCDN{}, false)

	asset, err := service.UploadRemote(context.Background(), "https://example.com/a.png", "a.png", true, 0)
	require.NoError(t, err)
	assert.Equal(t, models.KindRemote, asset.Kind)
	assert.Equal(t, "https://example.com/a.png", asset.Source)
	assert.Nil(t, asset.ExpiresAt)
}

func TestService_DeleteConfirmed(t *testing.T) {
	fake := &fakeCDN{deleteBody: confirmed}
	service, assets := newTestService(t, fake, true)
	ctx := context.Background()

	asset, err := service.Upload(ctx, models.KindPDF, []byte("pdf"), "doc.pdf", 0)
	require.NoError(t, err)

	// Populate the cache.
	_, err = service.Get(ctx, asset.ID)
	require.NoError(t, err)
	_, err = service.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, assets.reads)

	deleted, err := service.Delete(ctx, asset.ID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, []string{"A"}, fake.deleted)

	_, err = service.Get(ctx, asset.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_DeleteNotConfirmed(t *testing.T) {
	fake := &fakeCDN{deleteBody: `{"data":{"message":"Something else"}}`}
	service, assets := newTestService(t, fake, false)
	ctx := context.Background()

	asset, err := service.Upload(ctx, models.KindVideo, []byte("mp4"), "clip.mp4", 0)
	require.NoError(t, err)

	_, err = service.Delete(ctx, asset.ID)
	assert.ErrorIs(t, err, ErrDeleteNotConfirmed)

	stored, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DeletedAt)
}

func TestService_DeleteCDNError(t *testing.T) {
	fake := &fakeCDN{deleteBody: `{"error":"not found"}`}
	service, _ := newTestService(t, fake, false)
	ctx := context.Background()

	asset, err := service.Upload(ctx, models.KindFile, []byte("x"), "x.bin", 0)
	require.NoError(t, err)

	_, err = service.Delete(ctx, asset.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cdn.ErrApplication))
}

func TestService_SweepExpired(t *testing.T) {
	fake := &fakeCDN{deleteBody: confirmed}
	service, _ := newTestService(t, fake, false)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return start }

	_, err := service.Upload(ctx, models.KindImage, []byte("1"), "1.png", time.Minute)
	require.NoError(t, err)
	_, err = service.Upload(ctx, models.KindImage, []byte("2"), "2.png", 2*time.Minute)
	require.NoError(t, err)
	_, err = service.Upload(ctx, models.KindImage, []byte("3"), "3.png", 0)
	require.NoError(t, err)

	service.now = func() time.Time { return start.Add(90 * time.Second) }
	result, err := service.SweepExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 1, Deleted: 1}, result)
	assert.Equal(t, []string{"A"}, fake.deleted)

	service.now = func() time.Time { return start.Add(time.Hour) }
	result, err = service.SweepExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 1, Deleted: 1}, result)
	assert.Equal(t, []string{"A", "B"}, fake.deleted)
}

func TestService_SweepCountsFailures(t *testing.T) {
	fake := &fakeCDN{deleteBody: `{"error":"gone"}`}
	service, _ := newTestService(t, fake, false)
	ctx := context.Background()

	start := time.Now()
	service.now = func() time.Time { return start }
	_, err := service.Upload(ctx, models.KindImage, []byte("1"), "1.png", time.Second)
	require.NoError(t, err)

	service.now = func() time.Time { return start.Add(time.Minute) }
	result, err := service.SweepExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 1, Failed: 1}, result)
}
