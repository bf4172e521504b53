package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godsendjoseph.dev/cdn-client/internal/models"
)

func TestMemoryAssetStore(t *testing.T) {
	storage := NewMemoryAssetStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	soon := now.Add(time.Minute)
	later := now.Add(time.Hour)

	require.NoError(t, storage.Create(ctx, &models.Asset{ID: "a1", FileToken: "T1", ExpiresAt: &later}))
	require.NoError(t, storage.Create(ctx, &models.Asset{ID: "a2", FileToken: "T2", ExpiresAt: &soon}))
	require.NoError(t, storage.Create(ctx, &models.Asset{ID: "a3", FileToken: "T3"}))

	assert.ErrorIs(t, storage.Create(ctx, &models.Asset{ID: "a4", FileToken: "T1"}), ErrConflict)

	asset, err := storage.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "T1", asset.FileToken)
	assert.False(t, asset.CreatedAt.IsZero())

	expired, err := storage.ListExpired(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "a2", expired[0].ID)
	assert.Equal(t, "a1", expired[1].ID)

	expired, err = storage.ListExpired(ctx, now.Add(2*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	require.NoError(t, storage.MarkDeleted(ctx, "a2", now))
	assert.ErrorIs(t, storage.MarkDeleted(ctx, "a2", now), ErrNotFound)

	_, err = storage.GetByID(ctx, "a2")
	assert.ErrorIs(t, err, ErrNotFound)

	expired, err = storage.ListExpired(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "a1", expired[0].ID)
}
