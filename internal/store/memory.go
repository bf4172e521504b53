package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"godsendjoseph.dev/cdn-client/internal/models"
)

// MemoryAssetStore keeps asset records in process memory. It backs the
// gateway when no database is configured and is lost on restart.
type MemoryAssetStore struct {
	mu     sync.RWMutex
	assets map[string]models.Asset
	tokens map[string]string
	now    func() time.Time
}

func NewMemoryStorage() Storage {
	return Storage{
		Assets: NewMemoryAssetStore(),
	}
}

func NewMemoryAssetStore() *MemoryAssetStore {
	return &MemoryAssetStore{
		assets: make(map[string]models.Asset),
		tokens: make(map[string]string),
		now:    time.Now,
	}
}

func (storage *MemoryAssetStore) Create(_ context.Context, asset *models.Asset) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	if _, exists := storage.assets[asset.ID]; exists {
		return ErrConflict
	}
	if _, exists := storage.tokens[asset.FileToken]; exists {
		return ErrConflict
	}

	asset.CreatedAt = storage.now().UTC()
	storage.assets[asset.ID] = *asset
	storage.tokens[asset.FileToken] = asset.ID

	return nil
}

func (storage *MemoryAssetStore) GetByID(_ context.Context, id string) (*models.Asset, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()

	asset, ok := storage.assets[id]
	if !ok || asset.DeletedAt != nil {
		return nil, ErrNotFound
	}

	return &asset, nil
}

func (storage *MemoryAssetStore) ListExpired(_ context.Context, now time.Time, limit int) ([]*models.Asset, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()

	expired := make([]*models.Asset, 0)
	for _, asset := range storage.assets {
		if asset.DeletedAt == nil && asset.ExpiresAt != nil && !asset.ExpiresAt.After(now) {
			asset := asset
			expired = append(expired, &asset)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt)
	})

	if limit >= 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	return expired, nil
}

func (storage *MemoryAssetStore) MarkDeleted(_ context.Context, id string, at time.Time) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	asset, ok := storage.assets[id]
	if !ok || asset.DeletedAt != nil {
		return ErrNotFound
	}

	asset.DeletedAt = &at
	storage.assets[id] = asset

	return nil
}
