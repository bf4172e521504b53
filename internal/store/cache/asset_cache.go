package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"godsendjoseph.dev/cdn-client/internal/models"
)

type AssetStore struct {
	rdb *redis.Client
}

const AssetExpTime = time.Minute * 5

var errNotInitialized = errors.New("redis client not initialized")

// cachedAsset carries the edit key, which models.Asset hides from JSON.
type cachedAsset struct {
	*models.Asset
	EditKey string `json:"edit_key"`
}

func cacheKey(assetID string) string {
	return fmt.Sprintf("asset-%s", assetID)
}

// Get returns nil, nil on a cache miss.
func (storage *AssetStore) Get(ctx context.Context, assetID string) (*models.Asset, error) {
	if storage.rdb == nil {
		return nil, errNotInitialized
	}

	data, err := storage.rdb.Get(ctx, cacheKey(assetID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	cached := cachedAsset{Asset: &models.Asset{}}
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, err
	}
	cached.Asset.EditKey = cached.EditKey

	return cached.Asset, nil
}

func (storage *AssetStore) Set(ctx context.Context, asset *models.Asset) error {
	if storage.rdb == nil {
		return errNotInitialized
	}

	payload, err := json.Marshal(cachedAsset{Asset: asset, EditKey: asset.EditKey})
	if err != nil {
		return err
	}

	return storage.rdb.SetEX(ctx, cacheKey(asset.ID), payload, AssetExpTime).Err()
}

func (storage *AssetStore) Delete(ctx context.Context, assetID string) error {
	if storage.rdb == nil {
		return errNotInitialized
	}

	return storage.rdb.Del(ctx, cacheKey(assetID)).Err()
}
