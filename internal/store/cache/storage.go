package cache

import (
	"context"

	"github.com/go-redis/redis/v8"

	"godsendjoseph.dev/cdn-client/internal/models"
)

type Storage struct {
	Assets interface {
		Get(context.Context, string) (*models.Asset, error)
		Set(context.Context, *models.Asset) error
		Delete(context.Context, string) error
	}
}

func NewRedisStorage(rdb *redis.Client) Storage {
	return Storage{
		Assets: &AssetStore{rdb: rdb},
	}
}
