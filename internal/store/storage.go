package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"godsendjoseph.dev/cdn-client/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Assets interface {
		Create(context.Context, *models.Asset) error
		GetByID(context.Context, string) (*models.Asset, error)
		ListExpired(context.Context, time.Time, int) ([]*models.Asset, error)
		MarkDeleted(context.Context, string, time.Time) error
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Assets: &AssetStore{db},
	}
}
