// Package assets records CDN uploads so they can later be looked up and
// deleted by a local id.
package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"godsendjoseph.dev/cdn-client/cdn"
	"godsendjoseph.dev/cdn-client/internal/models"
	"godsendjoseph.dev/cdn-client/internal/notification"
	"godsendjoseph.dev/cdn-client/internal/store"
	"godsendjoseph.dev/cdn-client/internal/store/cache"
)

// ErrDeleteNotConfirmed means the CDN answered a delete with a message other
// than its confirmation. The record is left in place.
var ErrDeleteNotConfirmed = errors.New("cdn did not confirm the deletion")

// CDN is the part of *cdn.Client the service needs.
type CDN interface {
	UploadContent(ctx context.Context, content []byte, name, fieldName string) (cdn.FileAsset, error)
	UploadRemoteFile(ctx context.Context, fileURL, fileName string, secure bool) (cdn.FileAsset, error)
	DeleteFile(ctx context.Context, fileToken, editKey string) (bool, error)
}

type Service struct {
	cdn      CDN
	store    store.Storage
	cache    *cache.Storage
	notifier *notification.SlackNotifier
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewService wires the service. cacheStorage and notifier may be nil.
func NewService(
	cdnClient CDN,
	storage store.Storage,
	cacheStorage *cache.Storage,
	notifier *notification.SlackNotifier,
	logger *zap.SugaredLogger) *Service {

	return &Service{
		cdn:      cdnClient,
		store:    storage,
		cache:    cacheStorage,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Upload pushes content under kind (pdf, image, video or file) and records
// it. A positive ttl schedules the asset for the expiry sweeper.
func (s *Service) Upload(ctx context.Context, kind string, content []byte, name string, ttl time.Duration) (*models.Asset, error) {
	if !models.IsUploadKind(kind) {
		return nil, fmt.Errorf("unknown asset kind %q", kind)
	}

	fileAsset, err := s.cdn.UploadContent(ctx, content, name, kind)
	if err != nil {
		s.reportCDNError(ctx, err)
		return nil, err
	}

	return s.record(ctx, kind, name, fileAsset, ttl)
}

// UploadRemote has the CDN fetch fileURL and records the result.
func (s *Service) UploadRemote(ctx context.Context, fileURL, name string, secure bool, ttl time.Duration) (*models.Asset, error) {
	fileAsset, err := s.cdn.UploadRemoteFile(ctx, fileURL, name, secure)
	if err != nil {
		s.reportCDNError(ctx, err)
		return nil, err
	}

	return s.record(ctx, models.KindRemote, fileURL, fileAsset, ttl)
}

func (s *Service) record(ctx context.Context, kind, source string, fileAsset cdn.FileAsset, ttl time.Duration) (*models.Asset, error) {
	asset := models.NewAsset(uuid.New().String(), kind, source, fileAsset)

	if ttl > 0 {
		expiresAt := s.now().UTC().Add(ttl)
		asset.ExpiresAt = &expiresAt
	}

	if err := s.store.Assets.Create(ctx, asset); err != nil {
		// The file is on the CDN but unrecorded. The edit key is a credential
		// and stays out of the log.
		s.logger.Errorw("failed to record uploaded asset",
			"kind", kind, "fileToken", fileAsset.FileToken(), "fileName", fileAsset.FileName(), "error", err)
		return nil, fmt.Errorf("failed to record asset: %w", err)
	}

	s.logger.Infow("asset uploaded", "id", asset.ID, "kind", kind, "fileToken", asset.FileToken)

	return asset, nil
}

// Get looks the asset up, through the cache when one is configured.
func (s *Service) Get(ctx context.Context, assetID string) (*models.Asset, error) {
	if s.cache == nil {
		return s.store.Assets.GetByID(ctx, assetID)
	}

	asset, err := s.cache.Assets.Get(ctx, assetID)
	if err != nil {
		s.logger.Warnw("asset cache read failed", "id", assetID, "error", err)
	}

	if asset != nil {
		return asset, nil
	}

	asset, err = s.store.Assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Assets.Set(ctx, asset); err != nil {
		s.logger.Warnw("asset cache write failed", "id", assetID, "error", err)
	}

	return asset, nil
}

// Delete removes the asset from the CDN and marks the record deleted.
func (s *Service) Delete(ctx context.Context, assetID string) (*models.Asset, error) {
	asset, err := s.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if err := s.deleteFromCDN(ctx, asset); err != nil {
		return nil, err
	}

	return asset, nil
}

func (s *Service) deleteFromCDN(ctx context.Context, asset *models.Asset) error {
	deleted, err := s.cdn.DeleteFile(ctx, asset.FileToken, asset.EditKey)
	if err != nil {
		s.reportCDNError(ctx, err)
		return err
	}

	if !deleted {
		s.logger.Warnw("cdn did not confirm deletion", "id", asset.ID, "fileToken", asset.FileToken)
		return ErrDeleteNotConfirmed
	}

	deletedAt := s.now().UTC()
	if err := s.store.Assets.MarkDeleted(ctx, asset.ID, deletedAt); err != nil {
		return fmt.Errorf("failed to mark asset %s deleted: %w", asset.ID, err)
	}
	asset.DeletedAt = &deletedAt

	if s.cache != nil {
		if err := s.cache.Assets.Delete(ctx, asset.ID); err != nil {
			s.logger.Warnw("asset cache eviction failed", "id", asset.ID, "error", err)
		}
	}

	s.logger.Infow("asset deleted", "id", asset.ID, "fileToken", asset.FileToken)

	return nil
}

type SweepResult struct {
	Found   int
	Deleted int
	Failed  int
}

// SweepExpired deletes up to limit expired assets. Failures are counted and
// left for the next sweep.
func (s *Service) SweepExpired(ctx context.Context, limit int) (SweepResult, error) {
	var result SweepResult

	expired, err := s.store.Assets.ListExpired(ctx, s.now().UTC(), limit)
	if err != nil {
		return result, fmt.Errorf("failed to list expired assets: %w", err)
	}
	result.Found = len(expired)

	for _, asset := range expired {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.deleteFromCDN(ctx, asset); err != nil {
			result.Failed++
			s.logger.Errorw("failed to delete expired asset", "id", asset.ID, "fileToken", asset.FileToken, "error", err)
			continue
		}
		result.Deleted++
	}

	return result, nil
}

func (s *Service) reportCDNError(ctx context.Context, err error) {
	if notifyErr := s.notifier.NotifyCDNError(ctx, err); notifyErr != nil {
		s.logger.Warnw("failed to notify slack", "error", notifyErr)
	}
}
