package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"godsendjoseph.dev/cdn-client/internal/models"
)

const mysqlDuplicateEntry = 1062

type AssetStore struct {
	db *sql.DB
}

func (storage *AssetStore) Create(ctx context.Context, asset *models.Asset) error {
	query := `
    INSERT INTO assets (id, kind, source, file_token, edit_key, file_name, expires_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := storage.db.ExecContext(
		ctx,
		query,
		asset.ID,
		asset.Kind,
		asset.Source,
		asset.FileToken,
		asset.EditKey,
		asset.FileName,
		nullTime(asset.ExpiresAt),
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrConflict
		}
		return err
	}

	return storage.db.QueryRowContext(
		ctx,
		`SELECT created_at FROM assets WHERE id = ?`,
		asset.ID,
	).Scan(&asset.CreatedAt)
}

func (storage *AssetStore) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `
		SELECT id, kind, source, file_token, edit_key, file_name, expires_at, created_at, deleted_at
		FROM assets
		WHERE id = ? AND deleted_at IS NULL`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	asset, err := scanAsset(storage.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return asset, nil
}

// ListExpired returns live assets whose expiry is at or before now, oldest
// expiry first.
func (storage *AssetStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Asset, error) {
	query := `
		SELECT id, kind, source, file_token, edit_key, file_name, expires_at, created_at, deleted_at
		FROM assets
		WHERE expires_at IS NOT NULL AND expires_at <= ? AND deleted_at IS NULL
		ORDER BY expires_at ASC
		LIMIT ?`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := storage.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assets, nil
}

func (storage *AssetStore) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE assets SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := storage.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

//================== Private methods ======================//

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*models.Asset, error) {
	asset := &models.Asset{}
	var expiresAt, deletedAt sql.NullTime

	err := row.Scan(
		&asset.ID,
		&asset.Kind,
		&asset.Source,
		&asset.FileToken,
		&asset.EditKey,
		&asset.FileName,
		&expiresAt,
		&asset.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		asset.ExpiresAt = &expiresAt.Time
	}
	if deletedAt.Valid {
		asset.DeletedAt = &deletedAt.Time
	}

	return asset, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
