package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/repository/common"
)

var ErrMediaNotFound = errors.New("media file not found")

// MediaRepository отвечает за метаданные загруженных файлов.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository создаёт новый экземпляр.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create сохраняет метаданные файла.
func (r *MediaRepository) Create(ctx context.Context, media *models.MediaFile) error {
	query := `
		INSERT INTO media_files (user_id, file_path, file_type, file_size, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		media.UserID,
		media.FilePath,
		media.FileType,
		media.FileSize,
		media.IsPublic,
	).Scan(&media.ID, &media.CreatedAt); err != nil {
		return fmt.Errorf("media repository: create %w", err)
	}
	return nil
}

// GetByID возвращает метаданные файла.
func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	return common.GetByID[models.MediaFile](ctx, r.db, "media_files", id, ErrMediaNotFound)
}

// Delete удаляет метаданные файла и возвращает путь для очистки хранилища.
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) (string, error) {
	var filePath string
	query := `DELETE FROM media_files WHERE id = $1 AND user_id = $2 RETURNING file_path`
	if err := r.db.GetContext(ctx, &filePath, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMediaNotFound
		}
		return "", fmt.Errorf("media repository: delete %w", err)
	}
	return filePath, nil
}
