package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/models"
	"github.com/antonkudrin/profi-backend/internal/pkg/apperror"
	"github.com/antonkudrin/profi-backend/internal/repository"
)

// allowedImageTypes типы изображений, которые принимает хранилище.
var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// MediaRepository описывает зависимости MediaService от слоя хранилища.
type MediaRepository interface {
	Create(ctx context.Context, media *models.MediaFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) (string, error)
}

// FileStorage описывает файловое хранилище изображений.
type FileStorage interface {
	Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, relativePath string) error
}

// MediaService управляет загрузкой и удалением изображений.
type MediaService struct {
	repo    MediaRepository
	storage FileStorage
}

// NewMediaService создаёт сервис медиафайлов.
func NewMediaService(repo MediaRepository, storage FileStorage) *MediaService {
	return &MediaService{repo: repo, storage: storage}
}

// Upload валидирует изображение по сигнатуре содержимого и сохраняет его.
// Заявленный клиентом Content-Type не учитывается.
func (s *MediaService) Upload(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (*models.MediaFile, error) {
	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, apperror.New(apperror.ErrCodeValidation, "не удалось прочитать файл")
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла")
	}
	if _, ok := allowedImageTypes[kind.MIME.Value]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("тип файла %s не поддерживается", kind.MIME.Value))
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	path, size, err := s.storage.Save(ctx, userID, originalName, body)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	media := &models.MediaFile{
		UserID:   &userID,
		FilePath: path,
		FileType: kind.MIME.Value,
		FileSize: size,
		IsPublic: true,
	}
	if err := s.repo.Create(ctx, media); err != nil {
		if removeErr := s.storage.Delete(ctx, path); removeErr != nil {
			logger.Log.WithError(removeErr).WithField("path", path).Warn("Не удалось удалить осиротевший файл")
		}
		return nil, fmt.Errorf("create media record: %w", err)
	}

	return media, nil
}

// Get возвращает метаданные файла.
func (s *MediaService) Get(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "файл не найден")
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return media, nil
}

// Delete удаляет запись и сам файл. Доступно только владельцу.
func (s *MediaService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	path, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "файл не найден")
		}
		return fmt.Errorf("delete media record: %w", err)
	}

	if err := s.storage.Delete(ctx, path); err != nil {
		logger.Log.WithError(err).WithField("path", path).Warn("Запись удалена, но файл остался в хранилище")
	}
	return nil
}
