// Package storage реализует локальное файловое хранилище загруженных
// изображений: фото профилей и вложения чатов. Файлы раскладываются по
// каталогам владельцев и раздаются роутером как статика под /media.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStorage пишет и удаляет файлы под корневым каталогом.
type MediaStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewMediaStorage создаёт хранилище и его корневой каталог.
func NewMediaStorage(rootPath string, maxUploadMB int64) (*MediaStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &MediaStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save записывает файл под новым именем и возвращает относительный путь
// и размер. Имя генерируется заново, от исходного остаётся только
// расширение. Запись атомарная: сначала во временный файл, затем rename,
// поэтому под /media никогда не виден недописанный файл.
func (s *MediaStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	fileName := uuid.NewString() + normalizeExt(originalName)

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	// Читаем на один байт больше лимита, чтобы отличить ровно лимит от перебора.
	limited := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join(ownerID.String(), fileName), written, nil
}

// Delete удаляет файл по относительному пути. Отсутствующий файл не ошибка:
// удаление повторяется при чистке осиротевших записей.
func (s *MediaStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.Clean(relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// normalizeExt возвращает безопасное расширение исходного имени в нижнем
// регистре. Само имя в путь не попадает.
func normalizeExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "" || len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ".bin"
	}
	return ext
}
