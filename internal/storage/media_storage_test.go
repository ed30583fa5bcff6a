package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMediaStorage_SaveAndDelete(t *testing.T) {
	s, err := NewMediaStorage(t.TempDir(), 1)
	assert.NoError(t, err)

	ownerID := uuid.New()
	path, size, err := s.Save(context.Background(), ownerID, "Avatar.JPG", strings.NewReader("содержимое"))
	assert.NoError(t, err)
	assert.Equal(t, int64(len("содержимое")), size)
	assert.True(t, strings.HasPrefix(path, ownerID.String()))
	assert.True(t, strings.HasSuffix(path, ".jpg"))

	_, err = os.Stat(filepath.Join(s.rootPath, path))
	assert.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), path))
	// Повторное удаление отсутствующего файла не ошибка.
	assert.NoError(t, s.Delete(context.Background(), path))
}

func TestMediaStorage_SizeLimit(t *testing.T) {
	s, err := NewMediaStorage(t.TempDir(), 1)
	assert.NoError(t, err)

	tooBig := strings.NewReader(strings.Repeat("a", 1024*1024+1))
	_, _, err = s.Save(context.Background(), uuid.New(), "big.png", tooBig)
	assert.Error(t, err)
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".jpg", normalizeExt("Photo.JPG"))
	assert.Equal(t, ".png", normalizeExt("../../etc/passwd.png"))
	assert.Equal(t, ".bin", normalizeExt("noext"))
	assert.Equal(t, ".bin", normalizeExt("archive.verylongextension"))
}
