package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "uploads")

	ls, err := storage.NewLocalStorage(basePath)
	require.NoError(t, err)
	assert.NotNil(t, ls)

	info, err := os.Stat(basePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStorage_UnsupportedMode(t *testing.T) {
	_, err := storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)
}

func TestLocalStorage_UploadDownloadDelete(t *testing.T) {
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := []byte("\x89PNG fake logo bytes")
	path, size, err := ls.Upload(ctx, storage.FolderLogos, "Acme Logo.PNG", "image/png", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
	assert.True(t, strings.HasPrefix(path, "logos/"), path)
	assert.True(t, strings.HasSuffix(path, ".png"), path)

	rc, err := ls.Download(ctx, path)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, got)

	require.NoError(t, ls.Delete(ctx, path))
	_, err = ls.Download(ctx, path)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting twice is not an error
	assert.NoError(t, ls.Delete(ctx, path))
}

func TestLocalStorage_UniquePaths(t *testing.T) {
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	p1, _, err := ls.Upload(context.Background(), storage.FolderImports, "firms.csv", "text/csv", strings.NewReader("a"))
	require.NoError(t, err)
	p2, _, err := ls.Upload(context.Background(), storage.FolderImports, "firms.csv", "text/csv", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	ls, err := storage.NewLocalStorage(filepath.Join(base, "store"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("x"), 0600))

	for _, p := range []string{"../secret.txt", "/etc/passwd", "logos/../../secret.txt", "", "..\\secret.txt"} {
		t.Run(p, func(t *testing.T) {
			_, err := ls.Download(context.Background(), p)
			assert.ErrorIs(t, err, storage.ErrInvalidPath)
			assert.ErrorIs(t, ls.Delete(context.Background(), p), storage.ErrInvalidPath)
		})
	}
}
