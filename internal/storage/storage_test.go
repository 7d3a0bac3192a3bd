package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "http://cdn.test/uploads/")

	url, err := s.Put(context.Background(), "project-images/u1-1700.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/uploads/project-images/u1-1700.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "project-images", "u1-1700.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, s.Delete(context.Background(), "project-images/u1-1700.png"))
	_, err = os.Stat(filepath.Join(dir, "project-images", "u1-1700.png"))
	assert.True(t, os.IsNotExist(err))

	// 再删一次不报错
	assert.NoError(t, s.Delete(context.Background(), "project-images/u1-1700.png"))
}

func TestLocalStore_StaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(filepath.Join(dir, "root"), "http://cdn.test")

	_, err := s.Put(context.Background(), "../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "root", "escape.txt"))
	assert.NoError(t, err)

	_, err = s.Put(context.Background(), "", strings.NewReader("x"))
	assert.Error(t, err)
}
