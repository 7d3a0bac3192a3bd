package database

import (
	"path/filepath"
	"testing"

	"github.com/chxdon9587/NextForD/internal/config"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: path, LogLevel: "silent"})
	require.NoError(t, err)

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenMemory_Isolated(t *testing.T) {
	a, err := OpenMemory(t.Name() + "_a")
	require.NoError(t, err)
	b, err := OpenMemory(t.Name() + "_b")
	require.NoError(t, err)

	require.NoError(t, a.Create(&model.User{Email: "a@example.com"}).Error)

	var count int64
	require.NoError(t, b.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
