package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
)

func TestInitDB_SQLiteFile(t *testing.T) {
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "test.db")

	db, err := InitDB(cfg)
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []string{"users", "groups", "posts", "comments", "follows"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestInitDB_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	_, err := InitDB(cfg)
	assert.Error(t, err)
}

func TestOpenMemory_Isolated(t *testing.T) {
	a, err := OpenMemory()
	require.NoError(t, err)
	b, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, a.Create(&model.Group{Title: "g", Slug: "g"}).Error)

	var n int64
	require.NoError(t, b.Model(&model.Group{}).Count(&n).Error)
	assert.Zero(t, n)
}
