package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRaw(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db")+dsnPragmas)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql": {Data: []byte("")},
		"002_b.up.sql":     {Data: []byte("")},
		"002_b.down.sql":   {Data: []byte("")},
		"001_a.up.sql":     {Data: []byte("")},
		"notes.txt":        {Data: []byte("")},
	}

	all, err := pendingMigrations(fsys, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{all[0].version, all[1].version, all[2].version})

	rest, err := pendingMigrations(fsys, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "010_later.up.sql", rest[0].name)
}

func TestPendingMigrations_Malformed(t *testing.T) {
	_, err := pendingMigrations(fstest.MapFS{"init.up.sql": {}}, 0)
	assert.ErrorContains(t, err, "missing version prefix")

	_, err = pendingMigrations(fstest.MapFS{"x_init.up.sql": {}}, 0)
	assert.ErrorContains(t, err, "bad version")

	_, err = pendingMigrations(fstest.MapFS{"1_a.up.sql": {}, "001_b.up.sql": {}}, 0)
	assert.ErrorContains(t, err, "share version 1")
}

func TestMigrate_FailedMigrationRollsBack(t *testing.T) {
	db := openRaw(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"001_ok.up.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_broken.up.sql": {Data: []byte("CREATE TABLE b (id INTEGER); NOT SQL;")},
	}

	err := migrate(ctx, db, fsys)
	assert.ErrorContains(t, err, "002_broken.up.sql")

	var version int
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	var tables int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='b'").Scan(&tables))
	assert.Zero(t, tables, "partial migration is rolled back")

	fsys["002_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE b (id INTEGER);")}
	require.NoError(t, migrate(ctx, db, fsys))
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0.5, -1, 3.25}
	blob := encodeVector(v)
	assert.Len(t, blob, 12)
	assert.Equal(t, v, decodeVector(blob))
	assert.Equal(t, v, decodeVector(append(blob, 0xff)), "trailing bytes are ignored")

	assert.Nil(t, encodeVector(nil))
	assert.Nil(t, decodeVector([]byte{1, 2}))
}
