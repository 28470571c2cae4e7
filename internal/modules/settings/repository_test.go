package settings

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(setupTestDB(t), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRepositoryGetSet(t *testing.T) {
	repo := newTestRepo(t)

	t.Run("missing key returns nil", func(t *testing.T) {
		value, err := repo.Get("nonexistent")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, repo.Set(KeyGroqAPIKey, "gsk_test"))

		value, err := repo.Get(KeyGroqAPIKey)
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "gsk_test", *value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, repo.Set("language", "en"))
		require.NoError(t, repo.Set("language", "kn"))

		value, err := repo.Get("language")
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "kn", *value)
	})
}

func TestRepositoryGetAll(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Set("a", "1"))
	require.NoError(t, repo.Set("b", "2"))

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}

func TestRepositoryTypedGetters(t *testing.T) {
	repo := newTestRepo(t)

	t.Run("int", func(t *testing.T) {
		require.NoError(t, repo.SetInt("retention_days", 14))
		v, err := repo.GetInt("retention_days", 30)
		require.NoError(t, err)
		assert.Equal(t, 14, v)
	})

	t.Run("int stored as float string", func(t *testing.T) {
		require.NoError(t, repo.Set("lookback", "12.0"))
		v, err := repo.GetInt("lookback", 30)
		require.NoError(t, err)
		assert.Equal(t, 12, v)
	})

	t.Run("int default on garbage", func(t *testing.T) {
		require.NoError(t, repo.Set("bad_int", "not a number"))
		v, err := repo.GetInt("bad_int", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("float", func(t *testing.T) {
		require.NoError(t, repo.SetFloat("threshold", 1.03))
		v, err := repo.GetFloat("threshold", 0)
		require.NoError(t, err)
		assert.Equal(t, 1.03, v)
	})

	t.Run("bool round trip", func(t *testing.T) {
		require.NoError(t, repo.SetBool("pretty_logs", true))
		v, err := repo.GetBool("pretty_logs", false)
		require.NoError(t, err)
		assert.True(t, v)

		require.NoError(t, repo.SetBool("pretty_logs", false))
		v, err = repo.GetBool("pretty_logs", true)
		require.NoError(t, err)
		assert.False(t, v)
	})

	t.Run("bool truthy variants", func(t *testing.T) {
		for _, raw := range []string{"true", "1", "yes", "on", "TRUE", " Yes "} {
			require.NoError(t, repo.Set("flag", raw))
			v, err := repo.GetBool("flag", false)
			require.NoError(t, err)
			assert.True(t, v, "raw %q", raw)
		}
	})

	t.Run("bool falsy", func(t *testing.T) {
		require.NoError(t, repo.Set("flag", "nope"))
		v, err := repo.GetBool("flag", true)
		require.NoError(t, err)
		assert.False(t, v)
	})

	t.Run("defaults for missing keys", func(t *testing.T) {
		s, err := repo.GetString("missing", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback", s)

		i, err := repo.GetInt("missing", 42)
		require.NoError(t, err)
		assert.Equal(t, 42, i)

		b, err := repo.GetBool("missing", true)
		require.NoError(t, err)
		assert.True(t, b)
	})
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Set("ephemeral", "x"))
	require.NoError(t, repo.Delete("ephemeral"))

	value, err := repo.Get("ephemeral")
	require.NoError(t, err)
	assert.Nil(t, value)

	// Idempotent.
	assert.NoError(t, repo.Delete("ephemeral"))
}
