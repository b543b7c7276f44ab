package cachefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/pagetrans/translate"
)

func TestLoadNonExistent(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "cache.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Version, f.Version)
	assert.Empty(t, f.Entries())
	assert.Equal(t, "empty", f.Summary())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.yaml")

	f, err := Load(path)
	require.NoError(t, err)
	f.Set(translate.Key{Text: "Hello", Source: "en", Target: "ta"}, "வணக்கம்")
	f.Merge(map[translate.Key]string{
		{Text: "World", Source: "en", Target: "ta"}: "உலகம்",
		{Text: "Hello", Source: "en", Target: "de"}: "Hallo",
	})
	require.NoError(t, f.Save())

	_, err = os.Stat(path)
	require.NoError(t, err)

	f2, err := Load(path)
	require.NoError(t, err)
	entries := f2.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "வணக்கம்", entries[translate.Key{Text: "Hello", Source: "en", Target: "ta"}])
	assert.Equal(t, "Hallo", entries[translate.Key{Text: "Hello", Source: "en", Target: "de"}])

	pairs, n := f2.Stats()
	assert.Equal(t, 2, pairs)
	assert.Equal(t, 3, n)
	assert.Equal(t, "2 pairs, 3 entries (en:de: 1, en:ta: 2)", f2.Summary())
}

func TestWarmsMemoryCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	content := "version: 1\npairs:\n  en:fr:\n    Yes: Oui\n  broken:\n    x: y\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := Load(path)
	require.NoError(t, err)

	mc := translate.NewMemoryCache()
	mc.Load(f.Entries())
	got, ok := mc.Get(translate.Key{Text: "Yes", Source: "en", Target: "fr"})
	require.True(t, ok)
	assert.Equal(t, "Oui", got)
	assert.Equal(t, 1, mc.Len())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pairs: [1, 2"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: 99\n"), 0o644))
	_, err = Load(future)
	assert.Error(t, err)
}

func TestSaveWithoutPath(t *testing.T) {
	assert.Error(t, (&File{}).Save())
}
