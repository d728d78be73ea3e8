package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/home/neko/.cache/nyarch-kde"

type fakeFetcher struct {
	fs      afero.Fs
	content string
	err     error
	urls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, dest string) error {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return f.err
	}
	return afero.WriteFile(f.fs, dest, []byte(f.content), 0644)
}

type fakeExtractor struct {
	fs    afero.Fs
	dirs  []string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, archive, destDir string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, d := range f.dirs {
		if err := f.fs.MkdirAll(filepath.Join(destDir, d), 0755); err != nil {
			return err
		}
	}
	return nil
}

type fakeCloner struct {
	fs    afero.Fs
	calls int
	err   error
}

func (f *fakeCloner) Clone(_ context.Context, url, dest string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return afero.WriteFile(f.fs, filepath.Join(dest, "README.md"), []byte(url), 0644)
}

func newTestCache(t *testing.T, opts ...Option) (*Cache, afero.Fs, *fakeFetcher, *fakeExtractor) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0755))
	fetcher := &fakeFetcher{fs: fs, content: "payload"}
	extractor := &fakeExtractor{fs: fs}
	return New(fs, root, fetcher, extractor, opts...), fs, fetcher, extractor
}

func TestGetOrFetchFetchesOnce(t *testing.T) {
	c, fs, fetcher, _ := newTestCache(t)
	key := Key{Class: ClassFlatpaks, Name: "catgirldownloader.flatpak"}
	ctx := context.Background()

	first, err := c.GetOrFetch(ctx, key, "https://example.org/catgirl.flatpak")
	require.NoError(t, err)
	second, err := c.GetOrFetch(ctx, key, "https://example.org/catgirl.flatpak")
	require.NoError(t, err)

	assert.Len(t, fetcher.urls, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(root, "flatpaks", "catgirldownloader.flatpak"), first.LocalPath)
	assert.Equal(t, RawFile, first.Kind)

	ok, err := afero.DirExists(fs, filepath.Join(root, ClassFlatpaks))
	require.NoError(t, err)
	assert.True(t, ok, "class directory is created on demand")
}

func TestGetOrFetchUsesExistingFile(t *testing.T) {
	c, fs, fetcher, _ := newTestCache(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "NyarchLinux.tar.gz"), []byte("cached"), 0644))

	entry, err := c.GetOrFetch(context.Background(), Key{Name: "NyarchLinux.tar.gz"}, "https://example.org/x")
	require.NoError(t, err)

	assert.Empty(t, fetcher.urls)
	data, _ := afero.ReadFile(fs, entry.LocalPath)
	assert.Equal(t, "cached", string(data))
}

func TestGetOrFetchFailure(t *testing.T) {
	c, _, fetcher, _ := newTestCache(t)
	fetcher.err = fmt.Errorf("404 Not Found")
	key := Key{Class: ClassFlatpaks, Name: "waifudownloader.flatpak"}

	_, err := c.GetOrFetch(context.Background(), key, "https://example.org/w")
	assert.True(t, errors.IsErrorCode(err, errors.ErrFetch))
	assert.False(t, c.Has(key))

	fetcher.err = nil
	_, err = c.GetOrFetch(context.Background(), key, "https://example.org/w")
	require.NoError(t, err)
	assert.Len(t, fetcher.urls, 2, "a failed fetch leaves nothing cached")
}

func TestGetOrFetchRejectsPathNames(t *testing.T) {
	c, _, _, _ := newTestCache(t)

	for _, name := range []string{"", "..", "../escape", "a/b"} {
		_, err := c.GetOrFetch(context.Background(), Key{Name: name}, "https://example.org")
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), name)
	}
}

func TestChecksumVerification(t *testing.T) {
	key := Key{Name: "NyarchLinux.tar.gz"}
	ctx := context.Background()

	t.Run("mismatch refetches", func(t *testing.T) {
		c, fs, fetcher, _ := newTestCache(t, WithChecksums(true))
		entry, err := c.GetOrFetch(ctx, key, "https://example.org/t")
		require.NoError(t, err)
		exists, _ := afero.Exists(fs, entry.LocalPath+checksumSuffix)
		assert.True(t, exists)

		require.NoError(t, afero.WriteFile(fs, entry.LocalPath, []byte("truncat"), 0644))

		_, err = c.GetOrFetch(ctx, key, "https://example.org/t")
		require.NoError(t, err)
		assert.Len(t, fetcher.urls, 2)
		data, _ := afero.ReadFile(fs, entry.LocalPath)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("matching file is reused", func(t *testing.T) {
		c, _, fetcher, _ := newTestCache(t, WithChecksums(true))
		_, err := c.GetOrFetch(ctx, key, "https://example.org/t")
		require.NoError(t, err)
		_, err = c.GetOrFetch(ctx, key, "https://example.org/t")
		require.NoError(t, err)
		assert.Len(t, fetcher.urls, 1)
	})

	t.Run("disabled trusts presence", func(t *testing.T) {
		c, fs, fetcher, _ := newTestCache(t)
		entry, err := c.GetOrFetch(ctx, key, "https://example.org/t")
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, entry.LocalPath, []byte("truncat"), 0644))

		_, err = c.GetOrFetch(ctx, key, "https://example.org/t")
		require.NoError(t, err)
		assert.Len(t, fetcher.urls, 1)
	})
}

func TestDigestIsStable(t *testing.T) {
	c, fs, _, _ := newTestCache(t)
	path := filepath.Join(root, "a")
	require.NoError(t, afero.WriteFile(fs, path, []byte("nyarch"), 0644))

	first, err := c.Digest(path)
	require.NoError(t, err)
	second, err := c.Digest(path)
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.Equal(t, first, second)
}

func TestClone(t *testing.T) {
	tmp := t.TempDir()
	fs := afero.NewOsFs()
	cloner := &fakeCloner{fs: fs}
	c := New(fs, tmp, nil, nil, WithCloner(cloner))
	key := Key{Class: ClassRepos, Name: "kde-material-you-colors"}
	ctx := context.Background()

	stale := filepath.Join(tmp, ClassRepos, "kde-material-you-colors", "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	entry, err := c.Clone(ctx, key, "https://github.com/luisbocanegra/kde-material-you-colors.git")
	require.NoError(t, err)
	assert.Equal(t, ExtractedTree, entry.Kind)
	assert.NoFileExists(t, stale, "clones are refreshed")
	assert.FileExists(t, filepath.Join(entry.LocalPath, "README.md"))

	t.Run("refuses symlink", func(t *testing.T) {
		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(target, "precious"), []byte("x"), 0644))
		link := filepath.Join(tmp, ClassRepos, "linked")
		require.NoError(t, os.Symlink(target, link))

		_, err := c.Clone(ctx, Key{Class: ClassRepos, Name: "linked"}, "https://example.org/r.git")
		assert.True(t, errors.IsErrorCode(err, errors.ErrSymlink))
		assert.FileExists(t, filepath.Join(target, "precious"))
	})

	t.Run("clone failure", func(t *testing.T) {
		cloner.err = fmt.Errorf("exit status 128")
		_, err := c.Clone(ctx, key, "https://example.org/r.git")
		assert.True(t, errors.IsErrorCode(err, errors.ErrFetch))
	})
}

func TestCloneWithoutCloner(t *testing.T) {
	c, _, _, _ := newTestCache(t)
	_, err := c.Clone(context.Background(), Key{Class: ClassRepos, Name: "r"}, "https://example.org/r.git")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}

func TestEntries(t *testing.T) {
	c, fs, _, _ := newTestCache(t, WithChecksums(true))
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, Key{Name: "NyarchLinux.tar.gz"}, "u")
	require.NoError(t, err)
	_, err = c.GetOrFetch(ctx, Key{Class: ClassFlatpaks, Name: "nyarchassistant.flatpak"}, "u")
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(filepath.Join(root, "NyarchLinuxComp", "Gnome"), 0755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "x.part"), nil, 0644))

	entries, err := c.Entries()
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Key.String()+":"+e.Kind.String())
	}
	assert.Equal(t, []string{
		"NyarchLinux.tar.gz:file",
		"NyarchLinuxComp:tree",
		"flatpaks/nyarchassistant.flatpak:file",
	}, names)
}

func TestEntriesMissingRoot(t *testing.T) {
	c := New(afero.NewMemMapFs(), "/nowhere", nil, nil)
	entries, err := c.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
