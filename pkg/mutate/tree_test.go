package mutate

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// vanishingFs deletes victim right before it is opened, as if another
// process removed it between listing and copying.
type vanishingFs struct {
	afero.Fs
	victim string
}

func (v vanishingFs) Open(name string) (afero.File, error) {
	if name == v.victim {
		_ = v.Fs.Remove(name)
	}
	return v.Fs.Open(name)
}

func TestMergeCopy(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	writeTree(t, src, map[string]string{
		"index.theme":            "[Icon Theme]",
		"scalable/apps/neko.svg": "<svg/>",
	})
	writeTree(t, dst, map[string]string{
		"index.theme": "old",
		"user.txt":    "keep me",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, "scalable/apps/neko.svg"), 0600))

	stats, err := New(afero.NewOsFs()).MergeCopy(src, dst)
	require.NoError(t, err)

	assert.Equal(t, CopyStats{Copied: 2}, stats)
	assert.Equal(t, "[Icon Theme]", readFile(t, filepath.Join(dst, "index.theme")))
	assert.Equal(t, "<svg/>", readFile(t, filepath.Join(dst, "scalable/apps/neko.svg")))
	assert.Equal(t, "keep me", readFile(t, filepath.Join(dst, "user.txt")), "unrelated files survive")

	info, err := os.Stat(filepath.Join(dst, "scalable/apps/neko.svg"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestMergeCopySkipsVanishedFiles(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	writeTree(t, src, map[string]string{
		"a.conf":     "a",
		"b.conf":     "b",
		"sub/c.conf": "c",
	})

	fs := vanishingFs{Fs: afero.NewOsFs(), victim: filepath.Join(src, "b.conf")}
	stats, err := New(fs).MergeCopy(src, dst)
	require.NoError(t, err)

	assert.Equal(t, CopyStats{Copied: 2, Skipped: 1}, stats)
	assert.FileExists(t, filepath.Join(dst, "a.conf"))
	assert.FileExists(t, filepath.Join(dst, "sub/c.conf"))
	assert.NoFileExists(t, filepath.Join(dst, "b.conf"))
}

func TestMergeCopySkipsDanglingSymlinks(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	writeTree(t, src, map[string]string{"real.conf": "x"})
	require.NoError(t, os.Symlink(filepath.Join(tmp, "nowhere"), filepath.Join(src, "broken.conf")))
	require.NoError(t, os.Symlink(filepath.Join(src, "real.conf"), filepath.Join(src, "alias.conf")))

	stats, err := New(afero.NewOsFs()).MergeCopy(src, dst)
	require.NoError(t, err)

	assert.Equal(t, CopyStats{Copied: 2, Skipped: 1}, stats)
	assert.Equal(t, "x", readFile(t, filepath.Join(dst, "alias.conf")))
	assert.NoFileExists(t, filepath.Join(dst, "broken.conf"))
}

func TestMergeCopyMissingSource(t *testing.T) {
	_, err := New(afero.NewOsFs()).MergeCopy(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestReplaceDirPreservesOldestBackup(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "skel", "gtk-3.0")
	dst := filepath.Join(tmp, "home", ".config", "gtk-3.0")
	writeTree(t, src, map[string]string{"gtk.css": "nyarch"})
	writeTree(t, dst, map[string]string{"gtk.css": "original", "settings.ini": "mine"})

	m := New(afero.NewOsFs())

	first, err := m.ReplaceDir(src, dst)
	require.NoError(t, err)
	assert.True(t, first.BackedUp)
	assert.Equal(t, dst+"-backup", first.BackupPath)
	assert.Equal(t, "original", readFile(t, filepath.Join(dst+"-backup", "gtk.css")))
	assert.Equal(t, "nyarch", readFile(t, filepath.Join(dst, "gtk.css")))
	assert.NoFileExists(t, filepath.Join(dst, "settings.ini"), "replaced dir starts from the source")

	require.NoError(t, os.WriteFile(filepath.Join(dst, "gtk.css"), []byte("edited"), 0644))

	second, err := m.ReplaceDir(src, dst)
	require.NoError(t, err)
	assert.False(t, second.BackedUp)
	assert.Equal(t, "original", readFile(t, filepath.Join(dst+"-backup", "gtk.css")), "oldest backup wins")
	assert.Equal(t, "mine", readFile(t, filepath.Join(dst+"-backup", "settings.ini")))
	assert.Equal(t, "nyarch", readFile(t, filepath.Join(dst, "gtk.css")))
}

func TestReplaceDirWithoutExistingDestination(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "skel", "themes")
	dst := filepath.Join(tmp, "home", ".local", "share", "themes")
	writeTree(t, src, map[string]string{"Nyarch/index.theme": "x"})

	result, err := New(afero.NewOsFs()).ReplaceDir(src, dst)
	require.NoError(t, err)

	assert.False(t, result.BackedUp)
	assert.NoDirExists(t, dst+"-backup")
	assert.FileExists(t, filepath.Join(dst, "Nyarch/index.theme"))
}

func TestReplaceDirMissingSource(t *testing.T) {
	tmp := t.TempDir()
	dst := filepath.Join(tmp, "dst")
	writeTree(t, dst, map[string]string{"keep": "x"})

	_, err := New(afero.NewOsFs()).ReplaceDir(filepath.Join(tmp, "absent"), dst)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.FileExists(t, filepath.Join(dst, "keep"), "nothing moves when there is nothing to install")
}

func TestBackupFile(t *testing.T) {
	tmp := t.TempDir()
	conf := filepath.Join(tmp, "kitty.conf")
	backup := filepath.Join(tmp, "kitty-backup.conf")
	m := New(afero.NewOsFs())

	moved, err := m.BackupFile(conf, backup)
	require.NoError(t, err)
	assert.False(t, moved, "missing file is not an error")

	require.NoError(t, os.WriteFile(conf, []byte("first"), 0644))
	moved, err = m.BackupFile(conf, backup)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "first", readFile(t, backup))

	require.NoError(t, os.WriteFile(conf, []byte("second"), 0644))
	moved, err = m.BackupFile(conf, backup)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, "first", readFile(t, backup))
	assert.Equal(t, "second", readFile(t, conf))
}

func TestCopyFiles(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "backgrounds")
	dst := filepath.Join(tmp, "wallpapers", "nyarch")
	writeTree(t, src, map[string]string{
		"a.png":        "png",
		"B.JPG":        "jpg",
		"notes.txt":    "txt",
		"nested/c.png": "png",
	})

	images := func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		return ext == ".png" || ext == ".jpg"
	}
	n, err := New(afero.NewOsFs()).CopyFiles(src, dst, images)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dst, "a.png"))
	assert.FileExists(t, filepath.Join(dst, "B.JPG"))
	assert.NoFileExists(t, filepath.Join(dst, "notes.txt"))
	assert.NoDirExists(t, filepath.Join(dst, "nested"))
}

func TestArchiveDir(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, ".config", "fastfetch")
	backups := filepath.Join(tmp, ".config", "fastfetch-backup")
	writeTree(t, dir, map[string]string{
		"config.jsonc":   "{}",
		"logos/neko.txt": "=^.^=",
	})

	clock := func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }
	m := New(afero.NewOsFs()).WithClock(clock)

	archive, err := m.ArchiveDir(dir, backups, "fastfetch")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "fastfetch-20260314-092653.tar.gz"), archive)
	assert.NoDirExists(t, dir)

	names, contents := readArchive(t, archive)
	assert.Equal(t, []string{"fastfetch/", "fastfetch/config.jsonc", "fastfetch/logos/", "fastfetch/logos/neko.txt"}, names)
	assert.Equal(t, "=^.^=", contents["fastfetch/logos/neko.txt"])

	writeTree(t, dir, map[string]string{"config.jsonc": "{\"v\":2}"})
	second, err := m.ArchiveDir(dir, backups, "fastfetch")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "fastfetch-20260314-092653-1.tar.gz"), second)

	_, firstContents := readArchive(t, archive)
	assert.Equal(t, "{}", firstContents["fastfetch/config.jsonc"], "earlier archive untouched")
}

func TestArchiveDirFailureKeepsDirectory(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "fastfetch")
	writeTree(t, dir, map[string]string{"config.jsonc": "{}"})
	blocker := filepath.Join(tmp, "backups")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := New(afero.NewOsFs()).ArchiveDir(dir, blocker, "fastfetch")
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.jsonc"))
}

func readArchive(t *testing.T, path string) ([]string, map[string]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	contents := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			data, err := io.ReadAll(tr)
			require.NoError(t, err)
			contents[hdr.Name] = string(data)
		}
	}
	sort.Strings(names)
	return names, contents
}
