package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/system"
	"github.com/nyarchlinux/nyarchify/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallExtensions(t *testing.T) {
	f := newFixture(t)
	f.skelFiles(map[string]string{
		".local/share/gnome-shell/extensions/nyarch@nyarch/metadata.json": "{}",
		".config/nyarch/settings.json":                                    "{}",
	})
	f.homeFiles(map[string]string{".local/share/gnome-shell/extensions/old@me/metadata.json": "old"})
	f.runner.On("git clone", testutil.Response{Do: func(cmd system.Command) error {
		return os.MkdirAll(cmd.Args[len(cmd.Args)-1], 0755)
	}})
	p := f.provisioner()

	require.NoError(t, p.InstallExtensions(context.Background()))

	ext := filepath.Join(f.home, ".local", "share", "gnome-shell", "extensions")
	assert.FileExists(t, filepath.Join(ext, "nyarch@nyarch", "metadata.json"))
	assert.FileExists(t, filepath.Join(ext+"-backup", "old@me", "metadata.json"))
	assert.FileExists(t, filepath.Join(f.home, ".config", "nyarch", "settings.json"))

	repo := filepath.Join(f.cacheRoot, "repos", "material-you-colors")
	extDir := filepath.Join(ext, f.cfg.Gnome.ExtensionID)
	adw := filepath.Join(extDir, "adwaita-material-you")

	var dirs = map[string]string{}
	for _, c := range f.runner.Commands() {
		dirs[c.String()] = c.Dir
	}
	assert.Equal(t, repo, dirs["make build"])
	assert.Equal(t, repo, dirs["make install"])
	assert.Equal(t, adw, dirs["bash local-install.sh"])
	assert.Equal(t, adw, dirs["sh -c chmod -R 755 extensions/*"])
	assert.True(t, f.runner.Ran("npm install --prefix "+extDir))
	assert.True(t, f.runner.Ran("git clone --depth 1 "+f.cfg.Gnome.AdwaitaRepo+" "+adw))
	assert.True(t, f.runner.Ran("git clone --depth 1 "+f.cfg.Gnome.IconRepo+" "+
		filepath.Join(f.home, ".config", "nyarch", "Tela-circle-icon-theme")))
}

func TestInstallExtensionsSkipsExistingClones(t *testing.T) {
	f := newFixture(t)
	extDir := filepath.Join(f.home, ".local", "share", "gnome-shell", "extensions", f.cfg.Gnome.ExtensionID)
	require.NoError(t, os.MkdirAll(filepath.Join(extDir, "adwaita-material-you"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(f.home, ".config", "nyarch", "Tela-circle-icon-theme"), 0755))
	f.runner.On("git clone", testutil.Response{Do: func(cmd system.Command) error {
		return os.MkdirAll(cmd.Args[len(cmd.Args)-1], 0755)
	}})
	p := f.provisioner()

	require.NoError(t, p.InstallExtensions(context.Background()))

	clones := 0
	for _, l := range f.runner.Lines() {
		if len(l) > 9 && l[:9] == "git clone" {
			clones++
		}
	}
	assert.Equal(t, 1, clones, "only the cached build repo is cloned")
	assert.Contains(t, f.out.String(), "GNOME extensions not found in Nyarch skel")
}

func TestInstallExtensionsBuildFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.Fail("make build", fmt.Errorf("exit status 2"))
	p := f.provisioner()

	err := p.InstallExtensions(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommand))
	assert.False(t, f.runner.Ran("npm"))
}

func TestInstallGnomeWallpapers(t *testing.T) {
	f := newFixture(t)
	f.extractor.dirs = []string{"wallpaper"}
	p := f.provisioner()

	require.NoError(t, p.InstallGnomeWallpapers(context.Background()))

	require.Equal(t, 1, f.fetcher.count())
	assert.Equal(t, "https://github.com/NyarchLinux/NyarchLinux/releases/download/v2024.11/wallpaper.tar.gz", f.fetcher.urls[0])
	cmds := f.runner.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "bash install.sh", cmds[0].String())
	assert.Equal(t, filepath.Join(f.cacheRoot, "assets", "wallpaper"), cmds[0].Dir)
}

func TestInstallGnomeIcons(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTree(t, filepath.Join(f.cacheRoot, "assets"), map[string]string{
		IconTheme + "/index.theme": "icons",
	})
	p := f.provisioner()

	require.NoError(t, p.InstallGnomeIcons(context.Background()))

	assert.Zero(t, f.fetcher.count(), "extracted icons are reused")
	assert.Equal(t, "icons", testutil.ReadFile(t, filepath.Join(f.home, ".local", "share", "icons", IconTheme, "index.theme")))
}

func (f *fixture) dconfFiles() string {
	dir := filepath.Join(filepath.Dir(f.skel), "dconf", "db", "local.d")
	files := map[string]string{}
	for _, name := range f.cfg.Gnome.DconfFiles {
		files[name] = "[" + name + "]\n"
	}
	testutil.WriteTree(f.t, dir, files)
	return dir
}

func TestConfigureDconf(t *testing.T) {
	f := newFixture(t)
	f.dconfFiles()
	f.runner.On("dconf dump /", testutil.Response{Output: "[org/gnome]\nkey=1"})
	p := f.provisioner()

	require.NoError(t, p.ConfigureDconf(context.Background()))

	backup := filepath.Join(f.home, "dconf-backup.txt")
	assert.Equal(t, "[org/gnome]\nkey=1\n", testutil.ReadFile(t, backup))

	lines := f.runner.Lines()
	require.Len(t, lines, 1+len(f.cfg.Gnome.DconfFiles))
	for i, name := range f.cfg.Gnome.DconfFiles {
		assert.Equal(t, "dconf load /", lines[i+1])
		assert.Equal(t, "["+name+"]\n", f.runner.Stdin(i+1))
	}

	// The first backup is the one worth keeping
	require.NoError(t, p.ConfigureDconf(context.Background()))
	assert.Equal(t, "[org/gnome]\nkey=1\n", testutil.ReadFile(t, backup))
	assert.Len(t, f.runner.Lines(), 1+2*len(f.cfg.Gnome.DconfFiles))
}

func TestConfigureDconfDumpFailure(t *testing.T) {
	f := newFixture(t)
	f.dconfFiles()
	f.runner.Fail("dconf dump", fmt.Errorf("no session bus"))
	p := f.provisioner()

	err := p.ConfigureDconf(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackup))
	assert.False(t, f.runner.Ran("dconf load"))
}

func TestConfigureDconfMissingFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.home, "dconf-backup.txt"), []byte("x"), 0644))
	p := f.provisioner()

	err := p.ConfigureDconf(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}
