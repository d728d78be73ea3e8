package provision

import (
	"context"
	"path/filepath"
	"strings"
)

// IconTheme is the icon theme shipped in the release
const IconTheme = "Tela-circle-MaterialYou"

var wallpaperExts = []string{".jpg", ".jpeg", ".png", ".webp"}

func isWallpaper(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range wallpaperExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// InstallWallpapers copies the release backgrounds into
// ~/.local/share/wallpapers/nyarch where Plasma looks for them.
func (p *Provisioner) InstallWallpapers(ctx context.Context) error {
	src, ok, err := p.skelDir(ctx, "Backgrounds folder", ".local", "share", "backgrounds")
	if err != nil || !ok {
		return err
	}
	dest := p.Paths.Data("wallpapers", "nyarch")
	n, err := p.Mutator.CopyFiles(src, dest, isWallpaper)
	if err != nil {
		return err
	}
	p.Printer.Info("Wallpapers installed into %s (copied %d images)", dest, n)
	return nil
}

// InstallIconTheme merges the release icon theme into the user's icons
func (p *Provisioner) InstallIconTheme(ctx context.Context) error {
	src, ok, err := p.skelDir(ctx, "Icons folder", ".local", "share", "icons", IconTheme)
	if err != nil || !ok {
		return err
	}
	dest := p.Paths.Data("icons", IconTheme)
	if _, err := p.Mutator.MergeCopy(src, dest); err != nil {
		return err
	}
	p.Printer.Info("Icons installed into %s", dest)
	return nil
}

// InstallGTKThemes installs the GTK themes and the gtk-3.0 and gtk-4.0
// configs, backing up whatever the user had first.
func (p *Provisioner) InstallGTKThemes(ctx context.Context) error {
	skel, err := p.Release.SkelRoot(ctx)
	if err != nil {
		return err
	}

	targets := []struct {
		src, dest, label string
	}{
		{filepath.Join(skel, ".local", "share", "themes"), p.Paths.Data("themes"), "GTK themes"},
		{filepath.Join(skel, ".config", "gtk-3.0"), p.Paths.Config("gtk-3.0"), "gtk-3.0 config"},
		{filepath.Join(skel, ".config", "gtk-4.0"), p.Paths.Config("gtk-4.0"), "gtk-4.0 config"},
	}

	for _, t := range targets {
		if !p.Mutator.IsDir(t.src) {
			p.Printer.Warn("%s not found in Nyarch skel: %s", t.label, t.src)
			continue
		}
		res, err := p.Mutator.ReplaceDir(t.src, t.dest)
		if err != nil {
			return err
		}
		if res.BackedUp {
			p.Printer.Info("Backed up existing %s to %s", t.label, res.BackupPath)
		}
		p.Printer.Info("Copied Nyarch %s into %s (%d files)", t.label, t.dest, res.Copy.Copied)
	}
	return nil
}

// ConfigureFlatpakOverrides lets flatpak apps read the GTK configs so the
// themes apply to them too.
func (p *Provisioner) ConfigureFlatpakOverrides(ctx context.Context) error {
	for _, loc := range []string{"xdg-config/gtk-3.0", "xdg-config/gtk-4.0"} {
		if err := p.Flatpak.Override(ctx, loc); err != nil {
			return err
		}
	}
	p.Printer.Info("Flatpak GTK overrides configured.")
	return nil
}
