package provision

import (
	"context"
	"path/filepath"

	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/system"
	"github.com/spf13/afero"
)

// InstallExtensions installs the Nyarch GNOME Shell extensions, builds the
// Material You extension and its Adwaita theme, and sets up the Material
// You icon sources under ~/.config/nyarch.
func (p *Provisioner) InstallExtensions(ctx context.Context) error {
	g := p.Config.Gnome

	src, ok, err := p.skelDir(ctx, "GNOME extensions", ".local", "share", "gnome-shell", "extensions")
	if err != nil {
		return err
	}
	extensions := p.Paths.Data("gnome-shell", "extensions")
	if ok {
		res, err := p.Mutator.ReplaceDir(src, extensions)
		if err != nil {
			return err
		}
		if res.BackedUp {
			p.Printer.Info("Backed up old extensions to %s", res.BackupPath)
		}
	}

	repo, err := p.Cache.Clone(ctx, cache.Key{Class: cache.ClassRepos, Name: "material-you-colors"}, g.MaterialYouRepo)
	if err != nil {
		return err
	}
	for _, target := range []string{"build", "install"} {
		if err := p.Runner.Run(ctx, system.NewCommand("make", target).In(repo.LocalPath)); err != nil {
			return errors.Wrapf(err, errors.ErrCommand, "make %s of material-you-colors failed", target)
		}
	}

	extDir := filepath.Join(extensions, g.ExtensionID)
	if err := p.Runner.Run(ctx, system.NewCommand("npm", "install", "--prefix", extDir)); err != nil {
		return errors.Wrap(err, errors.ErrCommand, "npm install for the Material You extension failed")
	}

	adw := filepath.Join(extDir, "adwaita-material-you")
	if err := p.cloneOnce(ctx, g.AdwaitaRepo, adw); err != nil {
		return err
	}
	if err := p.Runner.Run(ctx, system.NewCommand("bash", "local-install.sh").In(adw)); err != nil {
		return errors.Wrap(err, errors.ErrCommand, "adwaita-material-you install failed")
	}
	if err := p.Runner.Run(ctx, system.ShellCommand("chmod -R 755 extensions/*").In(adw)); err != nil {
		p.logger.Warn().Err(err).Msg("chmod of adwaita-material-you extensions failed")
	}

	if nyarch, ok, err := p.skelDir(ctx, "Nyarch config", ".config", "nyarch"); err != nil {
		return err
	} else if ok {
		if _, err := p.Mutator.MergeCopy(nyarch, p.Paths.Config("nyarch")); err != nil {
			return err
		}
	}
	return p.cloneOnce(ctx, g.IconRepo, p.Paths.Config("nyarch", filepath.Base(g.IconRepo)))
}

// cloneOnce clones url into dest unless dest already exists
func (p *Provisioner) cloneOnce(ctx context.Context, url, dest string) error {
	exists, err := p.Mutator.Exists(dest)
	if err != nil {
		return err
	}
	if exists {
		p.logger.Debug().Str("dest", dest).Msg("Already cloned")
		return nil
	}
	if err := p.Git.Clone(ctx, url, dest); err != nil {
		return errors.Wrapf(err, errors.ErrFetch, "could not clone %s", url)
	}
	return nil
}

// InstallGnomeWallpapers fetches the wallpaper release asset and runs its
// installer.
func (p *Provisioner) InstallGnomeWallpapers(ctx context.Context) error {
	dir, err := p.Release.Asset(ctx, "wallpaper.tar.gz", "wallpaper")
	if err != nil {
		return err
	}
	return p.Runner.Run(ctx, system.NewCommand("bash", "install.sh").In(dir))
}

// InstallGnomeIcons fetches the icon release asset and merges the theme
// into the user's icons.
func (p *Provisioner) InstallGnomeIcons(ctx context.Context) error {
	src, err := p.Release.Asset(ctx, "icons.tar.gz", IconTheme)
	if err != nil {
		return err
	}
	dest := p.Paths.Data("icons", IconTheme)
	if _, err := p.Mutator.MergeCopy(src, dest); err != nil {
		return err
	}
	p.Printer.Info("Icons installed into %s", dest)
	return nil
}

// ConfigureDconf saves the current settings to ~/dconf-backup.txt (unless
// a backup already exists) and loads the Nyarch settings files in order.
func (p *Provisioner) ConfigureDconf(ctx context.Context) error {
	backup := p.Paths.Home("dconf-backup.txt")
	exists, err := p.Mutator.Exists(backup)
	if err != nil {
		return err
	}
	if !exists {
		dump, err := p.Runner.Output(ctx, system.NewCommand("dconf", "dump", "/"))
		if err != nil {
			return errors.Wrap(err, errors.ErrBackup, "could not back up current settings")
		}
		if err := afero.WriteFile(p.Mutator.FS(), backup, []byte(dump+"\n"), 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "could not write %s", backup)
		}
		p.Printer.Info("Current settings saved to %s", backup)
	}

	dir, err := p.Release.DconfDir(ctx)
	if err != nil {
		return err
	}
	for _, name := range p.Config.Gnome.DconfFiles {
		path := filepath.Join(dir, name)
		f, err := p.Mutator.FS().Open(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrNotFound, "settings file %s missing from release", name)
		}
		err = p.Runner.Run(ctx, system.NewCommand("dconf", "load", "/").WithStdin(f))
		f.Close()
		if err != nil {
			return errors.Wrapf(err, errors.ErrCommand, "dconf load of %s failed", name)
		}
	}
	return nil
}
