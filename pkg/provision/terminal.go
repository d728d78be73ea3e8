package provision

import (
	"context"
	"path/filepath"

	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/system"
)

// FetchTools are the fetch scripts installed system-wide
var FetchTools = []string{"nekofetch", "nyaofetch"}

// SystemBinDir is where the fetch tools are installed
const SystemBinDir = "/usr/bin"

// ConfigureKitty installs kitty if needed and replaces its config with the
// release kitty.conf, keeping the user's one as kitty-backup.conf.
func (p *Provisioner) ConfigureKitty(ctx context.Context) error {
	if !p.Host.Which("kitty") {
		p.Printer.Info("kitty is not installed. Installing via apt...")
		if err := p.Apt.Install(ctx, p.Config.Packages.Kitty...); err != nil {
			return errors.Wrap(err, errors.ErrDependency, "failed to install kitty via apt")
		}
	}

	dir := p.Paths.Config("kitty")
	if err := p.Mutator.FS().MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", dir)
	}

	conf := filepath.Join(dir, "kitty.conf")
	backup := filepath.Join(dir, "kitty-backup.conf")
	moved, err := p.Mutator.BackupFile(conf, backup)
	if err != nil {
		return err
	}
	if moved {
		p.Printer.Info("Existing kitty.conf saved as %s", backup)
	}

	url, err := p.Release.RawURL(ctx, "etc/skel/.config/kitty/kitty.conf")
	if err != nil {
		return err
	}
	if err := p.Fetcher.Fetch(ctx, url, conf); err != nil {
		return errors.Wrapf(err, errors.ErrFetch, "failed to download kitty.conf from %s", url)
	}
	p.Printer.Info("Kitty theme configured.")
	return nil
}

// InstallFetchTools installs nekofetch and nyaofetch from the release into
// /usr/bin. The scripts are cached per release tag.
func (p *Provisioner) InstallFetchTools(ctx context.Context) error {
	tag, err := p.Release.Tag(ctx)
	if err != nil {
		return err
	}
	for _, name := range FetchTools {
		url, err := p.Release.RawURL(ctx, "usr/local/bin/"+name)
		if err != nil {
			return err
		}
		entry, err := p.Cache.GetOrFetch(ctx, cache.Key{Class: cache.ClassAssets, Name: name + "-" + tag}, url)
		if err != nil {
			return err
		}
		dest := filepath.Join(SystemBinDir, name)
		install := system.NewCommand("install", "-m", "0755", entry.LocalPath, dest).AsRoot()
		if err := p.Runner.Run(ctx, install); err != nil {
			return errors.Wrapf(err, errors.ErrCommand, "failed to install %s", dest)
		}
	}
	p.Printer.Info("Nekofetch and Nyaofetch installed into %s", SystemBinDir)
	return nil
}

// ConfigureFastfetch archives the current fastfetch config into
// ~/.config/fastfetch-backup and installs the release one.
func (p *Provisioner) ConfigureFastfetch(ctx context.Context) error {
	src, ok, err := p.skelDir(ctx, "Nyarch fastfetch config", ".config", "fastfetch")
	if err != nil || !ok {
		return err
	}

	dest := p.Paths.Config("fastfetch")
	if p.Mutator.IsDir(dest) {
		archive, err := p.Mutator.ArchiveDir(dest, p.Paths.Config("fastfetch-backup"), "fastfetch")
		if err != nil {
			// the existing config stays where it was; merge over it
			p.Printer.Warn("could not archive existing fastfetch config: %v", err)
		} else {
			p.Printer.Info("Existing fastfetch config archived to %s", archive)
		}
	}

	if _, err := p.Mutator.MergeCopy(src, dest); err != nil {
		return err
	}
	p.Printer.Info("Fastfetch config installed in %s", dest)
	return nil
}
