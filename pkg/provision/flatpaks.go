package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/config"
	"github.com/nyarchlinux/nyarchify/pkg/system"
)

// InstallSuggestedFlatpaks adds flathub and installs the suggested apps
// in a single transaction.
func (p *Provisioner) InstallSuggestedFlatpaks(ctx context.Context) error {
	fp := p.Config.Flatpak
	if err := p.Flatpak.AddRemote(ctx, fp.RemoteName, fp.RemoteURL); err != nil {
		return err
	}
	if err := p.Flatpak.Install(ctx, fp.RemoteName, fp.Suggested...); err != nil {
		return err
	}
	p.Printer.Info("Suggested Flatpaks installed (or queued).")
	return nil
}

// InstallBundles downloads each .flatpak bundle into the cache and installs
// it from there. A failing bundle does not stop the others.
func (p *Provisioner) InstallBundles(ctx context.Context, bundles ...config.Bundle) error {
	var steps []step
	for _, b := range bundles {
		steps = append(steps, step{name: b.Name, run: func(ctx context.Context) error {
			return p.installBundle(ctx, b)
		}})
	}
	return p.runSteps(ctx, steps...)
}

func (p *Provisioner) installBundle(ctx context.Context, b config.Bundle) error {
	entry, err := p.Cache.GetOrFetch(ctx, cache.Key{Class: cache.ClassFlatpaks, Name: b.Name}, b.URL)
	if err != nil {
		return err
	}
	if err := p.Flatpak.InstallFromFile(ctx, entry.LocalPath); err != nil {
		return fmt.Errorf("flatpak install failed for %s: %w", b.Name, err)
	}
	p.Printer.Info("%s installed (or queued).", b.Name)
	return nil
}

// InstallUpdater installs the Nyarch updater bundle and writes the version
// marker it reads.
func (p *Provisioner) InstallUpdater(ctx context.Context) error {
	if err := p.installBundle(ctx, p.Config.Flatpak.Updater); err != nil {
		return err
	}
	version := p.Config.Gnome.UpdaterVersion
	return p.Runner.Run(ctx, system.NewCommand("tee", "/version").
		AsRoot().
		WithStdin(strings.NewReader(version+"\n")))
}
