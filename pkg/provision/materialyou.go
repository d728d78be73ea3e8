package provision

import (
	"context"
	"path/filepath"

	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/system"
)

const manualPlasmoidInstructions = `Automatic install of the 'KDE Material You Colors' widget failed.
You can still install it manually:
  1) Right-click your panel → Add Widgets
  2) Get New Widgets → Download New Plasma Widgets
  3) Search for "KDE Material You Colors" and install it
  4) Add the widget to your panel/desktop and link it to your wallpaper`

// InstallMaterialYouBackend installs the colour backend with pipx, runs it
// once, then installs the Plasma widget.
func (p *Provisioner) InstallMaterialYouBackend(ctx context.Context) error {
	cfg := p.Config.MaterialYou
	p.Printer.Info("Installing KDE Material You Colors backend via pipx...")

	if err := p.Apt.Install(ctx, p.Config.Packages.MaterialYou...); err != nil {
		return errors.Wrap(err, errors.ErrDependency, "failed to install system dependencies for KDE Material You Colors")
	}
	if !p.Host.Which("pipx") {
		return errors.New(errors.ErrDependency, "pipx is not on PATH after install")
	}

	if err := p.Runner.Run(ctx, system.NewCommand("pipx", "install", cfg.Package)); err != nil {
		p.Printer.Warn("Check pipx logs in ~/.local/state/pipx/log/ for details.")
		return errors.Wrapf(err, errors.ErrCommand, "failed to install %s via pipx", cfg.Package)
	}
	for _, extra := range cfg.Inject {
		if err := p.Runner.Run(ctx, system.NewCommand("pipx", "inject", cfg.Package, extra)); err != nil {
			p.logger.Warn().Err(err).Str("package", extra).Msg("pipx inject failed")
		}
	}
	if err := p.Runner.Run(ctx, system.NewCommand("pipx", "ensurepath")); err != nil {
		p.logger.Warn().Err(err).Msg("pipx ensurepath failed")
	}

	if err := p.EnsureLocalBinOnPath(ctx); err != nil {
		return err
	}

	if p.Host.Which(cfg.Package) {
		for _, flag := range []string{"-c", "-a"} {
			if err := p.Runner.Run(ctx, system.NewCommand(cfg.Package, flag)); err != nil {
				p.logger.Warn().Err(err).Str("flag", flag).Msg("Backend setup command failed")
			}
		}
	} else {
		p.Printer.Warn("'%s' not found on PATH even after pipx. "+
			"You may need to open a new session or check pipx logs.", cfg.Package)
	}
	p.Printer.Info("KDE Material You Colors backend installed and configured.")

	return p.EnsurePlasmoid(ctx)
}

// PlasmoidInstalled reports whether the widget is in the user or system
// plasmoid directory.
func (p *Provisioner) PlasmoidInstalled() bool {
	for _, dir := range p.plasmoidDirs() {
		if p.Mutator.IsDir(dir) {
			return true
		}
	}
	return false
}

func (p *Provisioner) plasmoidDirs() []string {
	id := p.Config.Plasmoid.ID
	return []string{
		p.Paths.Data("plasma", "plasmoids", id),
		filepath.Join("/usr", "share", "plasma", "plasmoids", id),
	}
}

// EnsurePlasmoid installs the Material You widget unless it is present.
// On any failure the manual steps are printed.
func (p *Provisioner) EnsurePlasmoid(ctx context.Context) error {
	if p.PlasmoidInstalled() {
		p.Printer.Info("KDE Material You Colors plasmoid already installed, skipping.")
		return nil
	}
	if err := p.installPlasmoid(ctx); err != nil {
		p.Printer.Println(manualPlasmoidInstructions)
		return err
	}
	p.Printer.Info("KDE Material You Colors plasmoid installed/upgraded.")
	return nil
}

func (p *Provisioner) installPlasmoid(ctx context.Context) error {
	if err := p.Apt.Install(ctx, p.Config.Packages.Plasmoid...); err != nil {
		return errors.Wrap(err, errors.ErrDependency, "failed to install git/kpackagetool6")
	}

	repo, err := p.Cache.Clone(ctx, cache.Key{Class: cache.ClassRepos, Name: "kde-material-you-colors"}, p.Config.Plasmoid.Repo)
	if err != nil {
		return err
	}

	pkgDir := filepath.Join(repo.LocalPath, "src", "plasmoid", "package")
	if !p.Mutator.IsDir(pkgDir) {
		return errors.Newf(errors.ErrNotFound, "plasmoid package directory not found: %s", pkgDir)
	}

	install := system.NewCommand("kpackagetool6", "--type", "Plasma/Applet", "--install", pkgDir)
	if err := p.Runner.Run(ctx, install); err != nil {
		upgrade := system.NewCommand("kpackagetool6", "--type", "Plasma/Applet", "--upgrade", pkgDir)
		if err := p.Runner.Run(ctx, upgrade); err != nil {
			return errors.Wrap(err, errors.ErrCommand, "kpackagetool6 could not install or upgrade the plasmoid")
		}
	}
	return nil
}
