// Package provision implements the desktop customization operations and
// assembles them into the KDE and GNOME catalogs.
//
// Every operation is safe to run again: downloads come from the artifact
// cache, text files are only appended to through marker-guarded snippets,
// and replaced directories are backed up first.
package provision

import (
	"context"
	stderrors "errors"

	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/catalog"
	"github.com/nyarchlinux/nyarchify/pkg/config"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/nyarchlinux/nyarchify/pkg/mutate"
	"github.com/nyarchlinux/nyarchify/pkg/paths"
	"github.com/nyarchlinux/nyarchify/pkg/system"
	"github.com/nyarchlinux/nyarchify/pkg/ui"
	"github.com/rs/zerolog"
)

// Deps are the collaborators a Provisioner works with
type Deps struct {
	Paths   *paths.Paths
	Config  *config.Config
	Cache   *cache.Cache
	Release *cache.Release
	Mutator *mutate.Mutator
	// Fetcher downloads files that are written straight into the home
	// rather than kept in the cache
	Fetcher cache.Fetcher
	Runner  system.Runner
	Apt     *system.Apt
	Flatpak *system.Flatpak
	Git     *system.Git
	Host    *system.Host
	Printer *ui.Printer
}

// Provisioner runs customization operations for one target user
type Provisioner struct {
	Deps
	logger zerolog.Logger
}

// New creates a Provisioner
func New(deps Deps) *Provisioner {
	return &Provisioner{Deps: deps, logger: logging.GetLogger("provision")}
}

// step is one part of a composite operation
type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSteps runs every step even when earlier ones fail, printing each
// failure, and returns all failures joined.
func (p *Provisioner) runSteps(ctx context.Context, steps ...step) error {
	var errs []error
	for _, s := range steps {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		p.logger.Debug().Str("step", s.name).Msg("Running step")
		if err := s.run(ctx); err != nil {
			p.Printer.Warn("%s: %v", s.name, err)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// outcome wraps a step list as an action
func (p *Provisioner) outcome(steps ...step) catalog.Action {
	return func(ctx context.Context) catalog.Outcome {
		return catalog.From(p.runSteps(ctx, steps...))
	}
}

// skelDir returns a directory inside the release skel. ok is false, with a
// warning printed, when the release does not ship it.
func (p *Provisioner) skelDir(ctx context.Context, what string, elem ...string) (string, bool, error) {
	dir, err := p.Release.SkelPath(ctx, elem...)
	if err != nil {
		return "", false, err
	}
	if !p.Mutator.IsDir(dir) {
		p.Printer.Warn("%s not found in Nyarch skel: %s", what, dir)
		return "", false, nil
	}
	return dir, true, nil
}
