package nyarchify

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/catalog"
	"github.com/nyarchlinux/nyarchify/pkg/identity"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/nyarchlinux/nyarchify/pkg/mutate"
	"github.com/nyarchlinux/nyarchify/pkg/provision"
	"github.com/nyarchlinux/nyarchify/pkg/system"
	"github.com/nyarchlinux/nyarchify/pkg/ui"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// wiring is the set of collaborators built for one run
type wiring struct {
	provisioner *provision.Provisioner
	fetcher     *system.HTTPFetcher
}

func wire(env *environment, printer *ui.Printer) *wiring {
	cfg := env.cfg
	fs := afero.NewOsFs()
	runner := system.NewExecRunner(env.target.Environ)

	// No timeout: large bundles on slow links are expected to take a while
	client := &http.Client{}
	fetcher := system.NewHTTPFetcher(client, fs)
	git := system.NewGit(runner)

	c := cache.New(fs, env.paths.CacheRoot(), fetcher, system.NewTarGzExtractor(fs),
		cache.WithChecksums(cfg.Cache.VerifyChecksums),
		cache.WithCloner(git))
	tags := cache.NewTagResolver(system.NewGitHub(client, cfg.Release.APIBase), cfg.Release.Project, cfg.Release.Tag)

	p := provision.New(provision.Deps{
		Paths:   env.paths,
		Config:  cfg,
		Cache:   c,
		Release: cache.NewRelease(c, tags, cfg.Release),
		Mutator: mutate.New(fs),
		Fetcher: fetcher,
		Runner:  runner,
		Apt:     system.NewApt(runner),
		Flatpak: system.NewFlatpak(runner, cfg.Flatpak.AssumeYes),
		Git:     git,
		Host:    system.NewHost(fs, runner),
		Printer: printer,
	})
	return &wiring{provisioner: p, fetcher: fetcher}
}

// run is the interactive installer: banner, preflight, menu, execution,
// summary.
func run(ctx context.Context, opts *options, env *environment, printer *ui.Printer) error {
	logger := logging.GetLogger("cmd.run")

	root := env.paths.CacheRoot()
	if err := identity.EnsureCacheRoot(root); err != nil {
		return err
	}

	w := wire(env, printer)
	p := w.provisioner
	desktop := env.cfg.ResolveDesktop()
	c := p.Catalog(desktop)
	logger.Info().Str("desktop", desktop).Str("cache", root).Msg("Starting")

	// An explicit selection is checked before anything touches the system
	var sel catalog.Selection
	if opts.selection != "" {
		var err error
		if sel, err = selectFlag(c, opts.selection); err != nil {
			return err
		}
		if sel.Empty() {
			printer.Println(MsgNothingSelected)
			return nil
		}
	}

	art, err := w.fetcher.ReadAll(ctx, env.cfg.Release.BannerURL)
	if err != nil {
		logger.Debug().Err(err).Msg("Banner unavailable")
	}
	printer.Banner(string(art), MsgWelcome)
	printer.Info(MsgTargetHome, displayUser(env), env.target.Home)
	printer.Info(MsgCacheRoot, root)

	if err := p.Preflight(ctx, desktop, opts.assumeYes); err != nil {
		return fmt.Errorf(MsgErrPreflight, err)
	}

	if sel == nil {
		printer.Menu(c.Operations())
		answer, err := printer.ReadLine(MsgMenuPrompt)
		if err != nil {
			return err
		}
		sel = catalog.ParseSelection(answer, c.Len())
	}
	if sel.Empty() {
		printer.Println(MsgNothingSelected)
		return nil
	}

	started := time.Now()
	runLog := catalog.NewExecutor(catalog.Options{Reporter: printer}).Run(ctx, c, sel)
	printer.Summary(runLog)

	if opts.report != "" {
		if err := writeReport(opts.report, newReport(env, desktop, started, runLog)); err != nil {
			return fmt.Errorf(MsgErrReport, err)
		}
		printer.Info(MsgReportWritten, opts.report)
	}

	printer.Println()
	printer.Println(provision.Farewell(desktop))
	return ctx.Err()
}

func displayUser(env *environment) string {
	if env.target.Username != "" {
		return env.target.Username
	}
	return filepath.Base(env.target.Home)
}

// runReport is the --report document
type runReport struct {
	Desktop  string      `yaml:"desktop"`
	Home     string      `yaml:"home"`
	Elevated bool        `yaml:"elevated"`
	Started  time.Time   `yaml:"started"`
	Summary  string      `yaml:"summary"`
	Log      catalog.Log `yaml:"log"`
}

func newReport(env *environment, desktop string, started time.Time, runLog catalog.Log) runReport {
	return runReport{
		Desktop:  desktop,
		Home:     env.target.Home,
		Elevated: env.target.Elevated,
		Started:  started,
		Summary:  runLog.String(),
		Log:      runLog,
	}
}

func writeReport(path string, report runReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
