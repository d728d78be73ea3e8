package nyarchify

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode"

	"github.com/nyarchlinux/nyarchify/internal/version"
	"github.com/nyarchlinux/nyarchify/pkg/catalog"
	"github.com/nyarchlinux/nyarchify/pkg/config"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/identity"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/nyarchlinux/nyarchify/pkg/paths"
	"github.com/nyarchlinux/nyarchify/pkg/provision"
	"github.com/nyarchlinux/nyarchify/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options holds the flag values shared by every command
type options struct {
	verbosity  int
	configFile string
	desktop    string
	tag        string

	// root command only
	selection string
	assumeYes bool
	report    string

	target identity.TargetIdentity
}

// overrides turns the flags that map onto config keys into koanf overrides
func (o *options) overrides() map[string]interface{} {
	out := map[string]interface{}{}
	if o.desktop != "" {
		out["desktop"] = o.desktop
	}
	if o.tag != "" {
		out["release.tag"] = o.tag
	}
	if o.assumeYes {
		out["flatpak.assume_yes"] = true
	}
	return out
}

// environment is the resolved per-invocation state
type environment struct {
	target identity.TargetIdentity
	paths  *paths.Paths
	cfg    *config.Config
}

// load reads the configuration for the target user
func (o *options) load() (*environment, error) {
	p := paths.New(paths.FromXDG(o.target.Home), "")
	file := o.configFile
	if file == "" {
		file = p.UserConfigFile()
	}

	cfg, err := config.Load(config.LoadOptions{File: file, Overrides: o.overrides()})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	switch strings.ToLower(cfg.Desktop) {
	case config.DesktopAuto, config.DesktopKDE, config.DesktopGNOME:
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, MsgUnknownDesktop, cfg.Desktop)
	}

	return &environment{
		target: o.target,
		paths:  paths.New(paths.FromXDG(o.target.Home), cfg.Cache.DirName),
		cfg:    cfg,
	}, nil
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "nyarchify",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.String(),
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The target user must be pinned before logging picks its
			// state directory.
			target, err := identity.Resolve(identity.OSEnvironment())
			if err != nil {
				return fmt.Errorf(MsgErrIdentity, err)
			}
			if err := target.Apply(); err != nil {
				return fmt.Errorf(MsgErrIdentity, err)
			}
			opts.target = target

			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Str("home", target.Home).Msg("Command started")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			printer := ui.New(cmd.InOrStdin(), cmd.OutOrStdout())
			return run(cmd.Context(), opts, env, printer)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&opts.desktop, "desktop", "", MsgFlagDesktop)
	rootCmd.PersistentFlags().StringVar(&opts.tag, "tag", "", MsgFlagTag)

	// Run flags
	rootCmd.Flags().StringVarP(&opts.selection, "select", "s", "", MsgFlagSelect)
	rootCmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, MsgFlagYes)
	rootCmd.Flags().StringVar(&opts.report, "report", "", MsgFlagReport)

	_ = rootCmd.RegisterFlagCompletionFunc("desktop", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{config.DesktopKDE, config.DesktopGNOME, config.DesktopAuto}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddGroup(&cobra.Group{ID: "info", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newSnippetCmd())
	rootCmd.AddCommand(newGenConfigCmd(opts))
	rootCmd.AddCommand(newCacheCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	return rootCmd
}

// catalogFor builds the catalog of desktop. The provisioner only needs
// its configuration until an action actually runs.
func catalogFor(env *environment) (*catalog.Catalog, string) {
	desktop := env.cfg.ResolveDesktop()
	p := provision.New(provision.Deps{Config: env.cfg, Paths: env.paths})
	return p.Catalog(desktop), desktop
}

// selectFlag resolves --select: ids or names separated by commas or
// spaces, or "all".
func selectFlag(c *catalog.Catalog, value string) (catalog.Selection, error) {
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var ids []int
	for _, tok := range tokens {
		switch {
		case strings.EqualFold(tok, "all"):
			for _, op := range c.Operations() {
				ids = append(ids, op.ID)
			}
		case tok == "0":
		default:
			id, ok := c.Lookup(tok)
			if !ok {
				return nil, errors.Newf(errors.ErrInvalidInput, MsgUnknownOperation, tok)
			}
			ids = append(ids, id)
		}
	}
	return catalog.Select(ids...), nil
}

// Execute runs the root command. Ctrl-C cancels the context so that no
// further operation is started.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
