package nyarchify

import (
	"fmt"

	"github.com/nyarchlinux/nyarchify/internal/version"
	"github.com/nyarchlinux/nyarchify/pkg/cache"
	"github.com/nyarchlinux/nyarchify/pkg/config"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/provision"
	"github.com/nyarchlinux/nyarchify/pkg/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newListCmd(opts *options) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Long:    MsgListLong,
		Example: MsgListExample,
		GroupID: "info",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			c, desktop := catalogFor(env)
			out := cmd.OutOrStdout()
			printer := ui.New(cmd.InOrStdin(), out)

			printer.Section(fmt.Sprintf("%s catalog", desktop))
			for _, op := range c.Operations() {
				fmt.Fprintf(out, MsgListEntry, op.ID, op.Name, op.Prompt)
				if long && op.Details != "" {
					fmt.Fprintln(out, printer.RenderMarkdown(op.Details, 80))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, MsgFlagLong)
	return cmd
}

func newSnippetCmd() *cobra.Command {
	snippets := map[string]string{
		"path":  provision.LocalBinMarker + "\n" + provision.LocalBinBody,
		"pywal": provision.PywalMarker + "\n" + provision.PywalBody,
	}

	return &cobra.Command{
		Use:       "snippet [path|pywal]",
		Short:     MsgSnippetShort,
		Long:      MsgSnippetLong,
		Example:   MsgSnippetExample,
		GroupID:   "info",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"path", "pywal"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, snippets["path"])
				fmt.Fprintln(out)
				fmt.Fprintln(out, snippets["pywal"])
				return nil
			}
			s, ok := snippets[args[0]]
			if !ok {
				return errors.Newf(errors.ErrInvalidInput, MsgUnknownSnippet, args[0])
			}
			fmt.Fprintln(out, s)
			return nil
		},
	}
}

func newGenConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "genconfig",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		GroupID: "info",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			data, err := config.Generate(env.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newCacheCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   MsgCacheShort,
		Long:    MsgCacheLong,
		GroupID: "info",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: MsgCacheListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			root := env.paths.CacheRoot()
			entries, err := cache.New(afero.NewOsFs(), root, nil, nil).Entries()
			if err != nil {
				return fmt.Errorf(MsgErrCacheList, err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, MsgCacheEmpty, root)
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, MsgCacheEntry, e.Kind, e.Key, e.LocalPath)
			}
			return nil
		},
	})
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.String())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

func newManCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "man",
		Short:   MsgManShort,
		GroupID: "misc",
		Hidden:  true,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{
				Title:   "NYARCHIFY",
				Section: "1",
				Source:  "nyarchify " + version.Version,
			}
			return doc.GenManTree(cmd.Root(), header, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", MsgFlagManDir)
	return cmd
}
