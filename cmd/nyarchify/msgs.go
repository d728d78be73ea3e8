package nyarchify

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Nyarch Linux customizations for KDE Plasma and GNOME"
	MsgListShort       = "List the operations of a desktop catalog"
	MsgSnippetShort    = "Print the shell snippets added to rc files"
	MsgGenConfigShort  = "Print the effective configuration as TOML"
	MsgCacheShort      = "Inspect the artifact cache"
	MsgCacheListShort  = "List cached downloads and extracted trees"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	// Run messages
	MsgWelcome          = "Welcome to the Nyarch Linux customization installer!"
	MsgMenuPrompt       = "Enter the numbers of the operations to run, separated by spaces (e.g. 1 3 4): "
	MsgNothingSelected  = "Nothing selected. Bye!"
	MsgCacheRoot        = "Using cache directory: %s"
	MsgTargetHome       = "Installing for %s (%s)"
	MsgReportWritten    = "Run report written to %s"
	MsgCacheEmpty       = "Cache is empty (%s)\n"
	MsgCacheEntry       = "%-5s %-40s %s\n"
	MsgListEntry        = "[%d] %-15s %s\n"
	MsgVersionFormat    = "nyarchify %s\n"
	MsgUnknownOperation = "unknown operation %q (see `nyarchify list`)"
	MsgUnknownSnippet   = "unknown snippet %q, expected path or pywal"
	MsgUnknownDesktop   = "unknown desktop %q, expected kde, gnome or auto"

	// Error messages
	MsgErrIdentity   = "failed to resolve the target user: %w"
	MsgErrLoadConfig = "failed to load configuration: %w"
	MsgErrPreflight  = "preflight failed: %w"
	MsgErrReport     = "failed to write run report: %w"
	MsgErrCacheList  = "failed to list cache: %w"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig  = "Config file (default is $XDG_CONFIG_HOME/nyarchify/config.toml)"
	MsgFlagDesktop = "Desktop catalog to use: kde, gnome or auto"
	MsgFlagTag     = "Use this release tag instead of the latest one"
	MsgFlagSelect  = "Operations to run, by id or name, comma separated (\"all\" runs everything); skips the menu"
	MsgFlagYes     = "Do not ask before installing packages"
	MsgFlagReport  = "Write a YAML report of the run to this file"
	MsgFlagLong    = "Describe each operation"
	MsgFlagManDir  = "Directory to write the man pages to"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/root-example.txt
	msgRootExampleRaw string
	MsgRootExample    = strings.TrimRight(msgRootExampleRaw, "\n")

	//go:embed msgs/list-long.txt
	msgListLongRaw string
	MsgListLong    = strings.TrimSpace(msgListLongRaw)

	//go:embed msgs/list-example.txt
	msgListExampleRaw string
	MsgListExample    = strings.TrimRight(msgListExampleRaw, "\n")

	//go:embed msgs/snippet-long.txt
	msgSnippetLongRaw string
	MsgSnippetLong    = strings.TrimSpace(msgSnippetLongRaw)

	//go:embed msgs/snippet-example.txt
	msgSnippetExampleRaw string
	MsgSnippetExample    = strings.TrimRight(msgSnippetExampleRaw, "\n")

	//go:embed msgs/genconfig-long.txt
	msgGenConfigLongRaw string
	MsgGenConfigLong    = strings.TrimSpace(msgGenConfigLongRaw)

	//go:embed msgs/cache-long.txt
	msgCacheLongRaw string
	MsgCacheLong    = strings.TrimSpace(msgCacheLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
