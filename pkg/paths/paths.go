package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvCacheDir overrides the artifact cache root
	EnvCacheDir = "NYARCHIFY_CACHE_DIR"

	// EnvConfigFile overrides the user config file location
	EnvConfigFile = "NYARCHIFY_CONFIG"
)

const (
	// AppDirName is the directory name for nyarchify's own files
	AppDirName = "nyarchify"

	// ConfigFileName is the name of the user config file
	ConfigFileName = "config.toml"

	// DefaultCacheDirName is the cache root directory name under the XDG cache home
	DefaultCacheDirName = "nyarch-kde"
)

// Dirs are the base directories of the target user
type Dirs struct {
	Home   string
	Config string
	Data   string
	Cache  string
	State  string
}

// FromXDG reads the base directories from the xdg package. Call it after
// the target identity has been applied.
func FromXDG(home string) Dirs {
	return Dirs{
		Home:   home,
		Config: xdg.ConfigHome,
		Data:   xdg.DataHome,
		Cache:  xdg.CacheHome,
		State:  xdg.StateHome,
	}
}

// HomeDirs derives the default XDG layout from a home directory alone
func HomeDirs(home string) Dirs {
	return Dirs{
		Home:   home,
		Config: filepath.Join(home, ".config"),
		Data:   filepath.Join(home, ".local", "share"),
		Cache:  filepath.Join(home, ".cache"),
		State:  filepath.Join(home, ".local", "state"),
	}
}

// Paths provides the locations used by provisioning operations
type Paths struct {
	dirs         Dirs
	cacheDirName string
}

// New creates a Paths for the given directories. An empty cacheDirName
// selects DefaultCacheDirName.
func New(dirs Dirs, cacheDirName string) *Paths {
	if cacheDirName == "" {
		cacheDirName = DefaultCacheDirName
	}
	return &Paths{dirs: dirs, cacheDirName: cacheDirName}
}

// Home returns the target home directory
func (p *Paths) Home(elem ...string) string {
	return filepath.Join(append([]string{p.dirs.Home}, elem...)...)
}

// Config returns a path under the XDG config home (~/.config)
func (p *Paths) Config(elem ...string) string {
	return filepath.Join(append([]string{p.dirs.Config}, elem...)...)
}

// Data returns a path under the XDG data home (~/.local/share)
func (p *Paths) Data(elem ...string) string {
	return filepath.Join(append([]string{p.dirs.Data}, elem...)...)
}

// CacheRoot returns the artifact cache root. NYARCHIFY_CACHE_DIR wins
// over the XDG location.
func (p *Paths) CacheRoot() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return p.expandHome(dir)
	}
	return filepath.Join(p.dirs.Cache, p.cacheDirName)
}

// StateDir returns nyarchify's state directory
func (p *Paths) StateDir() string {
	return filepath.Join(p.dirs.State, AppDirName)
}

// LocalBin returns ~/.local/bin. This is not an XDG location, pipx and
// the login profile both hardcode it under the home.
func (p *Paths) LocalBin() string {
	return p.Home(".local", "bin")
}

// Profile returns the login shell profile
func (p *Paths) Profile() string {
	return p.Home(".profile")
}

// Bashrc returns the interactive bash rc file
func (p *Paths) Bashrc() string {
	return p.Home(".bashrc")
}

// UserConfigFile returns the nyarchify config file path
func (p *Paths) UserConfigFile() string {
	if f := os.Getenv(EnvConfigFile); f != "" {
		return p.expandHome(f)
	}
	return p.Config(AppDirName, ConfigFileName)
}

func (p *Paths) expandHome(path string) string {
	if path == "~" {
		return p.dirs.Home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(p.dirs.Home, path[2:])
	}
	return path
}
