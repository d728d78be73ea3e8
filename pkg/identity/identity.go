// Package identity resolves which user the process is acting for.
//
// When run through sudo the acting user is root but every file we touch must
// land in the invoking user's home. Resolve picks that home once, and Apply
// pins it into the process environment so child processes inherit it.
package identity

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
)

// Environment variable names
const (
	EnvSudoUser = "SUDO_USER"
	EnvHome     = "HOME"
	EnvPath     = "PATH"
)

// xdgBaseDirs are pinned to the target home when running elevated so the
// acting user's values cannot leak into the target user's files.
var xdgBaseDirs = map[string]string{
	"XDG_CONFIG_HOME": ".config",
	"XDG_DATA_HOME":   filepath.Join(".local", "share"),
	"XDG_CACHE_HOME":  ".cache",
	"XDG_STATE_HOME":  filepath.Join(".local", "state"),
}

// Environment is the slice of the OS the resolver needs
type Environment interface {
	Getenv(key string) string
	LookupUser(name string) (*user.User, error)
	UserHomeDir() (string, error)
}

type osEnvironment struct{}

func (osEnvironment) Getenv(key string) string                    { return os.Getenv(key) }
func (osEnvironment) LookupUser(name string) (*user.User, error) { return user.Lookup(name) }
func (osEnvironment) UserHomeDir() (string, error)                { return os.UserHomeDir() }

// OSEnvironment returns the Environment backed by the running process
func OSEnvironment() Environment {
	return osEnvironment{}
}

// TargetIdentity is the user whose home every filesystem operation uses
type TargetIdentity struct {
	Home     string
	Username string
	// Elevated is true when the home came from the sudo caller
	Elevated  bool
	overrides map[string]string
}

// Resolve determines the target identity. A sudo caller that cannot be
// looked up is not an error: the process's own home is used instead.
func Resolve(env Environment) (TargetIdentity, error) {
	logger := logging.GetLogger("identity")

	if name := strings.TrimSpace(env.Getenv(EnvSudoUser)); name != "" {
		u, err := env.LookupUser(name)
		switch {
		case err != nil:
			logger.Debug().Err(err).Str("user", name).Msg("sudo caller lookup failed, using own home")
		case u.HomeDir == "":
			logger.Debug().Str("user", name).Msg("sudo caller has no home, using own home")
		default:
			id := TargetIdentity{
				Home:      filepath.Clean(u.HomeDir),
				Username:  u.Username,
				Elevated:  true,
				overrides: map[string]string{EnvHome: filepath.Clean(u.HomeDir)},
			}
			for key, rel := range xdgBaseDirs {
				id.overrides[key] = filepath.Join(id.Home, rel)
			}
			logger.Info().Str("user", id.Username).Str("home", id.Home).Msg("Acting for sudo caller")
			return id, nil
		}
	}

	home, err := env.UserHomeDir()
	if err != nil {
		return TargetIdentity{}, errors.Wrap(err, errors.ErrIdentity, "cannot determine home directory")
	}
	if home == "" {
		return TargetIdentity{}, errors.New(errors.ErrIdentity, "home directory is empty")
	}

	id := TargetIdentity{
		Home:      filepath.Clean(home),
		Username:  currentUsername(env),
		overrides: map[string]string{EnvHome: filepath.Clean(home)},
	}
	logger.Debug().Str("home", id.Home).Msg("Acting for current user")
	return id, nil
}

func currentUsername(env Environment) string {
	if name := env.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// Overrides returns a copy of the environment variables forced for this process
func (id TargetIdentity) Overrides() map[string]string {
	out := make(map[string]string, len(id.overrides))
	for k, v := range id.overrides {
		out[k] = v
	}
	return out
}

// Apply force-sets the overrides in the process environment and reloads
// the XDG base directories from it.
func (id TargetIdentity) Apply() error {
	for k, v := range id.overrides {
		if err := os.Setenv(k, v); err != nil {
			return errors.Wrapf(err, errors.ErrIdentity, "cannot set %s", k)
		}
	}
	xdg.Reload()
	return nil
}

// Environ returns base with every override applied, for child processes
func (id TargetIdentity) Environ(base []string) []string {
	out := make([]string, 0, len(base)+len(id.overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := id.overrides[key]; overridden {
			continue
		}
		out = append(out, kv)
	}
	for k, v := range id.overrides {
		out = append(out, k+"="+v)
	}
	return out
}

// Path joins elements onto the target home
func (id TargetIdentity) Path(elem ...string) string {
	return filepath.Join(append([]string{id.Home}, elem...)...)
}

// PrependPath puts dir in front of PATH for this process unless it is
// already listed. It reports whether PATH changed.
func PrependPath(dir string) bool {
	current := os.Getenv(EnvPath)
	for _, entry := range filepath.SplitList(current) {
		if entry == dir {
			return false
		}
	}
	if current == "" {
		os.Setenv(EnvPath, dir)
	} else {
		os.Setenv(EnvPath, dir+string(os.PathListSeparator)+current)
	}
	return true
}

// EnsureCacheRoot creates the per-user cache root. Failure here leaves the
// process without anywhere to put artifacts and is fatal to the caller.
func EnsureCacheRoot(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(err, errors.ErrCacheRoot, "cannot create cache root").
			WithDetail("path", path)
	}
	return nil
}
