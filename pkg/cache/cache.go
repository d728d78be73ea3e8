// Package cache keeps downloaded artifacts under a per-user root so that
// repeated runs do not fetch or extract the same thing twice.
//
// The filesystem is the only record: an artifact is "cached" exactly when a
// file or directory exists at its path. There is no manifest and nothing is
// ever evicted.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Artifact classes. Each class is a subdirectory of the cache root,
// created on first use. The empty class is the root itself.
const (
	ClassRoot     = ""
	ClassFlatpaks = "flatpaks"
	ClassRepos    = "repos"
	ClassAssets   = "assets"
)

// partialSuffix marks a download in progress
const partialSuffix = ".part"

// Kind tells raw downloads from extracted trees
type Kind int

const (
	RawFile Kind = iota
	ExtractedTree
)

func (k Kind) String() string {
	if k == ExtractedTree {
		return "tree"
	}
	return "file"
}

// Key is the logical name of an artifact
type Key struct {
	Class string
	Name  string
}

func (k Key) String() string {
	if k.Class == "" {
		return k.Name
	}
	return k.Class + "/" + k.Name
}

// Entry is an artifact present on disk
type Entry struct {
	Key       Key
	LocalPath string
	Kind      Kind
}

// Fetcher downloads url into dest
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Extractor unpacks a gzip tar archive into destDir
type Extractor interface {
	Extract(ctx context.Context, archive, destDir string) error
}

// Cloner clones a git repository into dest
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

// Option configures a Cache
type Option func(*Cache)

// WithChecksums enables BLAKE3 sidecar verification
func WithChecksums(enabled bool) Option {
	return func(c *Cache) { c.verify = enabled }
}

// WithCloner sets the git collaborator used by Clone
func WithCloner(cloner Cloner) Option {
	return func(c *Cache) { c.cloner = cloner }
}

// Cache is the artifact cache rooted at a single directory
type Cache struct {
	fs        afero.Fs
	root      string
	fetcher   Fetcher
	extractor Extractor
	cloner    Cloner
	verify    bool
	logger    zerolog.Logger
}

// New creates a cache rooted at root. The root itself must already exist.
func New(fs afero.Fs, root string, fetcher Fetcher, extractor Extractor, opts ...Option) *Cache {
	c := &Cache{
		fs:        fs,
		root:      root,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logging.GetLogger("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the cache root directory
func (c *Cache) Root() string {
	return c.root
}

// Dir returns the directory for an artifact class, creating it on demand
func (c *Cache) Dir(class string) (string, error) {
	if err := validName(class, true); err != nil {
		return "", err
	}
	dir := filepath.Join(c.root, class)
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "could not create cache dir %s", dir)
	}
	return dir, nil
}

// Path returns where key lives without touching the filesystem
func (c *Cache) Path(key Key) string {
	return filepath.Join(c.root, key.Class, key.Name)
}

// Has reports whether key is present
func (c *Cache) Has(key Key) bool {
	_, err := c.fs.Stat(c.Path(key))
	return err == nil
}

// GetOrFetch returns the cached file for key, downloading it from url only
// when nothing is at its path yet.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, url string) (Entry, error) {
	if err := validName(key.Name, false); err != nil {
		return Entry{}, err
	}
	entry := Entry{Key: key, LocalPath: c.Path(key), Kind: RawFile}
	logger := c.logger.With().Str("key", key.String()).Logger()

	if c.Has(key) {
		ok, err := c.verifyCached(entry.LocalPath)
		if err != nil {
			return Entry{}, err
		}
		if ok {
			logger.Debug().Str("path", entry.LocalPath).Msg("Cache hit")
			return entry, nil
		}
		logger.Warn().Str("path", entry.LocalPath).Msg("Cached file failed verification, fetching again")
		if err := c.discard(entry.LocalPath); err != nil {
			return Entry{}, err
		}
	}

	if _, err := c.Dir(key.Class); err != nil {
		return Entry{}, err
	}

	logger.Info().Str("url", url).Msg("Fetching")
	if err := c.fetcher.Fetch(ctx, url, entry.LocalPath); err != nil {
		_ = c.fs.Remove(entry.LocalPath + partialSuffix)
		return Entry{}, errors.Wrapf(err, errors.ErrFetch, "could not fetch %s", key).
			WithDetail("url", url)
	}
	if !c.Has(key) {
		return Entry{}, errors.Newf(errors.ErrFetch, "fetch of %s produced no file", key).
			WithDetail("url", url)
	}

	if c.verify {
		if err := c.writeChecksum(entry.LocalPath); err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}

// URLFunc produces a download URL on demand. It is only called when the
// archive actually has to be downloaded.
type URLFunc func(ctx context.Context) (string, error)

// GetOrExtract returns the first of candidates (paths relative to the
// archive's class directory) that exists as a directory. When none does,
// the archive is downloaded if missing, extracted into its class directory,
// and the candidates are checked again.
func (c *Cache) GetOrExtract(ctx context.Context, archive Key, url URLFunc, candidates ...string) (Entry, error) {
	classDir, err := c.Dir(archive.Class)
	if err != nil {
		return Entry{}, err
	}

	if entry, ok := c.findTree(archive.Class, classDir, candidates); ok {
		c.logger.Debug().Str("path", entry.LocalPath).Msg("Extracted tree cached")
		return entry, nil
	}

	if !c.Has(archive) {
		u, err := url(ctx)
		if err != nil {
			return Entry{}, err
		}
		if _, err := c.GetOrFetch(ctx, archive, u); err != nil {
			return Entry{}, err
		}
	} else {
		c.logger.Info().Str("archive", c.Path(archive)).Msg("Using cached archive")
	}

	c.logger.Info().Str("archive", c.Path(archive)).Str("dest", classDir).Msg("Extracting")
	if err := c.extractor.Extract(ctx, c.Path(archive), classDir); err != nil {
		return Entry{}, errors.Wrapf(err, errors.ErrExtract,
			"could not extract %s (remove it to force a fresh download)", c.Path(archive))
	}

	if entry, ok := c.findTree(archive.Class, classDir, candidates); ok {
		return entry, nil
	}

	return Entry{}, errors.Newf(errors.ErrNotFound, "none of the expected directories exist under %s", classDir).
		WithDetail("candidates", candidates).
		WithDetail("archive", c.Path(archive))
}

func (c *Cache) findTree(class, classDir string, candidates []string) (Entry, bool) {
	for _, cand := range candidates {
		path := filepath.Join(classDir, filepath.FromSlash(cand))
		if ok, err := afero.DirExists(c.fs, path); err == nil && ok {
			return Entry{Key: Key{Class: class, Name: cand}, LocalPath: path, Kind: ExtractedTree}, true
		}
	}
	return Entry{}, false
}

// Clone makes a fresh clone of url at key. Repositories are refreshed on
// every call rather than reused. A symlink at the destination is refused
// so that removal can never follow it.
func (c *Cache) Clone(ctx context.Context, key Key, url string) (Entry, error) {
	if c.cloner == nil {
		return Entry{}, errors.New(errors.ErrInternal, "cache has no git collaborator")
	}
	if err := validName(key.Name, false); err != nil {
		return Entry{}, err
	}
	if _, err := c.Dir(key.Class); err != nil {
		return Entry{}, err
	}

	dest := c.Path(key)
	if l, ok := c.fs.(afero.Lstater); ok {
		if info, _, err := l.LstatIfPossible(dest); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return Entry{}, errors.Newf(errors.ErrSymlink,
				"refusing to operate on symlinked directory %s, remove it manually", dest)
		}
	}
	if err := c.fs.RemoveAll(dest); err != nil {
		return Entry{}, errors.Wrapf(err, errors.ErrFileAccess, "could not remove stale clone %s", dest)
	}

	c.logger.Info().Str("url", url).Str("dest", dest).Msg("Cloning")
	if err := c.cloner.Clone(ctx, url, dest); err != nil {
		return Entry{}, errors.Wrapf(err, errors.ErrFetch, "could not clone %s", url)
	}
	return Entry{Key: key, LocalPath: dest, Kind: ExtractedTree}, nil
}

// Entries lists the artifacts currently in the cache
func (c *Cache) Entries() ([]Entry, error) {
	var entries []Entry
	classes := map[string]bool{ClassFlatpaks: true, ClassRepos: true, ClassAssets: true}

	top, err := afero.ReadDir(c.fs, c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "could not read %s", c.root)
	}

	for _, info := range top {
		name := info.Name()
		if info.IsDir() && classes[name] {
			inner, err := afero.ReadDir(c.fs, filepath.Join(c.root, name))
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrFileAccess, "could not read %s", name)
			}
			for _, in := range inner {
				if e, ok := c.entryFor(Key{Class: name, Name: in.Name()}, in); ok {
					entries = append(entries, e)
				}
			}
			continue
		}
		if e, ok := c.entryFor(Key{Name: name}, info); ok {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.String() < entries[j].Key.String() })
	return entries, nil
}

func (c *Cache) entryFor(key Key, info os.FileInfo) (Entry, bool) {
	if strings.HasSuffix(key.Name, checksumSuffix) || strings.HasSuffix(key.Name, partialSuffix) {
		return Entry{}, false
	}
	kind := RawFile
	if info.IsDir() {
		kind = ExtractedTree
	}
	return Entry{Key: key, LocalPath: c.Path(key), Kind: kind}, true
}

func validName(name string, allowEmpty bool) error {
	if name == "" {
		if allowEmpty {
			return nil
		}
		return errors.New(errors.ErrInvalidInput, "empty cache name")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Newf(errors.ErrInvalidInput, "invalid cache name %q", name)
	}
	return nil
}
