package cache

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nyarchlinux/nyarchify/pkg/config"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
)

// ReleaseSource looks up the newest release tag of a project
type ReleaseSource interface {
	LatestTag(ctx context.Context, project string) (string, error)
}

// TagResolver resolves the release tag at most once. The result, success
// or failure, is kept for the resolver's lifetime so every URL derived in
// one run points at the same release.
type TagResolver struct {
	source  ReleaseSource
	project string

	mu       sync.Mutex
	resolved bool
	tag      string
	err      error
}

// NewTagResolver creates a resolver. A non-empty pinned tag is used as is
// and the source is never queried.
func NewTagResolver(source ReleaseSource, project, pinned string) *TagResolver {
	r := &TagResolver{source: source, project: project}
	if pinned != "" {
		r.resolved = true
		r.tag = pinned
	}
	return r
}

// Tag returns the release tag
func (r *TagResolver) Tag(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.tag, r.err
	}

	tag, err := r.source.LatestTag(ctx, r.project)
	if err == nil && strings.TrimSpace(tag) == "" {
		err = fmt.Errorf("empty tag_name")
	}
	if err != nil {
		err = errors.Wrapf(err, errors.ErrReleaseTag, "failed to get latest tag of %s", r.project)
		if ctx.Err() != nil {
			// A cancelled lookup says nothing about the release
			return "", err
		}
	}

	r.resolved = true
	r.tag = strings.TrimSpace(tag)
	r.err = err
	logger := logging.GetLogger("cache.release")
	logger.Info().Str("project", r.project).Str("tag", r.tag).Err(err).Msg("Resolved release tag")
	return r.tag, r.err
}

// Release is the view of the cache holding one upstream release
type Release struct {
	cache *Cache
	tags  *TagResolver
	cfg   config.Release
}

// NewRelease ties a cache to the release described by cfg
func NewRelease(c *Cache, tags *TagResolver, cfg config.Release) *Release {
	return &Release{cache: c, tags: tags, cfg: cfg}
}

// Tag returns the release tag the URLs point at
func (r *Release) Tag(ctx context.Context) (string, error) {
	return r.tags.Tag(ctx)
}

// DownloadURL returns the release download URL for asset
func (r *Release) DownloadURL(ctx context.Context, asset string) (string, error) {
	tag, err := r.tags.Tag(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/releases/download/%s/%s",
		strings.TrimRight(r.cfg.DownloadBase, "/"), r.cfg.Project, url.PathEscape(tag), asset), nil
}

// RawURL returns the URL of a file in the tagged tree under Gnome/
func (r *Release) RawURL(ctx context.Context, rel string) (string, error) {
	tag, err := r.tags.Tag(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/refs/tags/%s/Gnome/%s",
		strings.TrimRight(r.cfg.RawBase, "/"), r.cfg.Project, url.PathEscape(tag), strings.TrimLeft(rel, "/")), nil
}

// SkelRoot returns the extracted skel directory of the release tarball.
// A cached extraction is used without any network access; otherwise the
// tarball is downloaded (if missing) and extracted.
func (r *Release) SkelRoot(ctx context.Context) (string, error) {
	archive := Key{Name: r.cfg.Tarball}
	entry, err := r.cache.GetOrExtract(ctx, archive, func(ctx context.Context) (string, error) {
		return r.DownloadURL(ctx, r.cfg.Tarball)
	}, r.cfg.SkelCandidates...)
	if err != nil {
		return "", err
	}
	return entry.LocalPath, nil
}

// SkelPath joins elements onto the skel root
func (r *Release) SkelPath(ctx context.Context, elem ...string) (string, error) {
	root, err := r.SkelRoot(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{root}, elem...)...), nil
}

// DconfDir returns the dconf defaults shipped beside the skel directory
func (r *Release) DconfDir(ctx context.Context) (string, error) {
	root, err := r.SkelRoot(ctx)
	if err != nil {
		return "", err
	}
	// <tree>/Gnome/etc/skel -> <tree>/Gnome/etc/dconf/db/local.d
	return filepath.Join(filepath.Dir(root), "dconf", "db", "local.d"), nil
}

// Asset downloads a release asset archive into the assets class and
// returns the directory it extracts to.
func (r *Release) Asset(ctx context.Context, asset, extractedDir string) (string, error) {
	entry, err := r.cache.GetOrExtract(ctx, Key{Class: ClassAssets, Name: asset}, func(ctx context.Context) (string, error) {
		return r.DownloadURL(ctx, asset)
	}, extractedDir)
	if err != nil {
		return "", err
	}
	return entry.LocalPath, nil
}
