package system

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nyarchlinux/nyarchify/internal/version"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const partialSuffix = ".part"

func userAgent() string {
	return "nyarchify/" + version.Version
}

// HTTPFetcher downloads files over HTTP(S). Data is written to
// "<dest>.part" and only renamed to dest once the body has been read
// completely, so an interrupted transfer never looks cached.
type HTTPFetcher struct {
	client *http.Client
	fs     afero.Fs
	logger zerolog.Logger
}

// NewHTTPFetcher creates a fetcher writing into fs. A nil client means
// http.DefaultClient.
func NewHTTPFetcher(client *http.Client, fs afero.Fs) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, fs: fs, logger: logging.GetLogger("system.fetch")}
}

// Fetch downloads url to dest
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) error {
	resp, err := f.get(ctx, url, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	part := dest + partialSuffix
	out, err := f.fs.OpenFile(part, osCreateTrunc, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "could not create %s", part)
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = f.fs.Remove(part)
		return errors.Wrapf(err, errors.ErrFetch, "download of %s interrupted", url)
	}
	if err := f.fs.Rename(part, dest); err != nil {
		_ = f.fs.Remove(part)
		return errors.Wrapf(err, errors.ErrFileWrite, "could not move download to %s", dest)
	}

	f.logger.Debug().Str("url", url).Str("dest", dest).Int64("bytes", n).Msg("Downloaded")
	return nil
}

// ReadAll downloads url into memory
func (f *HTTPFetcher) ReadAll(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "could not read %s", url)
	}
	return data, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	return httpGet(ctx, f.client, url, accept)
}

func httpGet(ctx context.Context, client *http.Client, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid URL %s", url)
	}
	req.Header.Set("User-Agent", userAgent())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "request to %s failed", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Newf(errors.ErrFetch, "GET %s: %s", url, resp.Status).
			WithDetail("status", resp.StatusCode)
	}
	return resp, nil
}

// GitHub reads release metadata from the GitHub REST API
type GitHub struct {
	client  *http.Client
	apiBase string
}

// NewGitHub creates a client for the API at apiBase
// (https://api.github.com in production).
func NewGitHub(client *http.Client, apiBase string) *GitHub {
	if client == nil {
		client = http.DefaultClient
	}
	return &GitHub{client: client, apiBase: strings.TrimRight(apiBase, "/")}
}

type latestRelease struct {
	TagName string `json:"tag_name"`
}

// LatestTag returns the tag_name of the project's latest release
func (g *GitHub) LatestTag(ctx context.Context, project string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", g.apiBase, project)
	resp, err := httpGet(ctx, g.client, url, "application/vnd.github+json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var rel latestRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", errors.Wrapf(err, errors.ErrReleaseTag, "could not decode release of %s", project)
	}
	if rel.TagName == "" {
		return "", errors.Newf(errors.ErrReleaseTag, "release of %s has no tag_name", project)
	}
	return rel.TagName, nil
}
