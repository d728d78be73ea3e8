// Package config holds nyarchify's layered configuration.
//
// Values come from the embedded defaults, then the user's config file, then
// NYARCHIFY_* environment variables, then explicit overrides from the
// command line, each layer replacing the keys it sets.
package config

import (
	"os"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
)

// Desktop identifiers
const (
	DesktopAuto  = "auto"
	DesktopKDE   = "kde"
	DesktopGNOME = "gnome"
)

// Config is the complete nyarchify configuration
type Config struct {
	Desktop     string      `koanf:"desktop" toml:"desktop"`
	Release     Release     `koanf:"release" toml:"release"`
	Cache       Cache       `koanf:"cache" toml:"cache"`
	Packages    Packages    `koanf:"packages" toml:"packages"`
	Flatpak     Flatpak     `koanf:"flatpak" toml:"flatpak"`
	MaterialYou MaterialYou `koanf:"material_you" toml:"material_you"`
	Plasmoid    Plasmoid    `koanf:"plasmoid" toml:"plasmoid"`
	Gnome       Gnome       `koanf:"gnome" toml:"gnome"`
}

// Release locates the upstream release artifacts
type Release struct {
	Project      string `koanf:"project" toml:"project"`
	APIBase      string `koanf:"api_base" toml:"api_base"`
	DownloadBase string `koanf:"download_base" toml:"download_base"`
	RawBase      string `koanf:"raw_base" toml:"raw_base"`
	// Tag pins the release; empty asks the releases API once per run
	Tag            string   `koanf:"tag" toml:"tag"`
	Tarball        string   `koanf:"tarball" toml:"tarball"`
	SkelCandidates []string `koanf:"skel_candidates" toml:"skel_candidates"`
	BannerURL      string   `koanf:"banner_url" toml:"banner_url"`
}

// Cache configures the artifact cache
type Cache struct {
	DirName         string `koanf:"dir_name" toml:"dir_name"`
	VerifyChecksums bool   `koanf:"verify_checksums" toml:"verify_checksums"`
}

// Packages lists the system packages each step needs
type Packages struct {
	Base        []string `koanf:"base" toml:"base"`
	MaterialYou []string `koanf:"material_you" toml:"material_you"`
	Plasmoid    []string `koanf:"plasmoid" toml:"plasmoid"`
	Kitty       []string `koanf:"kitty" toml:"kitty"`
}

// Bundle is a downloadable .flatpak file
type Bundle struct {
	Name string `koanf:"name" toml:"name"`
	URL  string `koanf:"url" toml:"url"`
}

// Flatpak configures the bundle manager steps
type Flatpak struct {
	RemoteName   string   `koanf:"remote_name" toml:"remote_name"`
	RemoteURL    string   `koanf:"remote_url" toml:"remote_url"`
	AssumeYes    bool     `koanf:"assume_yes" toml:"assume_yes"`
	Suggested    []string `koanf:"suggested" toml:"suggested"`
	Bundles      []Bundle `koanf:"bundles" toml:"bundles"`
	GnomeBundles []Bundle `koanf:"gnome_bundles" toml:"gnome_bundles"`
	Assistant    Bundle   `koanf:"assistant" toml:"assistant"`
	Updater      Bundle   `koanf:"updater" toml:"updater"`
}

// checkBundleNames rejects two bundles sharing a name but not a URL. The
// name is the cache key, so whichever ran first would win for both.
func (f Flatpak) checkBundleNames() error {
	all := append(append([]Bundle{}, f.Bundles...), f.GnomeBundles...)
	all = append(all, f.Assistant, f.Updater)

	urls := map[string]string{}
	for _, b := range all {
		if b.Name == "" {
			continue
		}
		if prev, ok := urls[b.Name]; ok && prev != b.URL {
			return errors.Newf(errors.ErrConfigParse, "flatpak bundle %q has two URLs: %s and %s", b.Name, prev, b.URL).
				WithDetail("name", b.Name)
		}
		urls[b.Name] = b.URL
	}
	return nil
}

// MaterialYou configures the pipx-installed colour backend
type MaterialYou struct {
	Package string   `koanf:"package" toml:"package"`
	Inject  []string `koanf:"inject" toml:"inject"`
}

// Plasmoid identifies the KDE widget and where to build it from
type Plasmoid struct {
	ID   string `koanf:"id" toml:"id"`
	Repo string `koanf:"repo" toml:"repo"`
}

// Gnome configures the GNOME catalog
type Gnome struct {
	MinVersion      int      `koanf:"min_version" toml:"min_version"`
	ExtensionID     string   `koanf:"extension_id" toml:"extension_id"`
	MaterialYouRepo string   `koanf:"material_you_repo" toml:"material_you_repo"`
	AdwaitaRepo     string   `koanf:"adwaita_repo" toml:"adwaita_repo"`
	IconRepo        string   `koanf:"icon_repo" toml:"icon_repo"`
	DconfFiles      []string `koanf:"dconf_files" toml:"dconf_files"`
	UpdaterVersion  string   `koanf:"updater_version" toml:"updater_version"`
}

// ResolveDesktop turns DesktopAuto into a concrete desktop using
// XDG_CURRENT_DESKTOP. Anything that is not GNOME is treated as KDE.
func (c *Config) ResolveDesktop() string {
	switch strings.ToLower(c.Desktop) {
	case DesktopKDE:
		return DesktopKDE
	case DesktopGNOME:
		return DesktopGNOME
	}
	if strings.Contains(strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP")), "gnome") {
		return DesktopGNOME
	}
	return DesktopKDE
}
