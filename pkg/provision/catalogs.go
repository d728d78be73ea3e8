package provision

import (
	"context"

	"github.com/nyarchlinux/nyarchify/pkg/catalog"
	"github.com/nyarchlinux/nyarchify/pkg/config"
)

const desktopGNOME = config.DesktopGNOME

// Catalog returns the operations offered for desktop
func (p *Provisioner) Catalog(desktop string) *catalog.Catalog {
	if desktop == desktopGNOME {
		return p.GnomeCatalog()
	}
	return p.KDECatalog()
}

// Farewell is printed once all selected operations have run
func Farewell(desktop string) string {
	if desktop == desktopGNOME {
		return "Log out and login to see the results!"
	}
	return "You may need to restart Plasma or log out and back in to see all changes."
}

// KDECatalog is the Plasma 6 on Debian catalog
func (p *Provisioner) KDECatalog() *catalog.Catalog {
	return catalog.New(
		catalog.Entry{
			Name:   "theming",
			Prompt: "[USER] Run full Nyarch KDE user theming (wallpapers, Material You backend + plasmoid, icons, GTK themes, Pywal hook, Flatpak GTK overrides)?",
			Done:   "Nyarch KDE user theming applied!",
			Action: p.outcome(
				step{"wallpapers", p.InstallWallpapers},
				step{"material you", p.InstallMaterialYouBackend},
				step{"icons", p.InstallIconTheme},
				step{"gtk themes", p.InstallGTKThemes},
				step{"pywal", p.ConfigurePywal},
				step{"flatpak overrides", p.ConfigureFlatpakOverrides},
			),
			Details: "Copies wallpapers to `~/.local/share/wallpapers/nyarch`, installs the " +
				"`kde-material-you-colors` backend with pipx plus its Plasma widget, merges the " +
				"Tela-circle-MaterialYou icons, replaces GTK themes and `gtk-3.0`/`gtk-4.0` " +
				"(old ones kept as `-backup`), appends the pywal hook to `~/.bashrc` and lets " +
				"flatpak apps read the GTK configs.",
		},
		catalog.Entry{
			Name:    "kitty",
			Prompt:  "[SYSTEM] Install Kitty && Customizations: Apply Nyarch customizations to kitty terminal?",
			Done:    "Kitty configured!",
			Action:  p.outcome(step{"kitty", p.ConfigureKitty}),
			Details: "Installs kitty with apt when missing and downloads the Nyarch `kitty.conf`. An existing config is kept as `kitty-backup.conf`.",
		},
		catalog.Entry{
			Name:   "fetch",
			Prompt: "[SYSTEM] Install Nekofetch and Nyaofetch + configure fastfetch?",
			Done:   "Nyarch fetch tools configured!",
			Action: p.outcome(
				step{"fetch tools", p.InstallFetchTools},
				step{"fastfetch", p.ConfigureFastfetch},
			),
			Details: "Installs `nekofetch` and `nyaofetch` into `/usr/bin` and the Nyarch fastfetch config. The old config is archived under `~/.config/fastfetch-backup`.",
		},
		catalog.Entry{
			Name:    "flatpaks",
			Prompt:  "[SYSTEM] Install Nyarch Suggested applications (Nyarch Flatpak apps)?",
			Done:    "Nyarch Flatpak apps installed!",
			Action:  p.outcome(step{"suggested flatpaks", p.InstallSuggestedFlatpaks}),
			Details: "Adds the flathub remote if needed and installs the suggested apps in one go.",
		},
		catalog.Entry{
			Name:   "apps",
			Prompt: "[SYSTEM] Install Nyarch Apps (Catgirl / Waifu / Assistant)?",
			Done:   "Nyarch Apps installed!",
			Action: p.outcome(step{"nyarch apps", p.bundles(p.Config.Flatpak.Bundles...)}),
			Details: "Downloads the CatgirlDownloader, WaifuDownloader and Nyarch Assistant " +
				"bundles into the cache and installs them.",
		},
	)
}

// GnomeCatalog is the GNOME catalog
func (p *Provisioner) GnomeCatalog() *catalog.Catalog {
	fp := p.Config.Flatpak
	return catalog.New(
		catalog.Entry{
			Name:    "extensions",
			Prompt:  "Install our Gnome extensions, they are important for the overall desktop customization?",
			Done:    "Gnome extensions installed!",
			Action:  p.outcome(step{"extensions", p.InstallExtensions}),
			Details: "Replaces `~/.local/share/gnome-shell/extensions` (old one kept as `-backup`) and builds the Material You extension.",
		},
		catalog.Entry{
			Name:   "fetch",
			Prompt: "[SYSTEM] Install Nekofetch and Nyaofetch and configure fastfetch, to tell everyone that you use nyarch btw?",
			Done:   "Nyaofetch and fastfetch installed!",
			Action: p.outcome(
				step{"fetch tools", p.InstallFetchTools},
				step{"fastfetch", p.ConfigureFastfetch},
			),
		},
		catalog.Entry{
			Name:   "wallpapers",
			Prompt: "Download Nyarch wallpapers?",
			Done:   "Wallpapers downloaded!",
			Action: p.outcome(step{"wallpapers", p.InstallGnomeWallpapers}),
		},
		catalog.Entry{
			Name:   "icons",
			Prompt: "Download our icons?",
			Done:   "Icons downloaded!",
			Action: p.outcome(step{"icons", p.InstallGnomeIcons}),
		},
		catalog.Entry{
			Name:   "themes",
			Prompt: "Download our themes?",
			Done:   "Themes downloaded!",
			Action: p.outcome(step{"gtk themes", p.InstallGTKThemes}),
		},
		catalog.Entry{
			Name:   "kitty",
			Prompt: "Apply our customizations to kitty terminal?",
			Done:   "Kitty configured!",
			Action: p.outcome(step{"kitty", p.ConfigureKitty}),
		},
		catalog.Entry{
			Name:   "pywal",
			Prompt: "Add pywal theming to your ~/.bashrc (for other shells you have to do it manually)?",
			Done:   "pywal configured!",
			Action: p.outcome(step{"pywal", p.ConfigurePywal}),
		},
		catalog.Entry{
			Name:   "flatpak-themes",
			Prompt: "Apply your GTK themes to flatpak apps?",
			Done:   "Flatpak themes configured!",
			Action: p.outcome(step{"flatpak overrides", p.ConfigureFlatpakOverrides}),
		},
		catalog.Entry{
			Name:   "flatpaks",
			Prompt: "Install suggested flatpaks to enhance your weebflow?",
			Done:   "Suggested apps installed!",
			Action: p.outcome(step{"suggested flatpaks", p.InstallSuggestedFlatpaks}),
		},
		catalog.Entry{
			Name:   "apps",
			Prompt: "[SYSTEM] Install Nyarch Exclusive applications?",
			Done:   "Nyarch apps installed!",
			Action: p.outcome(step{"nyarch apps", p.bundles(fp.GnomeBundles...)}),
		},
		catalog.Entry{
			Name:   "assistant",
			Prompt: "[SYSTEM] Install Nyarch Assistant, our Waifu AI Assistant?",
			Done:   "Nyarch Assistant installed!",
			Action: p.outcome(step{"assistant", p.bundles(fp.Assistant)}),
		},
		catalog.Entry{
			Name:   "updater",
			Prompt: "[SYSTEM] Install Nyarch Updater? It's going to have some issues outside of Nyarch and Arch in general",
			Done:   "Nyarch Updater installed!",
			Action: p.outcome(step{"updater", p.InstallUpdater}),
		},
		catalog.Entry{
			Name:    "settings",
			Prompt:  "Edit your Gnome settings? Note that if you have not installed something before, you may experience some bugs at the start",
			Done:    "Gnome settings applied!",
			Action:  p.outcome(step{"dconf", p.ConfigureDconf}),
			Details: "Saves your current settings to `~/dconf-backup.txt` (first run only) and loads the Nyarch dconf files.",
		},
	)
}

func (p *Provisioner) bundles(bundles ...config.Bundle) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return p.InstallBundles(ctx, bundles...)
	}
}
