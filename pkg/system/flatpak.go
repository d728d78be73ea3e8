package system

import "context"

// Flatpak drives the flatpak bundle manager
type Flatpak struct {
	runner    Runner
	assumeYes bool
}

// NewFlatpak creates a flatpak collaborator. With assumeYes every install
// is non-interactive; otherwise flatpak asks on the terminal.
func NewFlatpak(runner Runner, assumeYes bool) *Flatpak {
	return &Flatpak{runner: runner, assumeYes: assumeYes}
}

// AddRemote registers a remote unless it already exists
func (f *Flatpak) AddRemote(ctx context.Context, name, url string) error {
	return f.runner.Run(ctx, NewCommand("flatpak", "remote-add", "--if-not-exists", name, url))
}

// Install installs refs from remote in one transaction
func (f *Flatpak) Install(ctx context.Context, remote string, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}
	args := f.installArgs(append([]string{remote}, refs...)...)
	return f.runner.Run(ctx, NewCommand("flatpak", args...))
}

// InstallFromFile installs a local .flatpak bundle
func (f *Flatpak) InstallFromFile(ctx context.Context, path string) error {
	return f.runner.Run(ctx, NewCommand("flatpak", f.installArgs(path)...))
}

// Override grants every app access to a filesystem location
func (f *Flatpak) Override(ctx context.Context, filesystem string) error {
	return f.runner.Run(ctx, NewCommand("flatpak", "override", "--filesystem="+filesystem).AsRoot())
}

func (f *Flatpak) installArgs(rest ...string) []string {
	args := []string{"install"}
	if f.assumeYes {
		args = append(args, "-y")
	}
	return append(args, rest...)
}
