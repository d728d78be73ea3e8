package system

import (
	"context"
	"sort"
	"strings"
)

// Apt installs Debian packages
type Apt struct {
	runner Runner
}

// NewApt creates an apt collaborator
func NewApt(runner Runner) *Apt {
	return &Apt{runner: runner}
}

// Install refreshes the package index and installs names. The list is
// deduplicated and sorted so the same request always produces the same
// command line. An empty list does nothing.
func (a *Apt) Install(ctx context.Context, names ...string) error {
	pkgs := uniqueSorted(names)
	if len(pkgs) == 0 {
		return nil
	}
	if err := a.runner.Run(ctx, NewCommand("apt-get", "update", "-qq").AsRoot()); err != nil {
		return err
	}
	args := append([]string{"install", "-y"}, pkgs...)
	return a.runner.Run(ctx, NewCommand("apt-get", args...).AsRoot())
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
