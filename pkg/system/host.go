package system

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// OSReleasePath is where the distribution describes itself
const OSReleasePath = "/etc/os-release"

// Host answers questions about the machine we run on
type Host struct {
	fs       afero.Fs
	runner   Runner
	lookPath func(string) (string, error)
}

// NewHost creates host probes. The filesystem is used for os-release and
// runner for version queries.
func NewHost(fs afero.Fs, runner Runner) *Host {
	return &Host{fs: fs, runner: runner, lookPath: exec.LookPath}
}

// WithLookPath replaces the PATH lookup, for tests
func (h *Host) WithLookPath(fn func(string) (string, error)) *Host {
	h.lookPath = fn
	return h
}

// Which reports whether name is an executable on PATH
func (h *Host) Which(name string) bool {
	_, err := h.lookPath(name)
	return err == nil
}

// DescribeOS returns "PRETTY_NAME (VERSION_CODENAME)" from os-release,
// or "Unknown" when it cannot be read.
func (h *Host) DescribeOS() string {
	f, err := h.fs.Open(OSReleasePath)
	if err != nil {
		return "Unknown"
	}
	defer f.Close()

	data := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		k, v, ok := strings.Cut(line, "=")
		if line == "" || !ok {
			continue
		}
		data[k] = strings.Trim(strings.TrimSpace(v), `"`)
	}

	pretty := data["PRETTY_NAME"]
	if pretty == "" {
		pretty = data["NAME"]
	}
	if pretty == "" {
		pretty = "Unknown"
	}
	if codename := data["VERSION_CODENAME"]; codename != "" {
		return pretty + " (" + codename + ")"
	}
	return pretty
}

// PlasmaMajor returns the major Plasma version from plasmashell, or 0
func (h *Host) PlasmaMajor(ctx context.Context) int {
	out, err := h.runner.Output(ctx, NewCommand("plasmashell", "--version"))
	if err != nil {
		return 0
	}
	for _, tok := range strings.Fields(out) {
		if tok[0] >= '0' && tok[0] <= '9' {
			return majorOf(tok)
		}
	}
	return 0
}

// GnomeMajor returns the major GNOME version from gnome-session, or 0
func (h *Host) GnomeMajor(ctx context.Context) int {
	out, err := h.runner.Output(ctx, NewCommand("gnome-session", "--version"))
	if err != nil {
		return 0
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0
	}
	return majorOf(fields[len(fields)-1])
}

func majorOf(version string) int {
	head, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
