package system

import "context"

// Git clones repositories
type Git struct {
	runner Runner
}

// NewGit creates a git collaborator
func NewGit(runner Runner) *Git {
	return &Git{runner: runner}
}

// Clone makes a shallow clone of url into dest. Credential prompts are
// disabled so a private or mistyped URL fails instead of hanging.
func (g *Git) Clone(ctx context.Context, url, dest string) error {
	cmd := NewCommand("git", "clone", "--depth", "1", url, dest).
		WithEnv("GIT_TERMINAL_PROMPT=0")
	return g.runner.Run(ctx, cmd)
}
