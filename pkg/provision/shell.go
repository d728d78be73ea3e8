package provision

import (
	"context"

	"github.com/nyarchlinux/nyarchify/pkg/identity"
	"github.com/nyarchlinux/nyarchify/pkg/mutate"
)

// Shell snippets appended to the user's rc files
const (
	LocalBinMarker = "# Nyarch KDE installer: ensure ~/.local/bin is on PATH"
	LocalBinBody   = `export PATH="$HOME/.local/bin:$PATH"`
	LocalBinHint   = ".local/bin"

	PywalMarker = "# Nyarch KDE installer: pywal color sequences"
	PywalBody   = `if [[ -f "$HOME/.cache/wal/sequences" ]]; then
    (cat "$HOME/.cache/wal/sequences")
fi`
	PywalHint = "wal/sequences"
)

// EnsureLocalBinOnPath makes ~/.local/bin exist, puts it on PATH for this
// process and its children, and adds it to ~/.profile for future logins.
func (p *Provisioner) EnsureLocalBinOnPath(_ context.Context) error {
	bin := p.Paths.LocalBin()
	if err := p.Mutator.FS().MkdirAll(bin, 0755); err != nil {
		return err
	}
	if identity.PrependPath(bin) {
		p.logger.Debug().Str("dir", bin).Msg("Added to PATH")
	}

	state, err := p.Mutator.EnsureSnippet(p.Paths.Profile(), LocalBinMarker, LocalBinBody, LocalBinHint)
	if err != nil {
		return err
	}
	switch state {
	case mutate.SnippetApplied:
		p.Printer.Info("Added ~/.local/bin to PATH in ~/.profile (log out and back in to apply)")
	case mutate.SnippetConflicted:
		p.Printer.Warn("~/.profile already mentions .local/bin; left it untouched. " +
			"Make sure ~/.local/bin is on your PATH.")
	}
	return nil
}

// ConfigurePywal appends the pywal colour sequence hook to ~/.bashrc
func (p *Provisioner) ConfigurePywal(_ context.Context) error {
	state, err := p.Mutator.EnsureSnippet(p.Paths.Bashrc(), PywalMarker, PywalBody, PywalHint)
	if err != nil {
		return err
	}
	switch state {
	case mutate.SnippetApplied:
		p.Printer.Info("Pywal hook added to ~/.bashrc")
	case mutate.SnippetSkipped:
		p.Printer.Info("Pywal hook already present in ~/.bashrc")
	case mutate.SnippetConflicted:
		p.Printer.Warn("Did not modify ~/.bashrc due to existing wal/sequences logic. " +
			"Please integrate the Pywal hook manually if needed.")
	}
	return nil
}
