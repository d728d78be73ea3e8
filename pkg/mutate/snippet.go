package mutate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/spf13/afero"
)

// SnippetState is the outcome of EnsureSnippet
type SnippetState int

const (
	// SnippetApplied means the snippet was appended
	SnippetApplied SnippetState = iota
	// SnippetSkipped means the marker or body was already present
	SnippetSkipped
	// SnippetConflicted means the file carries its own version of the
	// logic and was left untouched
	SnippetConflicted
)

func (s SnippetState) String() string {
	switch s {
	case SnippetApplied:
		return "applied"
	case SnippetSkipped:
		return "skipped"
	case SnippetConflicted:
		return "conflicted"
	}
	return "unknown"
}

// EnsureSnippet appends marker and body to path unless already there.
//
// The checks run in order: marker or trimmed body present means skipped,
// conflictHint present means conflicted, otherwise the snippet is appended
// after a newline if the file does not already end with one. Existing bytes
// are never rewritten.
func (m *Mutator) EnsureSnippet(path, marker, body, conflictHint string) (SnippetState, error) {
	logger := m.logger.With().Str("file", path).Logger()

	content, err := afero.ReadFile(m.fs, path)
	if err != nil && !os.IsNotExist(err) {
		return SnippetSkipped, errors.Wrapf(err, errors.ErrFileAccess, "could not read %s", path)
	}
	text := string(content)

	trimmedBody := strings.TrimSpace(body)
	if (marker != "" && strings.Contains(text, marker)) ||
		(trimmedBody != "" && strings.Contains(text, trimmedBody)) ||
		(marker == "" && trimmedBody == "") {
		logger.Debug().Msg("Snippet already present")
		return SnippetSkipped, nil
	}

	if conflictHint != "" && strings.Contains(text, conflictHint) {
		logger.Info().Str("hint", conflictHint).Msg("Conflicting configuration found, file left untouched")
		return SnippetConflicted, nil
	}

	if err := m.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return SnippetSkipped, errors.Wrapf(err, errors.ErrDirCreate, "could not create parent of %s", path)
	}

	f, err := m.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return SnippetSkipped, errors.Wrapf(err, errors.ErrFileWrite, "could not open %s", path)
	}

	var b strings.Builder
	if len(text) > 0 && !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	if marker != "" {
		b.WriteString(strings.TrimRight(marker, " \t\r\n") + "\n")
	}
	b.WriteString(strings.TrimRight(body, " \t\r\n") + "\n")

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return SnippetSkipped, errors.Wrapf(err, errors.ErrFileWrite, "could not update %s", path)
	}
	if err := f.Close(); err != nil {
		return SnippetSkipped, errors.Wrapf(err, errors.ErrFileWrite, "could not update %s", path)
	}

	logger.Info().Msg("Snippet appended")
	return SnippetApplied, nil
}
