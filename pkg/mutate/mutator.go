// Package mutate applies changes to a user's files without losing what was
// there before.
//
// Text files are only ever appended to. Directories are merged into, and a
// directory that is about to be replaced is first moved to a sibling
// "-backup" path or archived. An existing backup is never overwritten, so
// the oldest known-good copy survives any number of runs.
package mutate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// BackupSuffix is appended to a directory or file name to form its backup
const BackupSuffix = "-backup"

// Mutator performs safe filesystem mutations
type Mutator struct {
	fs     afero.Fs
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a Mutator over fs
func New(fs afero.Fs) *Mutator {
	return &Mutator{
		fs:     fs,
		now:    time.Now,
		logger: logging.GetLogger("mutate"),
	}
}

// WithClock replaces the clock used to name archives
func (m *Mutator) WithClock(now func() time.Time) *Mutator {
	m.now = now
	return m
}

// FS returns the underlying filesystem
func (m *Mutator) FS() afero.Fs {
	return m.fs
}

// BackupPath returns the sibling backup location for path
func BackupPath(path string) string {
	return filepath.Clean(path) + BackupSuffix
}

// Exists reports whether path exists without following a final symlink
func (m *Mutator) Exists(path string) (bool, error) {
	_, err := m.lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether path is a directory
func (m *Mutator) IsDir(path string) bool {
	ok, err := afero.DirExists(m.fs, path)
	return err == nil && ok
}

func (m *Mutator) lstat(path string) (os.FileInfo, error) {
	if l, ok := m.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return m.fs.Stat(path)
}
