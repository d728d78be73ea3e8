package mutate

import (
	"io"
	"os"
	"path/filepath"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/spf13/afero"
)

// CopyStats counts what a copy did
type CopyStats struct {
	Copied  int
	Skipped int
}

type treeEntry struct {
	rel  string
	info os.FileInfo
}

// MergeCopy copies every file under src to the same relative path under
// dst, creating directories as needed and overwriting files that already
// exist. Nothing at dst is ever removed.
//
// The source tree is listed before copying starts. A file that is gone by
// the time it is copied, or a dangling symlink, is skipped.
func (m *Mutator) MergeCopy(src, dst string) (CopyStats, error) {
	var stats CopyStats

	entries, err := m.listTree(src)
	if err != nil {
		return stats, err
	}

	if err := m.fs.MkdirAll(dst, 0755); err != nil {
		return stats, errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", dst)
	}

	for _, e := range entries {
		target := filepath.Join(dst, e.rel)

		if e.info.IsDir() {
			if err := m.fs.MkdirAll(target, 0755); err != nil {
				return stats, errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", target)
			}
			continue
		}

		copied, err := m.copyFile(filepath.Join(src, e.rel), target)
		if err != nil {
			return stats, err
		}
		if copied {
			stats.Copied++
		} else {
			stats.Skipped++
		}
	}

	m.logger.Debug().
		Str("src", src).
		Str("dst", dst).
		Int("copied", stats.Copied).
		Int("skipped", stats.Skipped).
		Msg("Merged tree")
	return stats, nil
}

func (m *Mutator) listTree(src string) ([]treeEntry, error) {
	info, err := m.fs.Stat(src)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "source %s not readable", src)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput, "source %s is not a directory", src)
	}

	var entries []treeEntry
	err = afero.Walk(m.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path != src {
				return nil
			}
			return err
		}
		if path == src {
			return nil
		}
		if !info.IsDir() && !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		entries = append(entries, treeEntry{rel: rel, info: info})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCopy, "could not list %s", src)
	}
	return entries, nil
}

// copyFile copies one file preserving mode and modification time. It
// reports false when the source no longer resolves to a regular file.
func (m *Mutator) copyFile(src, dst string) (bool, error) {
	in, err := m.fs.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug().Str("file", src).Msg("Source vanished, skipping")
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrCopy, "could not open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCopy, "could not stat %s", src)
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}

	if err := m.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrDirCreate, "could not create parent of %s", dst)
	}

	out, err := m.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "could not create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, errors.Wrapf(err, errors.ErrCopy, "could not copy %s", src)
	}
	if err := out.Close(); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "could not write %s", dst)
	}

	// An existing file keeps its old mode after O_TRUNC
	_ = m.fs.Chmod(dst, info.Mode().Perm())
	_ = m.fs.Chtimes(dst, info.ModTime(), info.ModTime())
	return true, nil
}

// ReplaceResult describes what ReplaceDir did
type ReplaceResult struct {
	BackupPath string
	// BackedUp is true when dst was moved to BackupPath during this call
	BackedUp bool
	Copy     CopyStats
}

// ReplaceDir installs src at dst. An existing dst is moved to its backup
// path first, unless a backup already exists, in which case the backup is
// preserved and src is merged over dst.
func (m *Mutator) ReplaceDir(src, dst string) (ReplaceResult, error) {
	result := ReplaceResult{BackupPath: BackupPath(dst)}

	if !m.IsDir(src) {
		return result, errors.Newf(errors.ErrNotFound, "source directory %s not found", src)
	}

	exists, err := m.Exists(dst)
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrFileAccess, "could not stat %s", dst)
	}

	if exists {
		backupExists, err := m.Exists(result.BackupPath)
		if err != nil {
			return result, errors.Wrapf(err, errors.ErrFileAccess, "could not stat %s", result.BackupPath)
		}
		if backupExists {
			m.logger.Info().Str("backup", result.BackupPath).Msg("Backup already exists, keeping it")
		} else {
			if err := m.fs.Rename(dst, result.BackupPath); err != nil {
				return result, errors.Wrapf(err, errors.ErrBackup, "could not move %s to %s", dst, result.BackupPath)
			}
			result.BackedUp = true
			m.logger.Info().Str("from", dst).Str("to", result.BackupPath).Msg("Backed up directory")
		}
	} else if err := m.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return result, errors.Wrapf(err, errors.ErrDirCreate, "could not create parent of %s", dst)
	}

	result.Copy, err = m.MergeCopy(src, dst)
	return result, err
}

// BackupFile moves path to backupPath unless the backup already exists.
// It reports whether the file was moved.
func (m *Mutator) BackupFile(path, backupPath string) (bool, error) {
	exists, err := m.Exists(path)
	if err != nil || !exists {
		return false, err
	}

	backupExists, err := m.Exists(backupPath)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "could not stat %s", backupPath)
	}
	if backupExists {
		m.logger.Info().Str("backup", backupPath).Msg("Backup already exists, keeping it")
		return false, nil
	}

	if err := m.fs.Rename(path, backupPath); err != nil {
		return false, errors.Wrapf(err, errors.ErrBackup, "could not move %s to %s", path, backupPath)
	}
	return true, nil
}

// CopyFiles copies the regular files directly inside srcDir whose names
// match keep into dstDir. Subdirectories are not descended.
func (m *Mutator) CopyFiles(srcDir, dstDir string, keep func(name string) bool) (int, error) {
	infos, err := afero.ReadDir(m.fs, srcDir)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrNotFound, "could not read %s", srcDir)
	}
	if err := m.fs.MkdirAll(dstDir, 0755); err != nil {
		return 0, errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", dstDir)
	}

	copied := 0
	for _, info := range infos {
		if info.IsDir() || !keep(info.Name()) {
			continue
		}
		ok, err := m.copyFile(filepath.Join(srcDir, info.Name()), filepath.Join(dstDir, info.Name()))
		if err != nil {
			return copied, err
		}
		if ok {
			copied++
		}
	}
	return copied, nil
}
