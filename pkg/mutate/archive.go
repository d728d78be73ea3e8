package mutate

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/spf13/afero"
)

// ArchiveTimeFormat names timestamped archives
const ArchiveTimeFormat = "20060102-150405"

// ArchiveDir writes dir into backupsRoot/<prefix>-<timestamp>.tar.gz and,
// only once the archive is complete, removes dir. Entries are stored under
// the directory's base name. An existing archive is never overwritten; a
// numeric suffix is added instead.
func (m *Mutator) ArchiveDir(dir, backupsRoot, prefix string) (string, error) {
	if !m.IsDir(dir) {
		return "", errors.Newf(errors.ErrNotFound, "directory %s not found", dir)
	}
	if err := m.fs.MkdirAll(backupsRoot, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", backupsRoot)
	}

	archivePath, f, err := m.createArchiveFile(backupsRoot, prefix)
	if err != nil {
		return "", err
	}

	if err := m.writeArchive(f, dir); err != nil {
		f.Close()
		_ = m.fs.Remove(archivePath)
		return "", errors.Wrapf(err, errors.ErrBackup, "could not archive %s", dir)
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(archivePath)
		return "", errors.Wrapf(err, errors.ErrBackup, "could not archive %s", dir)
	}

	if err := m.fs.RemoveAll(dir); err != nil {
		return archivePath, errors.Wrapf(err, errors.ErrBackup, "archived %s but could not remove it", dir)
	}

	m.logger.Info().Str("dir", dir).Str("archive", archivePath).Msg("Archived directory")
	return archivePath, nil
}

func (m *Mutator) createArchiveFile(root, prefix string) (string, afero.File, error) {
	stamp := m.now().Format(ArchiveTimeFormat)
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("%s-%s.tar.gz", prefix, stamp)
		if i > 0 {
			name = fmt.Sprintf("%s-%s-%d.tar.gz", prefix, stamp, i)
		}
		path := filepath.Join(root, name)
		f, err := m.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return path, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, errors.Wrapf(err, errors.ErrBackup, "could not create %s", path)
		}
	}
	return "", nil, errors.Newf(errors.ErrBackup, "too many archives named %s-%s", prefix, stamp)
}

func (m *Mutator) writeArchive(w io.Writer, dir string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	base := filepath.Base(dir)

	err := afero.Walk(m.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if r, ok := m.fs.(afero.LinkReader); ok {
				if link, err = r.ReadlinkIfPossible(path); err != nil {
					return err
				}
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(base, rel))
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := m.fs.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
