package system

import (
	"archive/tar"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const osCreateTrunc = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// TarGzExtractor unpacks gzip-compressed tar archives. Entries whose path
// would land outside the destination are rejected.
type TarGzExtractor struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewTarGzExtractor creates an extractor over fs
func NewTarGzExtractor(fs afero.Fs) *TarGzExtractor {
	return &TarGzExtractor{fs: fs, logger: logging.GetLogger("system.extract")}
}

// Extract unpacks archive into destDir
func (x *TarGzExtractor) Extract(ctx context.Context, archive, destDir string) error {
	f, err := x.fs.Open(archive)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "could not open %s", archive)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtract, "%s is not a gzip archive", archive)
	}
	defer zr.Close()

	if err := x.fs.MkdirAll(destDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", destDir)
	}

	tr := tar.NewReader(zr)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "extraction cancelled")
		}
		hdr, err := tr.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "corrupt archive %s", archive)
		}

		target, err := within(destDir, hdr.Name)
		if err != nil {
			return err
		}
		if err := x.entry(tr, hdr, destDir, target); err != nil {
			return err
		}
		count++
	}

	x.logger.Debug().Str("archive", archive).Str("dest", destDir).Int("entries", count).Msg("Extracted")
	return nil
}

func (x *TarGzExtractor) entry(tr *tar.Reader, hdr *tar.Header, destDir, target string) error {
	mode := os.FileMode(hdr.Mode).Perm()

	if err := x.noLinkedParents(destDir, target); err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := x.fs.MkdirAll(target, mode|0700); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", target)
		}
	case tar.TypeReg:
		return x.writeFile(target, tr, mode)
	case tar.TypeSymlink:
		linker, ok := x.fs.(afero.Linker)
		if !ok {
			return nil
		}
		if filepath.IsAbs(hdr.Linkname) || !x.linkStaysInside(destDir, filepath.Dir(target), hdr.Linkname) {
			x.logger.Warn().Str("entry", hdr.Name).Str("link", hdr.Linkname).Msg("Skipping symlink pointing outside the archive")
			return nil
		}
		if err := x.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", filepath.Dir(target))
		}
		_ = x.fs.Remove(target)
		if err := linker.SymlinkIfPossible(hdr.Linkname, target); err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "could not create symlink %s", target)
		}
	case tar.TypeLink:
		src, err := within(destDir, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := x.noLinkedParents(destDir, src); err != nil {
			return err
		}
		if x.isSymlink(src) {
			return errors.Newf(errors.ErrExtract, "hard link %s points at symlink %s", hdr.Name, hdr.Linkname)
		}
		in, err := x.fs.Open(src)
		if err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "hard link %s points at missing %s", hdr.Name, hdr.Linkname)
		}
		defer in.Close()
		return x.writeFile(target, in, mode)
	default:
		x.logger.Debug().Str("entry", hdr.Name).Msg("Skipping special file")
	}
	return nil
}

func (x *TarGzExtractor) writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := x.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "could not create %s", filepath.Dir(target))
	}
	// never write through a link planted by an earlier entry
	if x.isSymlink(target) {
		if err := x.fs.Remove(target); err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "could not replace symlink %s", target)
		}
	}
	out, err := x.fs.OpenFile(target, osCreateTrunc, mode)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "could not create %s", target)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return errors.Wrapf(err, errors.ErrExtract, "could not write %s", target)
	}
	return out.Close()
}

// noLinkedParents fails when a directory between root and target is a
// symlink. Following it could land the entry outside root even though the
// path itself is lexically contained.
func (x *TarGzExtractor) noLinkedParents(root, target string) error {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtract, "archive entry %s escapes %s", target, root)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	cur := filepath.Clean(root)
	for _, part := range parts[:len(parts)-1] {
		cur = filepath.Join(cur, part)
		if x.isSymlink(cur) {
			return errors.Newf(errors.ErrExtract, "archive entry %s passes through symlink %s", target, cur)
		}
	}
	return nil
}

// linkStaysInside walks linkname one element at a time from dir. Every
// intermediate path must stay under root and must not be a symlink, since
// "a/.." resolves through a and not lexically.
func (x *TarGzExtractor) linkStaysInside(root, dir, linkname string) bool {
	parts := strings.Split(filepath.ToSlash(linkname), "/")
	cur := dir
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			cur = filepath.Join(cur, part)
			if i < len(parts)-1 && x.isSymlink(cur) {
				return false
			}
		}
		if !inside(root, cur) {
			return false
		}
	}
	return true
}

func (x *TarGzExtractor) isSymlink(path string) bool {
	lstater, ok := x.fs.(afero.Lstater)
	if !ok {
		return false
	}
	info, _, err := lstater.LstatIfPossible(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// within joins name onto root and fails if the result escapes root
func within(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if !inside(root, target) {
		return "", errors.Newf(errors.ErrExtract, "archive entry %q escapes %s", name, root)
	}
	return target, nil
}

func inside(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
