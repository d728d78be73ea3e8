package cache

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// checksumSuffix names the BLAKE3 sidecar written next to a download
const checksumSuffix = ".b3"

// Digest returns the hex BLAKE3 digest of the file at path
func (c *Cache) Digest(path string) (string, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "could not open %s", path)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "could not read %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) writeChecksum(path string) error {
	sum, err := c.Digest(path)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(c.fs, path+checksumSuffix, []byte(sum+"\n"), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "could not write checksum for %s", path)
	}
	return nil
}

// verifyCached reports whether a cached file may be used. Files without a
// sidecar, and every file when verification is off, are trusted.
func (c *Cache) verifyCached(path string) (bool, error) {
	if !c.verify {
		return true, nil
	}
	want, err := afero.ReadFile(c.fs, path+checksumSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, errors.Wrapf(err, errors.ErrFileAccess, "could not read checksum for %s", path)
	}
	got, err := c.Digest(path)
	if err != nil {
		return false, err
	}
	if got != strings.TrimSpace(string(want)) {
		c.logger.Debug().Str("path", path).Str("want", strings.TrimSpace(string(want))).Str("got", got).Msg("Checksum mismatch")
		return false, nil
	}
	return true, nil
}

func (c *Cache) discard(path string) error {
	if err := c.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrChecksum, "could not discard corrupt %s", path)
	}
	_ = c.fs.Remove(path + checksumSuffix)
	return nil
}
