package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const fileMode = 0o644

// CopyFile copies src to dst through a temporary sibling that is renamed into
// place, so readers never see a partially written stem or artifact.
func CopyFile(src, dst string) error {
	return copyAtomic(src, dst, false)
}

// CopyFileVerified is CopyFile plus a size check and a SHA-256 comparison of
// the written bytes read back from disk. dst is left untouched on mismatch.
func CopyFileVerified(src, dst string) error {
	return copyAtomic(src, dst, true)
}

// WriteFileAtomic replaces path with data via a temporary sibling and rename.
func WriteFileAtomic(path string, data []byte) error {
	return writeAtomic(path, func(out *os.File) error {
		_, err := out.Write(data)
		return err
	})
}

func copyAtomic(src, dst string, verify bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("copy %s: source is a directory", src)
	}

	return writeAtomic(dst, func(out *os.File) error {
		var reader io.Reader = in
		srcHash := sha256.New()
		if verify {
			reader = io.TeeReader(in, srcHash)
		}
		written, err := io.Copy(out, reader)
		if err != nil {
			return err
		}
		if !verify {
			return nil
		}
		if written != info.Size() {
			return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
		}
		if _, err := out.Seek(0, io.SeekStart); err != nil {
			return err
		}
		dstHash := sha256.New()
		if _, err := io.Copy(dstHash, out); err != nil {
			return fmt.Errorf("read back copy: %w", err)
		}
		if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
			return errors.New("copy hash mismatch: file corrupted during copy")
		}
		return nil
	})
}

func writeAtomic(path string, fill func(*os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(fileMode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
