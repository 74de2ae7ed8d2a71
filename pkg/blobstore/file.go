package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rotisserie/eris"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// File stores each key as <dir>/<key>.json. Writes go to a temporary file
// that is renamed over the target.
type File struct {
	dir string
}

// NewFile creates dir when missing.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("blobstore: file driver requires a directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, eris.Wrapf(err, "file: create directory %s", dir)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file: read %s", key)
	}
	return data, nil
}

func (f *File) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, ".blob-*")
	if err != nil {
		return eris.Wrap(err, "file: create temp")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "file: write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "file: close %s", key)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "file: replace %s", key)
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "file: delete %s", key)
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
