package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateFile opens path for writing, creating any missing parent
// directories. The caller owns the returned handle.
func CreateFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parents for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// WriteFile writes path through fn. Parent directories are created and the
// handle is released on every exit path, with a close failure surfaced when
// fn itself succeeded.
func WriteFile(path string, fn func(io.Writer) error) (err error) {
	f, err := CreateFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err = fn(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes v to path as a single JSON document.
func WriteJSON(path string, v any) error {
	return WriteFile(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(v)
	})
}

// CopyFile copies src to dst, creating dst's parent directories.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	return WriteFile(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// MoveInto renames path into destDir, creating the directory first. The
// rename is the consumption commit for queue files: a missing source means
// another drain got there first, which is reported as moved=false rather
// than an error.
func MoveInto(path, destDir string) (moved bool, err error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", destDir, err)
	}
	dest := filepath.Join(destDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("move %s to %s: %w", path, destDir, err)
	}
	return true, nil
}

// Init creates the on-disk skeleton for every declared layer: the layer
// directory plus the delta area with its work and processed subdirectories.
func Init(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, l := range cfg.Layers {
		dirs := make([]string, 0, 3)

		layerDir, err := cfg.LayerDir(l.Name)
		if err != nil {
			return err
		}
		dirs = append(dirs, layerDir)

		workDir, err := cfg.WorkDir(l.Name)
		if err != nil {
			return err
		}
		dirs = append(dirs, workDir)

		processedDir, err := cfg.ProcessedDir(l.Name)
		if err != nil {
			return err
		}
		dirs = append(dirs, processedDir)

		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("init layer %s: %w", l.Name, err)
			}
		}
	}
	return nil
}
