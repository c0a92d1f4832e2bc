package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// WriteSecretFile writes data to path with owner-only permissions. Unless
// overwrite is set, an existing file is left untouched and ErrFileExists
// is returned.
func WriteSecretFile(path string, data []byte, overwrite bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", path, cerrors.ErrFileExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
