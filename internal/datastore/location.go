package datastore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/psicash/internal/common"
)

// ensureLocation makes sure location is a usable directory. A missing
// directory is created only when its parent already exists: at most one path
// segment is ever created, never a whole chain.
func ensureLocation(location string) error {
	if location == "" {
		return fmt.Errorf("%w: empty datastore location", common.ErrInvalidArgument)
	}
	dir := filepath.Clean(location)

	fi, err := os.Stat(dir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", common.ErrStorageUnavailable, dir)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: stat %s: %w", common.ErrStorageUnavailable, dir, err)
	}

	parent := filepath.Dir(dir)
	pfi, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("%w: parent of %s: %w", common.ErrStorageUnavailable, dir, err)
	}
	if !pfi.IsDir() {
		return fmt.Errorf("%w: parent %s is not a directory", common.ErrStorageUnavailable, parent)
	}

	if err := os.Mkdir(dir, 0o770); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: mkdir %s: %w", common.ErrStorageUnavailable, dir, err)
	}
	return nil
}
