// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteAtomic replaces the file at path with data so that readers see
// either the old content or the new content, never a mix.
//
// The data goes to a uniquely named temporary file in the same
// directory, which is fsynced and closed, then renamed over the
// destination after any existing destination is removed. The parent
// directory is fsynced afterwards so the rename survives power loss.
// On any failure the temporary file is removed and the error returned.
func WriteAtomic(path string, data []byte) error {
	directory := filepath.Dir(path)
	temporaryPath := filepath.Join(directory, "."+uuid.NewString()+".tmp")

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", filepath.Base(path), err)
	}

	// Write, sync, close, in that order. Any failure removes the
	// temporary file and reports the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file for %s: %w", filepath.Base(path), err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file for %s: %w", filepath.Base(path), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file for %s: %w", filepath.Base(path), err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		os.Remove(temporaryPath)
		return fmt.Errorf("removing previous %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s into place: %w", filepath.Base(path), err)
	}

	parentDirectory, err := os.Open(directory)
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// removeIfExists deletes path, treating a missing file as success.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	return nil
}
