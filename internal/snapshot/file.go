package snapshot

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mjbernaski/word-card/internal/errors"
)

// ReadFile loads and decodes the snapshot at path. A missing file is not an
// error: the first export creates it, so absence decodes to (zero snapshot,
// exists=false). An unreadable path maps to TRANSPORT_UNAVAILABLE and
// unparseable bytes to CORRUPT_SNAPSHOT.
func ReadFile(path string) (Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, errors.NewTransportUnavailable(path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return Snapshot{}, true, err
	}
	return s, true, nil
}

// WriteFile encodes s and writes it to path atomically: the document lands
// in a temp file in the same directory and is renamed into place, so a
// concurrent reader never observes a torn write. The parent directory is
// created if needed.
func WriteFile(path string, s Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewWriteFailed(path, fmt.Errorf("failed to create directory: %w", err))
	}

	// Random temp name so two replicas writing through the same directory
	// never collide mid-write.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewWriteFailed(path, err)
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewWriteFailed(path, err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewWriteFailed(path, err)
	}
	if err := file.Close(); err != nil {
		return errors.NewWriteFailed(path, err)
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewWriteFailed(path, err)
	}
	success = true
	return nil
}
