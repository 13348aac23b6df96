package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnsureDeviceID returns the device's stable identifier, generating and
// persisting a fresh one on first run. The id survives reinstalls of the
// replica file so an approved device stays approved.
func EnsureDeviceID(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(raw))
		if id != "" {
			return id, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("error reading device id file: %w", err)
	}

	id := uuid.NewString()

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("error creating device id directory: %w", err)
	}
	if err = os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("error writing device id file: %w", err)
	}

	return id, nil
}
