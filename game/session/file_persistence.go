package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const sessionFileExt = ".json"

// FilePersistence keeps each session as <id>.json in one directory
type FilePersistence struct {
	dir string
}

// NewFilePersistence uses dir, creating it when missing
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions directory %s: %w", dir, err)
	}
	return &FilePersistence{dir: dir}, nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.dir, sessionKey(id)+sessionFileExt)
}

// Save writes the snapshot next to its final name and renames it into
// place, so readers never see a half-written file.
func (fp *FilePersistence) Save(data *PersistedSessionData) error {
	raw, err := encodeSession(data, true)
	if err != nil {
		return err
	}

	target := fp.path(data.ID)
	staging := target + ".tmp"
	if err := os.WriteFile(staging, raw, 0644); err != nil {
		return fmt.Errorf("write session %s: %w", data.ID, err)
	}
	if err := os.Rename(staging, target); err != nil {
		os.Remove(staging)
		return fmt.Errorf("write session %s: %w", data.ID, err)
	}
	return nil
}

func (fp *FilePersistence) Load(id string) (*PersistedSessionData, error) {
	raw, err := os.ReadFile(fp.path(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return decodeSession(id, raw)
}

func (fp *FilePersistence) Delete(id string) error {
	err := os.Remove(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("remove session %s: %w", id, err)
	}
	return nil
}

// ListAll returns the IDs of every session file; other files are ignored
func (fp *FilePersistence) ListAll() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(fp.dir, "*"+sessionFileExt))
	if err != nil {
		return nil, fmt.Errorf("list sessions in %s: %w", fp.dir, err)
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		if info, err := os.Stat(match); err != nil || info.IsDir() {
			continue
		}
		ids = append(ids, strings.TrimSuffix(filepath.Base(match), sessionFileExt))
	}
	return ids, nil
}

func (fp *FilePersistence) Exists(id string) bool {
	info, err := os.Stat(fp.path(id))
	return err == nil && !info.IsDir()
}
