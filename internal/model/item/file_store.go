package item

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// FileStore keeps the collection as one pretty-printed JSON array on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by path. The file does not need to exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path reports the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load decodes the backing file. A missing or empty file is an empty collection.
func (s *FileStore) Load(_ context.Context) ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []Item{}, nil
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Save overwrites the backing file with the full collection.
func (s *FileStore) Save(_ context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// Same directory so the rename stays on one filesystem.
	tmp := filepath.Join(dir, "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
