package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache implements Service on top of a directory of JSON documents,
// one file per key. Writes go through a temp file and rename so readers
// never observe a partially written document. Expirations are ignored:
// document-level freshness fields govern staleness for file-backed data.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-backed document cache rooted at dir.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("file cache: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file cache: mkdir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		data, err = json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
	}

	path := c.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file cache: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file cache: rename: %w", err)
	}
	return nil
}

func (c *FileCache) Get(_ context.Context, key string, dest interface{}) error {
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrCacheMiss
		}
		return err
	}

	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}

	return json.Unmarshal(data, dest)
}

func (c *FileCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(c.pathFor(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (c *FileCache) Exists(_ context.Context, keys ...string) (bool, error) {
	for _, key := range keys {
		if _, err := os.Stat(c.pathFor(key)); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// Close is a no-op for the file backend.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) pathFor(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	return filepath.Join(c.dir, name+".json")
}
