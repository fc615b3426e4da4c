package kv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExtension = ".json"

// FileBackend stores each key as a JSON file in a data directory
type FileBackend struct {
	dir string

	// serialises writes from this process; other processes race freely
	writeMu sync.Mutex

	// hashes of the content last written by this process or last reported
	// by the watcher, used to tell our own writes from external edits.
	// Reads never touch it.
	hashMu sync.RWMutex
	hashes map[string]string
}

// NewFileBackend creates the data directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{
		dir:    dir,
		hashes: make(map[string]string),
	}, nil
}

// Dir returns the data directory
func (f *FileBackend) Dir() string {
	return f.dir
}

// Get reads the file for key
func (f *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := f.pathFor(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}

// Set writes value to a temp file and renames it over the key's file
func (f *FileBackend) Set(_ context.Context, key string, value []byte) error {
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	f.setHash(key, contentHash(value))
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Close is a no-op
func (f *FileBackend) Close() error {
	return nil
}

func (f *FileBackend) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+fileExtension), nil
}

// keyFor maps a file in the data directory back to its key
func (f *FileBackend) keyFor(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, fileExtension) {
		return "", false
	}
	return strings.TrimSuffix(base, fileExtension), true
}

func (f *FileBackend) setHash(key, hash string) {
	f.hashMu.Lock()
	defer f.hashMu.Unlock()
	f.hashes[key] = hash
}

func (f *FileBackend) hash(key string) (string, bool) {
	f.hashMu.RLock()
	defer f.hashMu.RUnlock()
	h, ok := f.hashes[key]
	return h, ok
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
