package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps all keys in one JSON object on disk. Values are
// base64-encoded by encoding/json so any byte payload round-trips.
type FileStore struct {
	filePath string
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewFileStore creates the parent directory and returns a store backed by filePath
func NewFileStore(filePath string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{filePath: filePath, logger: logger}, nil
}

// Get returns the value stored under key
func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readUnlocked()
	if err != nil {
		return nil, err
	}
	v, ok := values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Set stores value under key
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readUnlocked()
	if err != nil {
		return err
	}
	values[key] = value
	return s.writeUnlocked(values)
}

// Delete removes key
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readUnlocked()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.writeUnlocked(values)
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

// readUnlocked loads the key map (must be called with lock held).
// A corrupted file is moved aside and treated as empty.
func (s *FileStore) readUnlocked() (map[string][]byte, error) {
	values := map[string][]byte{}

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	if err := json.Unmarshal(data, &values); err != nil {
		backupPath := s.filePath + ".backup"
		if renameErr := os.Rename(s.filePath, backupPath); renameErr != nil {
			return nil, fmt.Errorf("storage file corrupted and backup failed: %w", renameErr)
		}
		s.logger.Warn("storage file corrupted, moved aside",
			zap.String("path", s.filePath),
			zap.String("backup", backupPath),
			zap.Error(err))
		return map[string][]byte{}, nil
	}
	return values, nil
}

// writeUnlocked saves without acquiring the lock (must be called with lock held)
func (s *FileStore) writeUnlocked(values map[string][]byte) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	// Write to temp file
	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
