package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"research-dash/internal/api"
	"research-dash/internal/storage"
)

// isoMillis matches the browser's Date.toISOString layout
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Manager handles research history persistence
type Manager struct {
	store      storage.KV
	mu         sync.Mutex
	maxEntries int
	logger     *zap.Logger
	now        func() time.Time
}

// NewManager creates a new history manager
func NewManager(store storage.KV, maxEntries int, logger *zap.Logger) *Manager {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:      store,
		maxEntries: maxEntries,
		logger:     logger.Named("history"),
		now:        time.Now,
	}
}

// Add prepends an entry for a completed research result, drops entries
// beyond the cap and persists the list. Only a corrupted list is replaced;
// a failed read returns the error and leaves the stored list untouched.
func (m *Manager) Add(query string, result *api.ResearchResult) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.loadUnlocked()
	var perr *ParseError
	switch {
	case errors.As(err, &perr):
		// A corrupted list is replaced rather than blocking new entries.
		m.logger.Warn("discarding corrupted history", zap.Error(err))
		entries = nil
	case err != nil:
		return Entry{}, err
	}

	now := m.now()
	entry := Entry{
		ID:             now.UnixMilli(),
		Query:          query,
		Timestamp:      now.UTC().Format(isoMillis),
		ToolsUsed:      append([]string{}, result.ToolsUsed...),
		ProcessingTime: result.ProcessingTime,
		SessionID:      result.SessionID,
	}
	if len(entries) > 0 && entry.ID <= entries[0].ID {
		entry.ID = entries[0].ID + 1
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > m.maxEntries {
		entries = entries[:m.maxEntries]
	}

	if err := m.saveUnlocked(entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns the persisted entries, newest first. Missing or corrupted
// data yields an empty list.
func (m *Manager) List() []Entry {
	entries, err := m.Load()
	if err != nil {
		m.logger.Warn("history unreadable, treating as empty", zap.Error(err))
		return []Entry{}
	}
	return entries
}

// Load is List with the read error exposed; corrupt data is a *ParseError.
func (m *Manager) Load() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadUnlocked()
}

// Clear deletes the persisted list
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(StorageKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	m.logger.Info("history cleared")
	return nil
}

// loadUnlocked reads the list (must be called with lock held)
func (m *Manager) loadUnlocked() ([]Entry, error) {
	data, err := m.store.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ParseError{Err: err}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// saveUnlocked writes the list (must be called with lock held)
func (m *Manager) saveUnlocked(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := m.store.Set(StorageKey, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
