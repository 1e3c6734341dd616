package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager handles search history persistence
type Manager struct {
	filePath    string
	mu          sync.RWMutex
	history     *History
	current     *Session
	maxSessions int
}

// NewManager creates a new history manager
func NewManager(filePath string, maxSessions int) *Manager {
	return &Manager{
		filePath:    filePath,
		history:     &History{Sessions: []Session{}},
		maxSessions: maxSessions,
	}
}

// Load loads history from disk and starts a new session
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	if _, err := os.Stat(m.filePath); os.IsNotExist(err) {
		m.history = &History{Sessions: []Session{}}
		m.startNewSession()
		return nil
	}

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var loaded History
	if err := json.Unmarshal(data, &loaded); err != nil {
		// Corrupted file - backup and start fresh
		m.history = &History{Sessions: []Session{}}
		m.startNewSession()
		backupPath := m.filePath + ".backup"
		if err := os.Rename(m.filePath, backupPath); err != nil {
			return fmt.Errorf("failed to back up corrupt history file: %w", err)
		}
		return nil
	}
	if loaded.Sessions == nil {
		loaded.Sessions = []Session{}
	}
	m.history = &loaded

	m.startNewSession()

	return nil
}

// startNewSession creates a new session (must be called with lock held)
func (m *Manager) startNewSession() {
	now := time.Now()
	m.current = &Session{
		ID:        uuid.New().String(),
		StartedAt: now,
		UpdatedAt: now,
		Entries:   []Entry{},
	}
	m.history.Sessions = append(m.history.Sessions, *m.current)
}

// AddEntry records a search in the current session and saves to disk
func (m *Manager) AddEntry(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		m.startNewSession()
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.current.Entries = append(m.current.Entries, e)
	m.current.UpdatedAt = time.Now()

	for i := range m.history.Sessions {
		if m.history.Sessions[i].ID == m.current.ID {
			m.history.Sessions[i] = *m.current
			break
		}
	}

	return m.saveUnlocked()
}

// RecentEntries returns the last N entries of the current session
func (m *Manager) RecentEntries(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil || len(m.current.Entries) == 0 {
		return []Entry{}
	}

	entries := m.current.Entries
	if len(entries) <= limit {
		return append([]Entry(nil), entries...)
	}

	return append([]Entry(nil), entries[len(entries)-limit:]...)
}

// LastSuccessful returns the newest entry across all sessions that holds a
// response, or nil. Entries recorded after a reset are ignored.
func (m *Manager) LastSuccessful() *Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.history.Sessions) - 1; i >= 0; i-- {
		entries := m.history.Sessions[i].Entries
		for j := len(entries) - 1; j >= 0; j-- {
			e := entries[j]
			if e.Kind == KindReset {
				return nil
			}
			if e.Succeeded() {
				return &e
			}
		}
	}
	return nil
}

// KindReset marks the point where the user cleared the result view
const KindReset = "reset"

// Save persists the history to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// saveUnlocked saves without acquiring the lock (must be called with lock held)
func (m *Manager) saveUnlocked() error {
	if len(m.history.Sessions) > m.maxSessions {
		m.history.Sessions = m.history.Sessions[len(m.history.Sessions)-m.maxSessions:]
	}

	data, err := json.MarshalIndent(m.history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempPath := m.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, m.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// CurrentSession returns a copy of the current session, or nil before Load
func (m *Manager) CurrentSession() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	s.Entries = append([]Entry(nil), m.current.Entries...)
	return &s
}
